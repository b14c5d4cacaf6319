package integration

import (
	"context"
	"sync"
	"time"

	"account-service/internal/core/domain"
	"account-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// In-memory stand-ins for the postgres repositories. Each account row carries
// its own mutex, acquired by GetByAccountIDForUpdate and held until the
// transaction commits or rolls back, mirroring SELECT ... FOR UPDATE. The
// end-to-end tests therefore see the same locking behaviour the service
// relies on in production.

type accountRow struct {
	mu      sync.Mutex
	account domain.Account
}

type inMemoryStore struct {
	mu            sync.Mutex
	rows          map[int64]*accountRow
	numbers       map[string]int64
	ledger        []domain.Transaction
	nextAccountID int64
	nextTxID      int64
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{
		rows:          make(map[int64]*accountRow),
		numbers:       make(map[string]int64),
		nextAccountID: 1000,
	}
}

// --- Transactor ---

type inMemoryTransactor struct{ store *inMemoryStore }

func newInMemoryTransactor(store *inMemoryStore) *inMemoryTransactor {
	return &inMemoryTransactor{store: store}
}

func (t *inMemoryTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return &inMemoryTx{store: t.store, staged: make(map[int64]decimal.Decimal)}, nil
}

type inMemoryTx struct {
	pgx.Tx
	store  *inMemoryStore
	locked []*accountRow
	staged map[int64]decimal.Decimal
	writes []domain.Transaction
	done   bool
}

func (t *inMemoryTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	for id, balance := range t.staged {
		t.store.rows[id].account.Balance = balance
	}
	t.store.mu.Lock()
	t.store.ledger = append(t.store.ledger, t.writes...)
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *inMemoryTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *inMemoryTx) release() {
	t.done = true
	for _, row := range t.locked {
		row.mu.Unlock()
	}
	t.locked = nil
}

// --- Account Repo ---

type inMemoryAccountRepo struct{ store *inMemoryStore }

func newInMemoryAccountRepo(store *inMemoryStore) *inMemoryAccountRepo {
	return &inMemoryAccountRepo{store: store}
}

func (r *inMemoryAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.numbers[account.AccountNumber]; exists {
		return apperror.ErrAccountNumberExists()
	}
	r.store.numbers[account.AccountNumber] = account.AccountID
	r.store.rows[account.AccountID] = &accountRow{account: *account}
	return nil
}

func (r *inMemoryAccountRepo) GetByAccountID(_ context.Context, accountID int64) (*domain.Account, error) {
	r.store.mu.Lock()
	row, ok := r.store.rows[accountID]
	r.store.mu.Unlock()
	if !ok {
		return nil, nil
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	a := row.account
	return &a, nil
}

func (r *inMemoryAccountRepo) GetByAccountIDForUpdate(_ context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error) {
	memTx := tx.(*inMemoryTx)
	r.store.mu.Lock()
	row, ok := r.store.rows[accountID]
	r.store.mu.Unlock()
	if !ok {
		return nil, nil
	}
	row.mu.Lock()
	memTx.locked = append(memTx.locked, row)
	a := row.account
	return &a, nil
}

func (r *inMemoryAccountRepo) UpdateBalance(_ context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal) error {
	tx.(*inMemoryTx).staged[accountID] = balance
	return nil
}

func (r *inMemoryAccountRepo) UpdateStatus(_ context.Context, accountID int64, status domain.AccountStatus) error {
	r.store.mu.Lock()
	row := r.store.rows[accountID]
	r.store.mu.Unlock()
	row.mu.Lock()
	defer row.mu.Unlock()
	row.account.Status = status
	return nil
}

func (r *inMemoryAccountRepo) NextAccountID(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextAccountID++
	return r.store.nextAccountID, nil
}

func (r *inMemoryAccountRepo) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.rows)), nil
}

// --- Transaction Repo ---

type inMemoryTransactionRepo struct{ store *inMemoryStore }

func newInMemoryTransactionRepo(store *inMemoryStore) *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{store: store}
}

func (r *inMemoryTransactionRepo) Create(_ context.Context, tx pgx.Tx, transaction *domain.Transaction) error {
	memTx := tx.(*inMemoryTx)
	r.store.mu.Lock()
	r.store.nextTxID++
	transaction.ID = r.store.nextTxID
	r.store.mu.Unlock()
	memTx.writes = append(memTx.writes, *transaction)
	return nil
}

func (r *inMemoryTransactionRepo) SumSentBetween(_ context.Context, _ pgx.Tx, fromAccount int64, start, end time.Time) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := decimal.Zero
	for _, txn := range r.store.ledger {
		if txn.FromAccount != fromAccount {
			continue
		}
		if txn.CreatedAt.Before(start) || !txn.CreatedAt.Before(end) {
			continue
		}
		total = total.Add(txn.Amount)
	}
	return total, nil
}
