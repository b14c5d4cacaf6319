package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"account-service/internal/core/domain"
	"account-service/pkg/apperror"

	"account-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fakes below model the locking behaviour the engine relies on in
// Postgres: one mutex per account row standing in for SELECT ... FOR UPDATE,
// held until the transaction commits or rolls back. Running real concurrent
// transfers against them exercises the lock-ordering and atomicity claims
// without a database.

type memRow struct {
	mu      sync.Mutex
	account domain.Account
}

type memBank struct {
	mu       sync.Mutex
	rows     map[int64]*memRow
	ledger   []domain.Transaction
	nextTxID int64
}

func newMemBank(accounts ...domain.Account) *memBank {
	b := &memBank{rows: make(map[int64]*memRow)}
	for _, a := range accounts {
		b.rows[a.AccountID] = &memRow{account: a}
	}
	return b
}

func (b *memBank) balance(id int64) decimal.Decimal {
	b.mu.Lock()
	row := b.rows[id]
	b.mu.Unlock()
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.account.Balance
}

func (b *memBank) ledgerLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ledger)
}

// memTx carries the row locks and staged writes of one in-flight transfer.
type memTx struct {
	pgx.Tx
	bank   *memBank
	locked []*memRow
	staged map[int64]decimal.Decimal
	writes []domain.Transaction
	done   bool
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	for id, balance := range t.staged {
		t.bank.rows[id].account.Balance = balance
	}
	t.bank.mu.Lock()
	for _, txn := range t.writes {
		t.bank.nextTxID++
		txn.ID = t.bank.nextTxID
		t.bank.ledger = append(t.bank.ledger, txn)
	}
	t.bank.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.done = true
	for _, row := range t.locked {
		row.mu.Unlock()
	}
	t.locked = nil
}

type memTransactor struct{ bank *memBank }

func (m *memTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return &memTx{bank: m.bank, staged: make(map[int64]decimal.Decimal)}, nil
}

type memAccountRepo struct{ bank *memBank }

func (r *memAccountRepo) Create(_ context.Context, _ *domain.Account) error { return nil }
func (r *memAccountRepo) NextAccountID(_ context.Context) (int64, error)    { return 0, nil }
func (r *memAccountRepo) Count(_ context.Context) (int64, error)            { return 0, nil }

func (r *memAccountRepo) GetByAccountID(_ context.Context, accountID int64) (*domain.Account, error) {
	r.bank.mu.Lock()
	row, ok := r.bank.rows[accountID]
	r.bank.mu.Unlock()
	if !ok {
		return nil, nil
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	a := row.account
	return &a, nil
}

func (r *memAccountRepo) GetByAccountIDForUpdate(_ context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error) {
	mt := tx.(*memTx)
	r.bank.mu.Lock()
	row, ok := r.bank.rows[accountID]
	r.bank.mu.Unlock()
	if !ok {
		return nil, nil
	}
	row.mu.Lock() // blocks until any holder commits or rolls back
	mt.locked = append(mt.locked, row)
	a := row.account
	return &a, nil
}

func (r *memAccountRepo) UpdateBalance(_ context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal) error {
	tx.(*memTx).staged[accountID] = balance
	return nil
}

func (r *memAccountRepo) UpdateStatus(_ context.Context, accountID int64, status domain.AccountStatus) error {
	r.bank.mu.Lock()
	row := r.bank.rows[accountID]
	r.bank.mu.Unlock()
	row.mu.Lock()
	defer row.mu.Unlock()
	row.account.Status = status
	return nil
}

type memTransactionRepo struct{ bank *memBank }

func (r *memTransactionRepo) Create(_ context.Context, tx pgx.Tx, transaction *domain.Transaction) error {
	mt := tx.(*memTx)
	mt.writes = append(mt.writes, *transaction)
	return nil
}

func (r *memTransactionRepo) SumSentBetween(_ context.Context, _ pgx.Tx, fromAccount int64, start, end time.Time) (decimal.Decimal, error) {
	r.bank.mu.Lock()
	defer r.bank.mu.Unlock()
	total := decimal.Zero
	for _, txn := range r.bank.ledger {
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

func newMemTransferService(bank *memBank, dailyLimit string) *TransferServiceImpl {
	return NewTransferService(
		&memAccountRepo{bank: bank},
		&memTransactionRepo{bank: bank},
		&memTransactor{bank: bank},
		decimal.RequireFromString(dailyLimit),
		zerolog.Nop(),
	)
}

// ==================== Concurrency Tests ====================

func TestTransfer_OppositeDirectionsNoDeadlock(t *testing.T) {
	bank := newMemBank(
		domain.Account{AccountID: 1, Balance: dec("10000"), Status: domain.AccountStatusActive},
		domain.Account{AccountID: 2, Balance: dec("10000"), Status: domain.AccountStatusActive},
	)
	svc := newMemTransferService(bank, "1000000")

	const pairs = 50
	var wg sync.WaitGroup
	wg.Add(2 * pairs)
	for i := 0; i < pairs; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ports.TransferRequest{
				FromAccountID: 1, ToAccountID: 2, Amount: dec("10"),
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ports.TransferRequest{
				FromAccountID: 2, ToAccountID: 1, Amount: dec("10"),
			})
			assert.NoError(t, err)
		}()
	}

	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()
	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	// Equal traffic both ways leaves balances where they started.
	assert.True(t, dec("10000").Equal(bank.balance(1)), "balance(1) = %s", bank.balance(1))
	assert.True(t, dec("10000").Equal(bank.balance(2)), "balance(2) = %s", bank.balance(2))
	assert.Equal(t, 2*pairs, bank.ledgerLen())
}

func TestTransfer_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	// 20 goroutines race to send 100 each out of a 500 balance. Exactly 5 can
	// succeed; the rest must fail with insufficient funds, never a negative
	// balance.
	bank := newMemBank(
		domain.Account{AccountID: 1, Balance: dec("500"), Status: domain.AccountStatusActive},
		domain.Account{AccountID: 2, Balance: dec("0"), Status: domain.AccountStatusActive},
	)
	svc := newMemTransferService(bank, "1000000")

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, insufficient := 0, 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ports.TransferRequest{
				FromAccountID: 1, ToAccountID: 2, Amount: dec("100"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, "TRF_005", appErr.Code)
			insufficient++
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, attempts-5, insufficient)
	assert.True(t, bank.balance(1).IsZero())
	assert.True(t, dec("500").Equal(bank.balance(2)))
}

func TestTransfer_ConcurrentSendersRespectDailyLimit(t *testing.T) {
	bank := newMemBank(
		domain.Account{AccountID: 1, Balance: dec("100000"), Status: domain.AccountStatusActive},
		domain.Account{AccountID: 2, Balance: dec("0"), Status: domain.AccountStatusActive},
	)
	svc := newMemTransferService(bank, "300")

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, limited := 0, 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ports.TransferRequest{
				FromAccountID: 1, ToAccountID: 2, Amount: dec("100"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, "TRF_006", appErr.Code)
			limited++
		}()
	}
	wg.Wait()

	// The aggregate runs under the sender's row lock, so exactly 3 transfers
	// of 100 fit under a limit of 300 no matter the interleaving.
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, attempts-3, limited)
	assert.True(t, dec("300").Equal(bank.balance(2)))
}

func TestTransfer_DisjointPairsProceedIndependently(t *testing.T) {
	bank := newMemBank(
		domain.Account{AccountID: 1, Balance: dec("1000"), Status: domain.AccountStatusActive},
		domain.Account{AccountID: 2, Balance: dec("1000"), Status: domain.AccountStatusActive},
		domain.Account{AccountID: 3, Balance: dec("1000"), Status: domain.AccountStatusActive},
		domain.Account{AccountID: 4, Balance: dec("1000"), Status: domain.AccountStatusActive},
	)
	svc := newMemTransferService(bank, "1000000")

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ports.TransferRequest{
				FromAccountID: 1, ToAccountID: 2, Amount: dec("1"),
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ports.TransferRequest{
				FromAccountID: 3, ToAccountID: 4, Amount: dec("1"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := bank.balance(1).Add(bank.balance(2)).Add(bank.balance(3)).Add(bank.balance(4))
	assert.True(t, dec("4000").Equal(total), "money conserved, got %s", total)
	assert.True(t, dec("975").Equal(bank.balance(1)))
	assert.True(t, dec("1025").Equal(bank.balance(2)))
}
