package postgres

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/core/domain"
	"account-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, customer_id, account_number, account_type, balance, currency, status, customer_name, created_at`

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		a.AccountID, a.CustomerID, a.AccountNumber, a.AccountType,
		a.Balance, a.Currency, a.Status, a.CustomerName, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.ErrAccountNumberExists()
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByAccountID fetches an account by its public id (without locking).
func (r *AccountRepo) GetByAccountID(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, accountID))
}

// GetByAccountIDForUpdate fetches an account with pessimistic locking.
// This MUST be called within a transaction. A miss holds no lock.
func (r *AccountRepo) GetByAccountIDForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE`

	return scanAccount(tx.QueryRow(ctx, query, accountID))
}

// UpdateBalance updates an account's balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1 WHERE account_id = $2`

	tag, err := tx.Exec(ctx, query, balance, accountID)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", accountID)
	}
	return nil
}

// UpdateStatus updates an account's lifecycle status.
func (r *AccountRepo) UpdateStatus(ctx context.Context, accountID int64, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1 WHERE account_id = $2`

	tag, err := r.pool.Exec(ctx, query, status, accountID)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", accountID)
	}
	return nil
}

// NextAccountID allocates a fresh account id from the store-level sequence.
func (r *AccountRepo) NextAccountID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('account_id_seq')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next account id: %w", err)
	}
	return id, nil
}

// Count returns the number of accounts.
func (r *AccountRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.AccountID, &a.CustomerID, &a.AccountNumber, &a.AccountType,
		&a.Balance, &a.Currency, &a.Status, &a.CustomerName, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}
