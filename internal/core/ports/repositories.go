package ports

import (
	"context"
	"time"

	"account-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside an atomic unit and take row locks.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByAccountID(ctx context.Context, accountID int64) (*domain.Account, error)
	// GetByAccountIDForUpdate locks the account row for the duration of tx
	// (pessimistic lock). Returns nil without holding any lock when the
	// account does not exist.
	GetByAccountIDForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal) error
	UpdateStatus(ctx context.Context, accountID int64, status domain.AccountStatus) error
	// NextAccountID allocates a fresh account id from a store-level sequence.
	NextAccountID(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository defines persistence for the append-only transfer ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	// SumSentBetween returns the total amount sent by fromAccount with
	// created_at in [start, end). Zero when no rows match. Runs on tx so the
	// aggregate is consistent with the row locks the caller already holds.
	SumSentBetween(ctx context.Context, tx pgx.Tx, fromAccount int64, start, end time.Time) (decimal.Decimal, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
