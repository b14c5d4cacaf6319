package ports

import (
	"context"

	"account-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// TransferRequest is the input to the transfer engine. Amount must be a
// strictly positive decimal with at most 2 fractional digits.
type TransferRequest struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
}

// TransferResult reports a committed transfer back to the caller.
type TransferResult struct {
	TransactionID int64
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
}

// TransferService moves funds between two accounts as one atomic unit.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// CreateAccountRequest holds the fields needed to open an account.
type CreateAccountRequest struct {
	CustomerID     int64
	AccountNumber  string
	AccountType    string
	InitialBalance decimal.Decimal
	Currency       string
	CustomerName   string
}

// AccountService is the account lifecycle collaborator: create, read and
// status changes. It never mutates balances; that is the transfer engine's job.
type AccountService interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	ChangeStatus(ctx context.Context, accountID int64, status domain.AccountStatus) (*domain.Account, error)
}

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}
