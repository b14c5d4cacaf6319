package postgres

import (
	"context"
	"fmt"
	"time"

	"account-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository. The transactions
// table is append-only: there is no update or delete path here on purpose.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction. The store
// assigns the monotonic id, written back into t.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (from_account, to_account, amount, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`

	err := tx.QueryRow(ctx, query, t.FromAccount, t.ToAccount, t.Amount, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SumSentBetween returns the total amount sent by fromAccount with created_at
// in [start, end). Runs on the caller's transaction so the aggregate observes
// everything committed before the caller's row locks were granted.
func (r *TransactionRepo) SumSentBetween(ctx context.Context, tx pgx.Tx, fromAccount int64, start, end time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE from_account = $1 AND created_at >= $2 AND created_at < $3`

	var sum decimal.Decimal
	err := tx.QueryRow(ctx, query, fromAccount, start, end).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum sent amounts: %w", err)
	}
	return sum, nil
}
