package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry recording a committed transfer.
// Rows are only ever appended; the daily-limit aggregate and audit trail
// both depend on them never changing.
type Transaction struct {
	ID          int64           `json:"id"`
	FromAccount int64           `json:"from_account"`
	ToAccount   int64           `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
