package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// ParseAccountStatus normalises a raw string into an AccountStatus.
// Returns false for anything outside the closed {ACTIVE, FROZEN, CLOSED} set.
func ParseAccountStatus(raw string) (AccountStatus, bool) {
	switch s := AccountStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return s, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether a status change is allowed.
// ACTIVE and FROZEN may move between each other or to CLOSED; CLOSED is terminal.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	if s == AccountStatusClosed {
		return false
	}
	return next == AccountStatusActive || next == AccountStatusFrozen || next == AccountStatusClosed
}

// Account represents a customer account. Only Balance and Status are ever
// mutated after creation; the transfer engine touches Balance exclusively.
type Account struct {
	AccountID     int64           `json:"account_id"`
	CustomerID    int64           `json:"customer_id"`
	AccountNumber string          `json:"account_number"`
	AccountType   string          `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Status        AccountStatus   `json:"status"`
	CustomerName  string          `json:"customer_name"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsActive returns true if the account may send or receive funds.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
