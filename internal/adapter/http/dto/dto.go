package dto

import (
	"time"

	"account-service/internal/core/domain"
	"account-service/internal/core/ports"

	"github.com/shopspring/decimal"
)

// TransferRequest is the request body for a funds transfer. Amount semantics
// (positivity, decimal places, daily limit) are checked by the transfer
// engine, not by binding tags, so every bad amount maps to a TRF error.
type TransferRequest struct {
	FromAccount int64           `json:"from_account" binding:"required"`
	ToAccount   int64           `json:"to_account" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

// TransferResponse is the response body for a committed transfer.
type TransferResponse struct {
	TransactionID int64  `json:"transaction_id"`
	FromAccount   int64  `json:"from_account"`
	ToAccount     int64  `json:"to_account"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
}

// CreateAccountRequest is the request body for opening an account.
type CreateAccountRequest struct {
	CustomerID     int64           `json:"customer_id" binding:"required,gt=0"`
	AccountNumber  string          `json:"account_number" binding:"required,max=50,safe_id"`
	AccountType    string          `json:"account_type,omitempty" binding:"omitempty,max=20"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Currency       string          `json:"currency,omitempty" binding:"omitempty,len=3"`
	CustomerName   string          `json:"customer_name,omitempty" binding:"omitempty,max=100"`
}

// StatusChangeRequest is the request body for an account status change.
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// AccountResponse is the response body for account reads and writes.
type AccountResponse struct {
	AccountID     int64  `json:"account_id"`
	CustomerID    int64  `json:"customer_id"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	CustomerName  string `json:"customer_name"`
	CreatedAt     string `json:"created_at"`
}

// ToAccountResponse converts a domain account to its DTO. Balance travels as a
// string so clients never touch float rounding.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     a.AccountID,
		CustomerID:    a.CustomerID,
		AccountNumber: a.AccountNumber,
		AccountType:   a.AccountType,
		Balance:       a.Balance.StringFixed(2),
		Currency:      a.Currency,
		Status:        string(a.Status),
		CustomerName:  a.CustomerName,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToTransferResponse converts a transfer result to its DTO.
func ToTransferResponse(r *ports.TransferResult) TransferResponse {
	return TransferResponse{
		TransactionID: r.TransactionID,
		FromAccount:   r.FromAccountID,
		ToAccount:     r.ToAccountID,
		Amount:        r.Amount.StringFixed(2),
		Status:        "SUCCESS",
	}
}
