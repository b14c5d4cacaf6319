package apperror

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Account Lifecycle (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "source or destination account not found", http.StatusNotFound)
}

func ErrAccountNumberExists() *AppError {
	return New("ACC_002", "account number already exists", http.StatusConflict)
}

func ErrInvalidStatus(raw string) *AppError {
	return New("ACC_003", fmt.Sprintf("unknown account status %q", raw), http.StatusBadRequest)
}

func ErrStatusTransition(from, to string) *AppError {
	return New("ACC_004", fmt.Sprintf("status transition %s -> %s not allowed", from, to), http.StatusConflict)
}

// ---- Transfer Engine (TRF) ----

func ErrSameAccount() *AppError {
	return New("TRF_001", "from_account and to_account must differ", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("TRF_002", "amount must be positive with at most 2 decimal places", http.StatusBadRequest)
}

func ErrSourceCannotTransact(status string) *AppError {
	return New("TRF_003", fmt.Sprintf("source account status '%s' cannot transact", status), http.StatusBadRequest)
}

func ErrDestinationCannotReceive(status string) *AppError {
	return New("TRF_004", fmt.Sprintf("destination account status '%s' cannot receive funds", status), http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("TRF_005", "insufficient funds", http.StatusBadRequest)
}

// ErrDailyLimitExceeded carries the limit, the amount already sent today and
// the attempted amount for diagnostics.
func ErrDailyLimitExceeded(limit, alreadySent, attempted decimal.Decimal) *AppError {
	return New("TRF_006", fmt.Sprintf(
		"daily transfer limit exceeded: limit=%s, already_transferred_today=%s, attempting=%s",
		limit, alreadySent, attempted,
	), http.StatusUnprocessableEntity)
}

// ErrTransferFailed covers any failure in the commit phase; the whole atomic
// unit has already been rolled back when this surfaces.
func ErrTransferFailed(err error) *AppError {
	return Wrap("TRF_007", "transfer failed", http.StatusInternalServerError, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
