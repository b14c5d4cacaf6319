package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/core/domain"
	"account-service/internal/core/ports"
	"account-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// AccountServiceImpl implements account lifecycle operations. Balance
// mutations are out of its reach; only the transfer engine moves money.
type AccountServiceImpl struct {
	accountRepo ports.AccountRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewAccountService creates an account service.
func NewAccountService(accountRepo ports.AccountRepository, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		log:         log,
		now:         time.Now,
	}
}

// CreateAccount opens a new ACTIVE account with a server-assigned account id.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, req ports.CreateAccountRequest) (*domain.Account, error) {
	if req.CustomerID <= 0 {
		return nil, apperror.Validation("customer_id must be positive")
	}
	if req.AccountNumber == "" {
		return nil, apperror.Validation("account_number is required")
	}
	if req.InitialBalance.IsNegative() {
		return nil, apperror.Validation("initial_balance cannot be negative")
	}
	if req.InitialBalance.Exponent() < -2 {
		return nil, apperror.Validation("initial_balance cannot have more than 2 decimal places")
	}

	accountID, err := s.accountRepo.NextAccountID(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("allocate account id: %w", err))
	}

	account := &domain.Account{
		AccountID:     accountID,
		CustomerID:    req.CustomerID,
		AccountNumber: req.AccountNumber,
		AccountType:   req.AccountType,
		Balance:       req.InitialBalance,
		Currency:      req.Currency,
		Status:        domain.AccountStatusActive,
		CustomerName:  req.CustomerName,
		CreatedAt:     s.now().UTC(),
	}
	if account.AccountType == "" {
		account.AccountType = "SAVINGS"
	}
	if account.Currency == "" {
		account.Currency = "INR"
	}
	if account.CustomerName == "" {
		account.CustomerName = fmt.Sprintf("Customer %d", account.CustomerID)
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Int64("account_id", account.AccountID).
		Int64("customer_id", account.CustomerID).
		Str("account_number", account.AccountNumber).
		Msg("account created")

	return account, nil
}

// GetAccount fetches one account by its account id.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch account %d: %w", accountID, err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

// ChangeStatus moves an account to a new lifecycle status. CLOSED is terminal;
// requests against a closed account are rejected whatever the target status.
func (s *AccountServiceImpl) ChangeStatus(ctx context.Context, accountID int64, status domain.AccountStatus) (*domain.Account, error) {
	account, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch account %d: %w", accountID, err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	if !account.Status.CanTransitionTo(status) {
		return nil, apperror.ErrStatusTransition(string(account.Status), string(status))
	}

	if err := s.accountRepo.UpdateStatus(ctx, accountID, status); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status of account %d: %w", accountID, err))
	}

	s.log.Info().
		Int64("account_id", accountID).
		Str("from", string(account.Status)).
		Str("to", string(status)).
		Msg("account status changed")

	account.Status = status
	return account, nil
}
