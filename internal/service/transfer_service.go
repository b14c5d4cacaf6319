package service

import (
	"context"
	"fmt"
	"time"

	"account-service/internal/core/domain"
	"account-service/internal/core/ports"
	"account-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransferServiceImpl moves funds between accounts under a single database
// transaction with pessimistic row locks on both parties.
type TransferServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	transactor  ports.DBTransactor
	dailyLimit  decimal.Decimal
	log         zerolog.Logger
	now         func() time.Time
}

// NewTransferService creates a transfer service. dailyLimit is the maximum
// total amount an account may send within one UTC calendar day.
func NewTransferService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	dailyLimit decimal.Decimal,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		transactor:  transactor,
		dailyLimit:  dailyLimit,
		log:         log,
		now:         time.Now,
	}
}

// Transfer debits the source account and credits the destination atomically.
// Validation order: identity, amount, existence, status, balance, daily limit.
// The first failing check decides the error even when several would fail.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.FromAccountID == req.ToAccountID {
		return nil, apperror.ErrSameAccount()
	}
	if !req.Amount.IsPositive() || req.Amount.Exponent() < -2 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin transfer tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck // no-op after commit

	src, dst, err := s.lockPair(ctx, dbTx, req.FromAccountID, req.ToAccountID)
	if err != nil {
		return nil, err
	}

	if !src.IsActive() {
		return nil, apperror.ErrSourceCannotTransact(string(src.Status))
	}
	if !dst.IsActive() {
		return nil, apperror.ErrDestinationCannotReceive(string(dst.Status))
	}
	if src.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	now := s.now().UTC()
	sentToday, err := s.sumSentToday(ctx, dbTx, src.AccountID, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("daily limit aggregate: %w", err))
	}
	if sentToday.Add(req.Amount).GreaterThan(s.dailyLimit) {
		return nil, apperror.ErrDailyLimitExceeded(s.dailyLimit, sentToday, req.Amount)
	}

	if err := s.accountRepo.UpdateBalance(ctx, dbTx, src.AccountID, src.Balance.Sub(req.Amount)); err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("debit account %d: %w", src.AccountID, err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, dst.AccountID, dst.Balance.Add(req.Amount)); err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("credit account %d: %w", dst.AccountID, err))
	}

	txn := &domain.Transaction{
		FromAccount: src.AccountID,
		ToAccount:   dst.AccountID,
		Amount:      req.Amount,
		CreatedAt:   now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("record transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("commit transfer: %w", err))
	}

	s.log.Info().
		Int64("transaction_id", txn.ID).
		Int64("from_account", src.AccountID).
		Int64("to_account", dst.AccountID).
		Str("amount", req.Amount.String()).
		Msg("transfer committed")

	return &ports.TransferResult{
		TransactionID: txn.ID,
		FromAccountID: src.AccountID,
		ToAccountID:   dst.AccountID,
		Amount:        req.Amount,
	}, nil
}

// lockPair acquires FOR UPDATE locks on both accounts in ascending account id
// order, whatever the transfer direction. Concurrent opposite transfers then
// agree on acquisition order and cannot deadlock each other.
func (s *TransferServiceImpl) lockPair(ctx context.Context, dbTx pgx.Tx, fromID, toID int64) (src, dst *domain.Account, err error) {
	firstID, secondID := fromID, toID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.accountRepo.GetByAccountIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock account %d: %w", firstID, err))
	}
	if first == nil {
		return nil, nil, apperror.ErrAccountNotFound()
	}

	second, err := s.accountRepo.GetByAccountIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock account %d: %w", secondID, err))
	}
	if second == nil {
		return nil, nil, apperror.ErrAccountNotFound()
	}

	if first.AccountID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

// sumSentToday aggregates outgoing transfers of accountID over the UTC
// calendar day containing now, with the window half-open at midnight.
// It must run on dbTx so the aggregate sees the locked, consistent state.
func (s *TransferServiceImpl) sumSentToday(ctx context.Context, dbTx pgx.Tx, accountID int64, now time.Time) (decimal.Decimal, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.txRepo.SumSentBetween(ctx, dbTx, accountID, start, start.Add(24*time.Hour))
}
