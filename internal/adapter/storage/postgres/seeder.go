package postgres

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"account-service/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const seedTimeLayout = "2006-01-02 15:04:05"

// Seeder loads accounts from a CSV file on first boot. It only runs when the
// accounts table is empty, and it advances the account id sequence past the
// highest seeded id so future allocations cannot collide.
type Seeder struct {
	pool Pool
	log  zerolog.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(pool Pool, log zerolog.Logger) *Seeder {
	return &Seeder{pool: pool, log: log}
}

// Run seeds accounts from csvPath. A missing file is not an error.
func (s *Seeder) Run(ctx context.Context, csvPath string) error {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("count accounts before seed: %w", err)
	}
	if count > 0 {
		s.log.Debug().Int64("accounts", count).Msg("accounts table not empty, skipping seed")
		return nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug().Str("path", csvPath).Msg("no seed file, skipping")
			return nil
		}
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	accounts, err := parseSeedAccounts(f)
	if err != nil {
		return fmt.Errorf("parse seed file %q: %w", csvPath, err)
	}
	if len(accounts) == 0 {
		return nil
	}

	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var maxID int64
	for i := range accounts {
		a := &accounts[i]
		if _, err := s.pool.Exec(ctx, query,
			a.AccountID, a.CustomerID, a.AccountNumber, a.AccountType,
			a.Balance, a.Currency, a.Status, a.CustomerName, a.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert seed account %d: %w", a.AccountID, err)
		}
		if a.AccountID > maxID {
			maxID = a.AccountID
		}
	}

	// nextval must return maxID+1 after seeding.
	if _, err := s.pool.Exec(ctx, `SELECT setval('account_id_seq', $1)`, maxID); err != nil {
		return fmt.Errorf("advance account id sequence: %w", err)
	}

	s.log.Info().Int("accounts", len(accounts)).Str("path", csvPath).Msg("seeded accounts from CSV")
	return nil
}

// parseSeedAccounts reads CSV rows with a header line into domain accounts.
// Optional columns fall back to the same defaults account creation uses.
func parseSeedAccounts(r io.Reader) ([]domain.Account, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var accounts []domain.Account
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		accountID, err := strconv.ParseInt(field(record, "account_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad account_id: %w", line, err)
		}

		customerID, _ := strconv.ParseInt(field(record, "customer_id"), 10, 64)

		balance := decimal.Zero
		if raw := field(record, "balance"); raw != "" {
			balance, err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad balance: %w", line, err)
			}
		}

		status := domain.AccountStatusActive
		if raw := field(record, "status"); raw != "" {
			parsed, ok := domain.ParseAccountStatus(raw)
			if !ok {
				return nil, fmt.Errorf("line %d: unknown status %q", line, raw)
			}
			status = parsed
		}

		createdAt := time.Now().UTC()
		if raw := field(record, "created_at"); raw != "" {
			createdAt, err = time.ParseInLocation(seedTimeLayout, raw, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad created_at: %w", line, err)
			}
		}

		currency := field(record, "currency")
		if currency == "" {
			currency = "INR"
		}

		accountType := field(record, "account_type")
		if accountType == "" {
			accountType = "SAVINGS"
		}

		customerName := field(record, "customer_name")
		if customerName == "" {
			customerName = fmt.Sprintf("Customer %d", customerID)
		}

		accounts = append(accounts, domain.Account{
			AccountID:     accountID,
			CustomerID:    customerID,
			AccountNumber: field(record, "account_number"),
			AccountType:   accountType,
			Balance:       balance,
			Currency:      currency,
			Status:        status,
			CustomerName:  customerName,
			CreatedAt:     createdAt,
		})
	}

	return accounts, nil
}
