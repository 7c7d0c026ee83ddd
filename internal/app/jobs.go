/**
 * @description
 * Scheduled job implementations. The bill run walks every ACTIVE account
 * whose bill cycle day is today and issues it a bill for the configured
 * amount. One failing account does not stop the run.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cbm/billing-service/internal/domain"
	"github.com/cbm/billing-service/internal/store"
)

// billRunPageSize bounds how many due accounts are loaded per page.
const billRunPageSize = 100

// AccountSearcher defines the account lookup needed by the jobs.
type AccountSearcher interface {
	Search(ctx context.Context, filter store.AccountFilter, page, size int, sort store.SortField) ([]domain.Account, int64, error)
}

// Biller defines the bill issuance operation needed by the jobs.
type Biller interface {
	CreateBill(ctx context.Context, accountID uuid.UUID, billAmount decimal.Decimal) (*domain.CreateBillEvent, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	accounts   AccountSearcher
	biller     Biller
	billAmount decimal.Decimal
	logger     *slog.Logger
}

// NewJobs creates a new Jobs runner. billAmount is the flat amount each
// scheduled bill is issued for.
func NewJobs(accounts AccountSearcher, biller Biller, billAmount decimal.Decimal, logger *slog.Logger) *Jobs {
	return &Jobs{
		accounts:   accounts,
		biller:     biller,
		billAmount: billAmount,
		logger:     logger,
	}
}

// RunBillCycle issues bills to every ACTIVE account whose bill cycle day is
// today's day of month.
func (j *Jobs) RunBillCycle() {
	j.logger.Info("starting bill cycle run")
	ctx := context.Background()

	day := time.Now().UTC().Day()
	status := domain.AccountStatusActive
	filter := store.AccountFilter{Status: &status, BillCycleDay: &day}

	issued, failed := 0, 0
	for page := 0; ; page++ {
		accounts, _, err := j.accounts.Search(ctx, filter, page, billRunPageSize, store.SortByName)
		if err != nil {
			j.logger.Error("bill cycle run aborted: account search failed", "page", page, "error", err)
			return
		}
		if len(accounts) == 0 {
			break
		}

		for _, account := range accounts {
			if _, err := j.biller.CreateBill(ctx, account.ID, j.billAmount); err != nil {
				j.logger.Error("scheduled bill issuance failed", "account_id", account.ID, "error", err)
				failed++
				continue
			}
			issued++
		}

		if len(accounts) < billRunPageSize {
			break
		}
	}

	j.logger.Info("bill cycle run finished", "day", day, "issued", issued, "failed", failed)
}
