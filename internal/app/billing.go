/**
 * @description
 * Bill issuance. Creating a bill is the one multi-entity transaction in the
 * service: the bill row, its summary projection, and the account balance
 * update are persisted all-or-nothing inside a single store transaction. No
 * bill or summary can exist without the corresponding balance update, and
 * vice versa.
 *
 * @dependencies
 * - context, errors, log/slog, time: Standard Go libraries.
 * - github.com/google/uuid, github.com/shopspring/decimal.
 * - internal/domain, internal/store.
 */

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cbm/billing-service/internal/domain"
	"github.com/cbm/billing-service/internal/store"
)

// BillIssuer orchestrates bill creation, summary propagation, and the account
// balance update.
type BillIssuer struct {
	store  store.Store
	events Publisher
	logger *slog.Logger
}

// NewBillIssuer creates a new bill issuer. events may be nil when no broker
// is configured.
func NewBillIssuer(st store.Store, events Publisher, logger *slog.Logger) *BillIssuer {
	return &BillIssuer{store: st, events: events, logger: logger}
}

// CreateBill issues a bill against the account: the bill amount is added to
// the current balance, a bill row and its summary are persisted, and the
// account's last bill date is set to today. A missing or TERMINATED account
// fails with ErrAccountNotFound.
//
// The persisted bill row's amount field carries the account balance after
// issuance, not the raw bill amount; the raw amount is reported on the
// returned record and the published event.
func (b *BillIssuer) CreateBill(ctx context.Context, accountID uuid.UUID, billAmount decimal.Decimal) (*domain.CreateBillEvent, error) {
	var event domain.CreateBillEvent

	err := b.store.WithinTx(ctx, func(tx store.Store) error {
		account, err := tx.Accounts().Get(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return err
			}
			return domain.NewDomainError("create bill", err)
		}
		if account.IsTerminated() {
			return domain.ErrAccountNotFound
		}

		previous := account.CurrentBalance
		next := previous.Add(billAmount)
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		bill := &domain.Bill{
			ID:             uuid.New(),
			AccountID:      account.ID,
			Amount:         next,
			GenerationDate: today,
			Status:         domain.BillStatusNotSettled,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Bills().Save(ctx, bill); err != nil {
			return domain.NewDomainError("create bill", err)
		}

		summary := &domain.BillSummary{ID: bill.ID, Status: bill.Status}
		if err := tx.BillSummaries().Save(ctx, summary); err != nil {
			return domain.NewDomainError("propagate bill summary", err)
		}

		account.CurrentBalance = next
		account.LastBillDate = &today
		account.UpdatedAt = now
		if err := tx.Accounts().Save(ctx, account); err != nil {
			return domain.NewDomainError("update account balance", err)
		}

		event = domain.CreateBillEvent{
			AccountID:          account.ID,
			CurrentBalance:     previous,
			BillAmount:         billAmount,
			NewBalance:         next,
			BillGenerationDate: today,
		}
		return nil
	})
	if err != nil {
		b.logger.Error("bill creation failed", "account_id", accountID, "error", err)
		return nil, err
	}

	b.logger.Info("bill created",
		"account_id", accountID,
		"bill_amount", billAmount.String(),
		"new_balance", event.NewBalance.String())
	b.publishBill(ctx, event)
	return &event, nil
}

func (b *BillIssuer) publishBill(ctx context.Context, event domain.CreateBillEvent) {
	if b.events == nil {
		return
	}
	if err := b.events.PublishBillEvent(ctx, event); err != nil {
		b.logger.Warn("bill event publish failed", "account_id", event.AccountID, "error", err)
	}
}
