/**
 * @description
 * This file contains the account ledger: the business logic that enforces the
 * account lifecycle and balance-mutation invariants. The `Ledger` struct
 * coordinates between the store and the event publisher.
 *
 * Key invariants:
 * - Every mutation runs inside one store transaction, so the precondition
 *   check and the update observe a single consistent account snapshot.
 * - A TERMINATED account is treated as absent by every operation except
 *   Terminate, which reports the forbidden transition explicitly.
 * - A charge or withdrawal never exceeds the current balance.
 *
 * @dependencies
 * - context, errors, log/slog, time: Standard Go libraries.
 * - github.com/google/uuid: Account identifier generation.
 * - github.com/shopspring/decimal: Exact balance arithmetic.
 * - internal/domain, internal/store: Domain models and data access.
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

// Publisher is the interface for emitting domain events after a successful
// commit. Publish failures are logged, never surfaced to the caller.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, event domain.TransactionDetailsEvent) error
	PublishAccountStatusEvent(ctx context.Context, event domain.UpdateAccountStatusEvent) error
	PublishBillEvent(ctx context.Context, event domain.CreateBillEvent) error
}

// Ledger provides the account lifecycle and transaction operations.
type Ledger struct {
	store  store.Store
	events Publisher
	logger *slog.Logger
}

// NewLedger creates a new account ledger. events may be nil when no broker is
// configured.
func NewLedger(st store.Store, events Publisher, logger *slog.Logger) *Ledger {
	return &Ledger{store: st, events: events, logger: logger}
}

// Create inserts a new account with the caller-supplied status and returns
// it. There is no uniqueness constraint on the name.
func (l *Ledger) Create(ctx context.Context, name string, initialBalance decimal.Decimal, billCycleDay int, status domain.AccountStatus) (*domain.Account, error) {
	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uuid.New(),
		Name:           name,
		CurrentBalance: initialBalance,
		BillCycleDay:   billCycleDay,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.store.Accounts().Save(ctx, account); err != nil {
		l.logger.Error("account creation failed", "name", name, "error", err)
		return nil, domain.NewDomainError("create account", err)
	}
	l.logger.Info("account created", "account_id", account.ID, "name", name)
	return account, nil
}

// ChargeOn debits amount from the account. It fails with
// ErrForbiddenTransaction when the amount exceeds the current balance.
func (l *Ledger) ChargeOn(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.TransactionDetailsEvent, error) {
	return l.applyTransaction(ctx, accountID, amount, domain.TransactionTypeCharge)
}

// CreditOn deposits amount onto the account.
func (l *Ledger) CreditOn(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.TransactionDetailsEvent, error) {
	return l.applyTransaction(ctx, accountID, amount, domain.TransactionTypeCredit)
}

// WithdrawOn withdraws amount from the account. Preconditions are the same
// as for a charge.
func (l *Ledger) WithdrawOn(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.TransactionDetailsEvent, error) {
	return l.applyTransaction(ctx, accountID, amount, domain.TransactionTypeWithdrawal)
}

func (l *Ledger) applyTransaction(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, txType domain.TransactionType) (*domain.TransactionDetailsEvent, error) {
	var event domain.TransactionDetailsEvent

	err := l.store.WithinTx(ctx, func(tx store.Store) error {
		account, err := l.getActive(ctx, tx, accountID, string(txType))
		if err != nil {
			return err
		}

		previous := account.CurrentBalance
		var next decimal.Decimal
		switch txType {
		case domain.TransactionTypeCredit:
			next = previous.Add(amount)
		default:
			if amount.GreaterThan(previous) {
				return domain.ErrForbiddenTransaction
			}
			next = previous.Sub(amount)
		}

		now := time.Now().UTC()
		account.CurrentBalance = next
		account.UpdatedAt = now
		if err := tx.Accounts().Save(ctx, account); err != nil {
			return domain.NewDomainError(string(txType)+" on account", err)
		}

		event = domain.TransactionDetailsEvent{
			AccountID:         account.ID,
			TransactionType:   txType,
			PreviousBalance:   previous,
			TransactionAmount: amount,
			CurrentBalance:    next,
			TransactionDate:   now,
		}
		return nil
	})
	if err != nil {
		l.logger.Error("transaction failed", "account_id", accountID, "type", txType, "error", err)
		return nil, err
	}

	l.logger.Info("transaction applied",
		"account_id", accountID, "type", txType, "amount", amount.String())
	l.publishTransaction(ctx, event)
	return &event, nil
}

// UpdateBillCycle sets the day of month the account is billed on.
func (l *Ledger) UpdateBillCycle(ctx context.Context, accountID uuid.UUID, newDay int) (*domain.Account, error) {
	var updated *domain.Account

	err := l.store.WithinTx(ctx, func(tx store.Store) error {
		account, err := l.getActive(ctx, tx, accountID, "update bill cycle")
		if err != nil {
			return err
		}
		account.BillCycleDay = newDay
		account.UpdatedAt = time.Now().UTC()
		if err := tx.Accounts().Save(ctx, account); err != nil {
			return domain.NewDomainError("update bill cycle", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		l.logger.Error("bill cycle update failed", "account_id", accountID, "error", err)
		return nil, err
	}

	l.logger.Info("bill cycle updated", "account_id", accountID, "bill_cycle_day", newDay)
	return updated, nil
}

// Terminate transitions the account to the target status. Terminating an
// already TERMINATED account fails with ErrForbiddenOperation; the transition
// is irreversible.
func (l *Ledger) Terminate(ctx context.Context, accountID uuid.UUID, targetStatus domain.AccountStatus) (*domain.UpdateAccountStatusEvent, error) {
	var event domain.UpdateAccountStatusEvent

	err := l.store.WithinTx(ctx, func(tx store.Store) error {
		account, err := tx.Accounts().Get(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return err
			}
			return domain.NewDomainError("terminate account", err)
		}
		if account.IsTerminated() {
			return domain.ErrForbiddenOperation
		}

		now := time.Now().UTC()
		account.Status = targetStatus
		account.UpdatedAt = now
		if err := tx.Accounts().Save(ctx, account); err != nil {
			return domain.NewDomainError("terminate account", err)
		}

		event = domain.UpdateAccountStatusEvent{
			AccountID:     account.ID,
			UpdatedStatus: account.Status,
			UpdatedAt:     now,
		}
		return nil
	})
	if err != nil {
		l.logger.Error("account status update failed", "account_id", accountID, "error", err)
		return nil, err
	}

	l.logger.Info("account status updated", "account_id", accountID, "status", targetStatus)
	l.publishStatusChange(ctx, event)
	return &event, nil
}

// FindByID returns the account with the given id. A TERMINATED account is
// reported as not found.
func (l *Ledger) FindByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := l.store.Accounts().Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, domain.NewDomainError("find account", err)
	}
	if account.IsTerminated() {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// getActive loads an account inside the transaction and applies the
// termination-is-absence rule.
func (l *Ledger) getActive(ctx context.Context, tx store.Store, accountID uuid.UUID, op string) (*domain.Account, error) {
	account, err := tx.Accounts().Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, domain.NewDomainError(op, err)
	}
	if account.IsTerminated() {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (l *Ledger) publishTransaction(ctx context.Context, event domain.TransactionDetailsEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishTransactionEvent(ctx, event); err != nil {
		l.logger.Warn("transaction event publish failed", "account_id", event.AccountID, "error", err)
	}
}

func (l *Ledger) publishStatusChange(ctx context.Context, event domain.UpdateAccountStatusEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishAccountStatusEvent(ctx, event); err != nil {
		l.logger.Warn("account status event publish failed", "account_id", event.AccountID, "error", err)
	}
}
