/**
 * @description
 * This file defines the core domain models for billing accounts. An account
 * carries a running balance, the day of month its bills are generated, and a
 * lifecycle status. Monetary values use shopspring/decimal so that balance
 * arithmetic is exact; floating point is never used for money.
 *
 * @notes
 * - A TERMINATED account accepts no further state-mutating operation. Every
 *   read or mutation except termination itself treats a TERMINATED account
 *   as if it did not exist.
 * - Timestamps are set explicitly by the write path before saving; there are
 *   no implicit persistence lifecycle hooks.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of a billing account.
type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "ACTIVE"
	AccountStatusTerminated AccountStatus = "TERMINATED"
)

// Account represents a customer billing account. This struct maps directly to
// the `billing_accounts` table in the database.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	BillCycleDay   int             `json:"bill_cycle_day"` // day of month (1-31) bills are generated
	LastBillDate   *time.Time      `json:"last_bill_date,omitempty"`
	Status         AccountStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsTerminated reports whether the account has been irreversibly terminated.
func (a *Account) IsTerminated() bool {
	return a.Status == AccountStatusTerminated
}

// TransactionType identifies the kind of balance mutation performed on an
// account.
type TransactionType string

const (
	TransactionTypeCharge     TransactionType = "CHARGE"
	TransactionTypeCredit     TransactionType = "CREDIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)
