/**
 * @description
 * Result records returned by ledger and billing operations. The same structs
 * are published to RabbitMQ after a successful commit so that downstream
 * consumers (notifications, analytics) see exactly what the caller saw.
 *
 * @dependencies
 * - github.com/google/uuid: account and bill identifiers.
 * - github.com/shopspring/decimal: exact monetary values.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDetailsEvent captures one balance mutation on an account: the
// balance observed before the transaction, the amount applied, and the
// resulting balance.
type TransactionDetailsEvent struct {
	AccountID         uuid.UUID       `json:"account_id"`
	TransactionType   TransactionType `json:"transaction_type"`
	PreviousBalance   decimal.Decimal `json:"previous_balance"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	TransactionDate   time.Time       `json:"transaction_date"`
}

// UpdateAccountStatusEvent captures a lifecycle transition on an account.
type UpdateAccountStatusEvent struct {
	AccountID     uuid.UUID     `json:"account_id"`
	UpdatedStatus AccountStatus `json:"updated_status"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateBillEvent captures one bill issuance: the account balance before the
// bill, the raw bill amount, and the balance after the bill was applied.
type CreateBillEvent struct {
	AccountID          uuid.UUID       `json:"account_id"`
	CurrentBalance     decimal.Decimal `json:"current_balance"` // balance before the bill
	BillAmount         decimal.Decimal `json:"bill_amount"`
	NewBalance         decimal.Decimal `json:"new_balance"`
	BillGenerationDate time.Time       `json:"bill_generation_date"`
}
