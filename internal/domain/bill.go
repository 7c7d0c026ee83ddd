/**
 * @description
 * Domain models for bills and the denormalized bill summary projection.
 *
 * A bill belongs to exactly one account. The bill summary shares the bill's
 * identity and mirrors its status at creation time; it is written exactly once
 * per bill and never independently mutated by this service.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus is the settlement state of an issued bill.
type BillStatus string

const (
	BillStatusNotSettled BillStatus = "NOT_SETTLED"
	BillStatusSettled    BillStatus = "SETTLED"
)

// Bill represents one issued bill against an account. This struct maps
// directly to the `bills` table in the database.
type Bill struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	GenerationDate time.Time       `json:"generation_date"` // set at creation, immutable
	Status         BillStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BillSummary is the read-optimized projection of a bill. Its ID is the ID of
// the bill it mirrors.
type BillSummary struct {
	ID     uuid.UUID  `json:"id"`
	Status BillStatus `json:"status"`
}
