/**
 * @description
 * This file defines the storage ports for the billing service. By defining
 * interfaces, we decouple the ledger and billing logic from the specific
 * database implementation (PostgreSQL, in-memory), making the code more
 * modular and easier to test.
 *
 * The `Store` interface is the transactional boundary: `WithinTx` runs the
 * given function against a transaction-scoped view of all three stores, and
 * either every write inside it becomes visible or none do. Account reads
 * inside a transaction lock the row, so a precondition check and the update
 * that follows it always observe one consistent snapshot.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: Account and bill identifiers.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/cbm/billing-service/internal/domain"
)

// AccountStore defines the set of methods for persisting and querying
// accounts. Get returns domain.ErrAccountNotFound when no row exists for the
// given id; termination semantics are applied by the caller.
type AccountStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Save(ctx context.Context, account *domain.Account) error
	Search(ctx context.Context, filter AccountFilter, page, size int, sort SortField) ([]domain.Account, int64, error)
}

// BillStore persists issued bills.
type BillStore interface {
	Save(ctx context.Context, bill *domain.Bill) error
}

// BillSummaryStore persists the denormalized bill summary projection.
type BillSummaryStore interface {
	Save(ctx context.Context, summary *domain.BillSummary) error
}

// Store groups the three stores behind a single transactional scope.
type Store interface {
	Accounts() AccountStore
	Bills() BillStore
	BillSummaries() BillSummaryStore

	// WithinTx executes fn against a transaction-bound Store. If fn returns
	// an error the transaction is rolled back and the error is returned
	// unchanged; otherwise the transaction is committed. Calling WithinTx on
	// an already transaction-bound Store runs fn in the same transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
