/**
 * @description
 * Paginated, filtered account search. Filters are combined with logical AND;
 * absent filters impose no constraint. Results are ordered ascending by name
 * unless the caller selects another supported sort field.
 */

package app

import (
	"context"
	"log/slog"

	"github.com/cbm/billing-service/internal/domain"
	"github.com/cbm/billing-service/internal/store"
)

const (
	defaultPage = 0
	defaultSize = 10
)

// SearchResult is one page of matching accounts. Total counts every matching
// row, not just the rows on this page.
type SearchResult struct {
	Accounts []domain.Account `json:"accounts"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
}

// Query executes account searches.
type Query struct {
	store  store.Store
	logger *slog.Logger
}

// NewQuery creates a new account query service.
func NewQuery(st store.Store, logger *slog.Logger) *Query {
	return &Query{store: st, logger: logger}
}

// Search returns the page of accounts matching the filter. Pages are
// zero-based; non-positive page or size values fall back to the defaults.
// Unknown sort fields fall back to sorting by name.
func (q *Query) Search(ctx context.Context, page, size int, sortField string, filter store.AccountFilter) (*SearchResult, error) {
	if page < 0 {
		page = defaultPage
	}
	if size <= 0 {
		size = defaultSize
	}

	accounts, total, err := q.store.Accounts().Search(ctx, filter, page, size, store.ParseSortField(sortField))
	if err != nil {
		q.logger.Error("account search failed", "error", err)
		return nil, domain.NewDomainError("search accounts", err)
	}

	return &SearchResult{
		Accounts: accounts,
		Total:    total,
		Page:     page,
		Size:     size,
	}, nil
}
