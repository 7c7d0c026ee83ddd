package app

import (
	"context"
	"testing"

	"github.com/cbm/billing-service/internal/domain"
	"github.com/cbm/billing-service/internal/store"
)

func seedSearchAccounts(t *testing.T, ledger *Ledger) {
	t.Helper()
	mustCreate(t, ledger, "zeta services", 10, 5, domain.AccountStatusActive)
	mustCreate(t, ledger, "acme industrial", 20, 28, domain.AccountStatusActive)
	mustCreate(t, ledger, "acme labs", 30, 15, domain.AccountStatusTerminated)
	mustCreate(t, ledger, "midway freight", 40, 15, domain.AccountStatusActive)
}

func names(accounts []domain.Account) []string {
	out := make([]string, len(accounts))
	for i, account := range accounts {
		out[i] = account.Name
	}
	return out
}

func assertNames(t *testing.T, got []domain.Account, want ...string) {
	t.Helper()
	gotNames := names(got)
	if len(gotNames) != len(want) {
		t.Fatalf("expected %d accounts %v, got %v", len(want), want, gotNames)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Fatalf("expected accounts %v, got %v", want, gotNames)
		}
	}
}

func TestQuery_SearchDefaultsToNameOrder(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	result, err := query.Search(context.Background(), 0, 10, "", store.AccountFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	assertNames(t, result.Accounts, "acme industrial", "acme labs", "midway freight", "zeta services")
	if result.Total != 4 {
		t.Fatalf("expected total 4, got %d", result.Total)
	}
}

func TestQuery_SearchPaginates(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	result, err := query.Search(context.Background(), 1, 2, "", store.AccountFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	assertNames(t, result.Accounts, "midway freight", "zeta services")
	if result.Total != 4 {
		t.Fatalf("expected total to count all matches, got %d", result.Total)
	}
	if result.Page != 1 || result.Size != 2 {
		t.Fatalf("expected page 1 size 2 echoed back, got page %d size %d", result.Page, result.Size)
	}
}

func TestQuery_SearchAppliesDefaultsForInvalidPaging(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	result, err := query.Search(context.Background(), -3, 0, "", store.AccountFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Page != 0 || result.Size != 10 {
		t.Fatalf("expected defaults page 0 size 10, got page %d size %d", result.Page, result.Size)
	}
	if len(result.Accounts) != 4 {
		t.Fatalf("expected all 4 accounts, got %d", len(result.Accounts))
	}
}

func TestQuery_SearchCombinesFiltersWithAnd(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	active := domain.AccountStatusActive
	result, err := query.Search(context.Background(), 0, 10, "", store.AccountFilter{
		Name:   "acme",
		Status: &active,
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	assertNames(t, result.Accounts, "acme industrial")
	if result.Total != 1 {
		t.Fatalf("expected total 1, got %d", result.Total)
	}
}

func TestQuery_SearchByStatus(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	terminated := domain.AccountStatusTerminated
	result, err := query.Search(context.Background(), 0, 10, "", store.AccountFilter{Status: &terminated})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	assertNames(t, result.Accounts, "acme labs")
}

func TestQuery_SearchSortsByRequestedField(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	result, err := query.Search(context.Background(), 0, 10, "bill_cycle_day", store.AccountFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	assertNames(t, result.Accounts, "zeta services", "acme labs", "midway freight", "acme industrial")
}

func TestQuery_SearchUnknownSortFallsBackToName(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	query := NewQuery(st, discardLogger())
	seedSearchAccounts(t, ledger)

	result, err := query.Search(context.Background(), 0, 10, "current_balance", store.AccountFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	assertNames(t, result.Accounts, "acme industrial", "acme labs", "midway freight", "zeta services")
}
