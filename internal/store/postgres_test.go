package store

import (
	"testing"
	"time"

	"github.com/cbm/billing-service/internal/domain"
)

func TestBuildAccountWhere_Empty(t *testing.T) {
	where, args := buildAccountWhere(nil)
	if where != "" {
		t.Fatalf("expected empty where fragment, got %q", where)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestBuildAccountWhere_CompilesClauses(t *testing.T) {
	status := domain.AccountStatusActive
	day := 15
	lastBill := time.Date(2026, time.August, 15, 10, 30, 0, 0, time.UTC)
	filter := AccountFilter{
		Name:         "acme",
		Status:       &status,
		BillCycleDay: &day,
		LastBillDate: &lastBill,
	}

	where, args := buildAccountWhere(filter.Clauses())

	want := " WHERE name LIKE '%' || $1 || '%' AND status = $2 AND bill_cycle_day = $3 AND last_bill_date = $4"
	if where != want {
		t.Fatalf("unexpected where fragment:\nwant %q\ngot  %q", want, where)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if args[0] != "acme" {
		t.Fatalf("expected name arg, got %v", args[0])
	}
	if args[1] != "ACTIVE" {
		t.Fatalf("expected status to be passed as its string value, got %v", args[1])
	}
	if args[2] != 15 {
		t.Fatalf("expected bill cycle day arg, got %v", args[2])
	}
	if args[3] != "2026-08-15" {
		t.Fatalf("expected last bill date to compare on the date alone, got %v", args[3])
	}
}

func TestBuildAccountWhere_SingleClause(t *testing.T) {
	status := domain.AccountStatusTerminated
	where, args := buildAccountWhere(AccountFilter{Status: &status}.Clauses())

	if where != " WHERE status = $1" {
		t.Fatalf("unexpected where fragment %q", where)
	}
	if len(args) != 1 || args[0] != "TERMINATED" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestSortColumn_Whitelist(t *testing.T) {
	tests := []struct {
		sort SortField
		want string
	}{
		{sort: SortByName, want: "name"},
		{sort: SortByBillCycleDay, want: "bill_cycle_day"},
		{sort: SortByLastBillDate, want: "last_bill_date"},
		{sort: SortField("balance; DROP TABLE bills"), want: "name"},
	}

	for _, tt := range tests {
		if got := sortColumn(tt.sort); got != tt.want {
			t.Fatalf("sortColumn(%q): expected %q, got %q", tt.sort, tt.want, got)
		}
	}
}
