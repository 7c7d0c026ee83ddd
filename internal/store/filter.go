/**
 * @description
 * Dynamic account search filtering. An AccountFilter accumulates typed filter
 * clauses that are combined with logical AND; absent filters impose no
 * constraint. The clause list is independent of any storage engine: the
 * in-memory store evaluates clauses directly against accounts, while the
 * PostgreSQL store compiles them into a WHERE clause.
 */

package store

import (
	"strings"
	"time"

	"github.com/cbm/billing-service/internal/domain"
)

// Field names an account attribute a clause applies to.
type Field string

const (
	FieldName         Field = "name"
	FieldStatus       Field = "status"
	FieldBillCycleDay Field = "bill_cycle_day"
	FieldLastBillDate Field = "last_bill_date"
)

// Op is the comparison a clause performs.
type Op string

const (
	OpEquals   Op = "="
	OpContains Op = "contains"
)

// Clause is one typed filter predicate over an account attribute.
type Clause struct {
	Field Field
	Op    Op
	Value any
}

// AccountFilter holds the optional search criteria for accounts. A nil or
// zero field contributes no clause.
type AccountFilter struct {
	Name         string
	Status       *domain.AccountStatus
	BillCycleDay *int
	LastBillDate *time.Time
}

// Clauses expands the filter into its list of AND-combined clauses.
func (f AccountFilter) Clauses() []Clause {
	var clauses []Clause
	if f.Name != "" {
		clauses = append(clauses, Clause{Field: FieldName, Op: OpContains, Value: f.Name})
	}
	if f.Status != nil {
		clauses = append(clauses, Clause{Field: FieldStatus, Op: OpEquals, Value: *f.Status})
	}
	if f.BillCycleDay != nil {
		clauses = append(clauses, Clause{Field: FieldBillCycleDay, Op: OpEquals, Value: *f.BillCycleDay})
	}
	if f.LastBillDate != nil {
		clauses = append(clauses, Clause{Field: FieldLastBillDate, Op: OpEquals, Value: *f.LastBillDate})
	}
	return clauses
}

// Matches reports whether the account satisfies every clause of the filter.
func (f AccountFilter) Matches(account *domain.Account) bool {
	for _, clause := range f.Clauses() {
		if !clause.matches(account) {
			return false
		}
	}
	return true
}

func (c Clause) matches(account *domain.Account) bool {
	switch c.Field {
	case FieldName:
		return strings.Contains(account.Name, c.Value.(string))
	case FieldStatus:
		return account.Status == c.Value.(domain.AccountStatus)
	case FieldBillCycleDay:
		return account.BillCycleDay == c.Value.(int)
	case FieldLastBillDate:
		if account.LastBillDate == nil {
			return false
		}
		return sameDate(*account.LastBillDate, c.Value.(time.Time))
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SortField selects the attribute search results are ordered by, always
// ascending. The default is name.
type SortField string

const (
	SortByName         SortField = "name"
	SortByBillCycleDay SortField = "bill_cycle_day"
	SortByLastBillDate SortField = "last_bill_date"
)

// ParseSortField maps a caller-supplied sort field to a supported SortField.
// Unknown or empty values fall back to sorting by name.
func ParseSortField(raw string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case SortByBillCycleDay:
		return SortByBillCycleDay
	case SortByLastBillDate:
		return SortByLastBillDate
	default:
		return SortByName
	}
}

// Less orders two accounts by the sort field, ascending. Accounts without a
// last bill date sort after those with one.
func (s SortField) Less(a, b *domain.Account) bool {
	switch s {
	case SortByBillCycleDay:
		if a.BillCycleDay != b.BillCycleDay {
			return a.BillCycleDay < b.BillCycleDay
		}
	case SortByLastBillDate:
		switch {
		case a.LastBillDate == nil && b.LastBillDate == nil:
		case a.LastBillDate == nil:
			return false
		case b.LastBillDate == nil:
			return true
		case !a.LastBillDate.Equal(*b.LastBillDate):
			return a.LastBillDate.Before(*b.LastBillDate)
		}
	}
	return a.Name < b.Name
}
