package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cbm/billing-service/internal/domain"
	"github.com/cbm/billing-service/internal/store"
)

// failingSummaryStore wraps a real store and fails every bill summary write.
type failingSummaryStore struct {
	store.Store
}

func (f failingSummaryStore) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx store.Store) error {
		return fn(failingSummaryStore{Store: tx})
	})
}

func (f failingSummaryStore) BillSummaries() store.BillSummaryStore {
	return failingSummaries{}
}

type failingSummaries struct{}

func (failingSummaries) Save(ctx context.Context, summary *domain.BillSummary) error {
	return errors.New("summary write failed")
}

func TestBillIssuer_CreateBill(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	issuer := NewBillIssuer(st, nil, discardLogger())
	account := mustCreate(t, ledger, "billed", 100, 15, domain.AccountStatusActive)

	record, err := issuer.CreateBill(context.Background(), account.ID, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("create bill failed: %v", err)
	}

	if !record.CurrentBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected previous balance 100 on record, got %s", record.CurrentBalance)
	}
	if !record.BillAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected bill amount 50 on record, got %s", record.BillAmount)
	}
	if !record.NewBalance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected new balance 150 on record, got %s", record.NewBalance)
	}

	stored, err := st.Accounts().Get(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if !stored.CurrentBalance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected stored balance 150, got %s", stored.CurrentBalance)
	}
	if stored.LastBillDate == nil {
		t.Fatal("expected last bill date to be set")
	}
	now := time.Now().UTC()
	wantDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !stored.LastBillDate.Equal(wantDate) {
		t.Fatalf("expected last bill date %s, got %s", wantDate, stored.LastBillDate)
	}

	if st.BillCount() != 1 {
		t.Fatalf("expected one persisted bill, got %d", st.BillCount())
	}
}

func TestBillIssuer_BillRowCarriesPostIssuanceBalance(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	issuer := NewBillIssuer(st, nil, discardLogger())
	account := mustCreate(t, ledger, "post-balance", 100, 15, domain.AccountStatusActive)

	if _, err := issuer.CreateBill(context.Background(), account.ID, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("create bill failed: %v", err)
	}

	bills := st.BillsFor(account.ID)
	if len(bills) != 1 {
		t.Fatalf("expected one persisted bill, got %d", len(bills))
	}
	bill := bills[0]

	if !bill.Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected bill amount to carry the new balance 150, got %s", bill.Amount)
	}
	if bill.Status != domain.BillStatusNotSettled {
		t.Fatalf("expected NOT_SETTLED bill, got %s", bill.Status)
	}
	if bill.AccountID != account.ID {
		t.Fatalf("expected bill account id %s, got %s", account.ID, bill.AccountID)
	}

	summary, ok := st.BillSummaryByID(bill.ID)
	if !ok {
		t.Fatal("expected a summary sharing the bill id")
	}
	if summary.Status != bill.Status {
		t.Fatalf("expected summary status %s, got %s", bill.Status, summary.Status)
	}
}

func TestBillIssuer_UnknownAccount(t *testing.T) {
	st := store.NewMemoryStore()
	issuer := NewBillIssuer(st, nil, discardLogger())

	if _, err := issuer.CreateBill(context.Background(), uuid.New(), decimal.NewFromInt(50)); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestBillIssuer_TerminatedAccount(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	issuer := NewBillIssuer(st, nil, discardLogger())
	account := mustCreate(t, ledger, "terminated", 100, 15, domain.AccountStatusTerminated)

	if _, err := issuer.CreateBill(context.Background(), account.ID, decimal.NewFromInt(50)); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if got := accountBalance(t, st, account.ID); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance untouched, got %s", got)
	}
}

func TestBillIssuer_RollsBackOnSummaryFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger := NewLedger(mem, nil, discardLogger())
	issuer := NewBillIssuer(failingSummaryStore{Store: mem}, nil, discardLogger())
	account := mustCreate(t, ledger, "rollback", 100, 15, domain.AccountStatusActive)

	_, err := issuer.CreateBill(context.Background(), account.ID, decimal.NewFromInt(50))
	if err == nil {
		t.Fatal("expected bill creation to fail")
	}

	if mem.BillCount() != 0 {
		t.Fatalf("expected no persisted bills after rollback, got %d", mem.BillCount())
	}
	stored, err := mem.Accounts().Get(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if !stored.CurrentBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance untouched after rollback, got %s", stored.CurrentBalance)
	}
	if stored.LastBillDate != nil {
		t.Fatalf("expected last bill date untouched after rollback, got %s", stored.LastBillDate)
	}
}

func TestBillIssuer_PublishesBillEvent(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil, discardLogger())
	events := &publisherStub{}
	issuer := NewBillIssuer(st, events, discardLogger())
	account := mustCreate(t, ledger, "eventful", 100, 15, domain.AccountStatusActive)

	if _, err := issuer.CreateBill(context.Background(), account.ID, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("create bill failed: %v", err)
	}

	if len(events.bills) != 1 {
		t.Fatalf("expected one bill event, got %d", len(events.bills))
	}
	event := events.bills[0]
	if !event.BillAmount.Equal(decimal.NewFromInt(50)) || !event.NewBalance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected event amounts: %+v", event)
	}
}
