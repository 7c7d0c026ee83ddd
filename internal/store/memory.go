/**
 * @description
 * In-memory implementation of the Store interface. It backs the test suites
 * and demonstrates that the filter clause evaluation is independent of the
 * storage engine.
 *
 * Transactions run under the store mutex against a staged copy of the data
 * that only replaces the live data when the transaction function succeeds, so
 * a failing transaction leaves nothing behind. Holding the mutex for the
 * whole read-modify-write serializes concurrent operations on the same
 * account.
 */

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cbm/billing-service/internal/domain"
)

// MemoryStore is a thread-safe, map-backed Store.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
}

type memoryData struct {
	accounts  map[uuid.UUID]domain.Account
	bills     map[uuid.UUID]domain.Bill
	summaries map[uuid.UUID]domain.BillSummary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

func newMemoryData() *memoryData {
	return &memoryData{
		accounts:  make(map[uuid.UUID]domain.Account),
		bills:     make(map[uuid.UUID]domain.Bill),
		summaries: make(map[uuid.UUID]domain.BillSummary),
	}
}

func (d *memoryData) clone() *memoryData {
	staged := newMemoryData()
	for id, account := range d.accounts {
		staged.accounts[id] = account
	}
	for id, bill := range d.bills {
		staged.bills[id] = bill
	}
	for id, summary := range d.summaries {
		staged.summaries[id] = summary
	}
	return staged
}

func (s *MemoryStore) Accounts() AccountStore { return &memoryAccounts{store: s} }

func (s *MemoryStore) Bills() BillStore { return &memoryBills{store: s} }

func (s *MemoryStore) BillSummaries() BillSummaryStore { return &memorySummaries{store: s} }

// WithinTx stages a copy of the data, runs fn against it, and promotes the
// staged copy only when fn succeeds.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	if err := fn(&memoryTx{data: staged}); err != nil {
		return err
	}
	s.data = staged
	return nil
}

// memoryTx is a transaction-bound view over staged data. The store mutex is
// already held for its whole lifetime.
type memoryTx struct {
	data *memoryData
}

func (t *memoryTx) Accounts() AccountStore { return &memoryAccounts{data: t.data} }

func (t *memoryTx) Bills() BillStore { return &memoryBills{data: t.data} }

func (t *memoryTx) BillSummaries() BillSummaryStore { return &memorySummaries{data: t.data} }

func (t *memoryTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

// memoryAccounts operates on either the live store (locking per call) or a
// transaction's staged data.
type memoryAccounts struct {
	store *MemoryStore
	data  *memoryData
}

func (m *memoryAccounts) with(fn func(d *memoryData) error) error {
	if m.store != nil {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
		return fn(m.store.data)
	}
	return fn(m.data)
}

func (m *memoryAccounts) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var found *domain.Account
	err := m.with(func(d *memoryData) error {
		account, ok := d.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		copied := account
		found = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (m *memoryAccounts) Save(ctx context.Context, account *domain.Account) error {
	return m.with(func(d *memoryData) error {
		d.accounts[account.ID] = *account
		return nil
	})
}

func (m *memoryAccounts) Search(ctx context.Context, filter AccountFilter, page, size int, sortField SortField) ([]domain.Account, int64, error) {
	var matched []domain.Account
	err := m.with(func(d *memoryData) error {
		for _, account := range d.accounts {
			if filter.Matches(&account) {
				matched = append(matched, account)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return sortField.Less(&matched[i], &matched[j])
	})

	total := int64(len(matched))
	offset := page * size
	if offset >= len(matched) {
		return []domain.Account{}, total, nil
	}
	end := offset + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type memoryBills struct {
	store *MemoryStore
	data  *memoryData
}

func (m *memoryBills) Save(ctx context.Context, bill *domain.Bill) error {
	if m.store != nil {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
		m.store.data.bills[bill.ID] = *bill
		return nil
	}
	m.data.bills[bill.ID] = *bill
	return nil
}

type memorySummaries struct {
	store *MemoryStore
	data  *memoryData
}

func (m *memorySummaries) Save(ctx context.Context, summary *domain.BillSummary) error {
	if m.store != nil {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
		m.store.data.summaries[summary.ID] = *summary
		return nil
	}
	m.data.summaries[summary.ID] = *summary
	return nil
}

// BillByID returns a stored bill, for inspection in tests.
func (s *MemoryStore) BillByID(id uuid.UUID) (domain.Bill, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.data.bills[id]
	return bill, ok
}

// BillSummaryByID returns a stored bill summary, for inspection in tests.
func (s *MemoryStore) BillSummaryByID(id uuid.UUID) (domain.BillSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.data.summaries[id]
	return summary, ok
}

// BillsFor returns every stored bill for the account, for inspection in
// tests.
func (s *MemoryStore) BillsFor(accountID uuid.UUID) []domain.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bills []domain.Bill
	for _, bill := range s.data.bills {
		if bill.AccountID == accountID {
			bills = append(bills, bill)
		}
	}
	return bills
}

// BillCount reports the number of stored bills.
func (s *MemoryStore) BillCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.bills)
}
