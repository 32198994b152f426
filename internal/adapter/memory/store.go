// Package memory provides an in-process implementation of the domain
// repositories, used by tests and local tooling.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"yardcraft/internal/domain"
)

// Store keeps accounts, ledgers, redesigns and webhook events in maps.
type Store struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	ledgers   map[string]domain.LedgerEntry
	redesigns map[string]domain.RedesignRecord
	events    map[string]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]domain.Account),
		ledgers:   make(map[string]domain.LedgerEntry),
		redesigns: make(map[string]domain.RedesignRecord),
		events:    make(map[string]struct{}),
	}
}

func (s *Store) UpsertAccount(ctx context.Context, acc domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[acc.ID]; ok {
		if acc.Email != "" {
			existing.Email = acc.Email
		}
		s.accounts[acc.ID] = existing
		return nil
	}
	if acc.Plan == "" {
		acc.Plan = domain.PlanFree
	}
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &acc, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.Email, email) {
			found := acc
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) SetAccountPlan(ctx context.Context, id string, plan domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	acc.Plan = plan
	s.accounts[id] = acc
	return nil
}

func (s *Store) GetLedger(ctx context.Context, accountID string) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.ledgers[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (s *Store) SaveLedger(ctx context.Context, entry *domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *entry
	saved.UpdatedAt = time.Now()
	s.ledgers[entry.AccountID] = saved
	return nil
}

func (s *Store) IncrementUsage(ctx context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.ledgers[accountID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	entry.Used++
	entry.UpdatedAt = time.Now()
	s.ledgers[accountID] = entry
	return entry.Used, nil
}

func (s *Store) CreateRedesign(ctx context.Context, rec *domain.RedesignRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *rec
	saved.Catalog = saved.Catalog.Normalized()
	s.redesigns[rec.ID] = saved
	return nil
}

func (s *Store) GetRedesign(ctx context.Context, accountID, id string) (*domain.RedesignRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.redesigns[id]
	if !ok || rec.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (s *Store) ListRedesigns(ctx context.Context, accountID string, limit, offset int) ([]domain.RedesignRecord, error) {
	s.mu.Lock()
	items := []domain.RedesignRecord{}
	for _, rec := range s.redesigns {
		if rec.AccountID == accountID {
			items = append(items, rec)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsPinned != items[j].IsPinned {
			return items[i].IsPinned
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []domain.RedesignRecord{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) SetPinned(ctx context.Context, accountID, id string, pinned bool) (*domain.RedesignRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.redesigns[id]
	if !ok || rec.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	rec.IsPinned = pinned
	s.redesigns[id] = rec
	return &rec, nil
}

func (s *Store) DeleteRedesign(ctx context.Context, accountID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.redesigns[id]
	if !ok || rec.AccountID != accountID {
		return domain.ErrNotFound
	}
	delete(s.redesigns, id)
	return nil
}

func (s *Store) MarkProcessed(ctx context.Context, eventID, eventType string, receivedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; ok {
		return false, nil
	}
	s.events[eventID] = struct{}{}
	return true, nil
}

func (s *Store) UnmarkProcessed(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	return nil
}

// RedesignCount returns how many records exist for accountID.
func (s *Store) RedesignCount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.redesigns {
		if rec.AccountID == accountID {
			n++
		}
	}
	return n
}

var (
	_ domain.AccountRepository      = (*Store)(nil)
	_ domain.LedgerRepository       = (*Store)(nil)
	_ domain.RedesignRepository     = (*Store)(nil)
	_ domain.WebhookEventRepository = (*Store)(nil)
)
