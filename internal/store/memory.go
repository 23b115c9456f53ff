package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory EventStore. It backs tests and DB-less runs
// with the same ordering and pagination semantics as the gorm store.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string][]Event // campaignID -> events in insertion order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]Event),
		now:    time.Now,
	}
}

// SetClock overrides the store clock so tests can control createdAt.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Create(_ context.Context, p CreateParams) (Event, error) {
	if err := p.validate(); err != nil {
		return Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := Event{
		ID:          uuid.NewString(),
		CampaignID:  p.CampaignID,
		CharacterID: p.CharacterID,
		Type:        p.Type,
		Result:      *p.Result,
		Formula:     p.Formula,
		CreatedAt:   s.now().UTC(),
	}
	s.events[p.CampaignID] = append(s.events[p.CampaignID], ev)
	return ev, nil
}

func (s *MemoryStore) Page(_ context.Context, campaignID string, offset, pageSize int) ([]Event, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.events[campaignID]
	desc := make([]Event, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		desc = append(desc, all[i])
	}
	// Stable over reversed insertion order so equal timestamps still come
	// back newest insert first.
	sort.SliceStable(desc, func(i, j int) bool {
		return desc[i].CreatedAt.After(desc[j].CreatedAt)
	})

	if offset >= len(desc) {
		return []Event{}, nil
	}
	end := offset + pageSize
	if end > len(desc) {
		end = len(desc)
	}
	page := make([]Event, end-offset)
	copy(page, desc[offset:end])
	return page, nil
}

func (s *MemoryStore) DeleteCampaign(_ context.Context, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, campaignID)
	return nil
}
