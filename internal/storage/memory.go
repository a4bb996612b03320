package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/motovlabs/vastserve/internal/models"
)

// =============================================
// IN-MEMORY AD REPO
// =============================================

// InMemoryAdRepo provides in-memory storage for the ad catalog. Used in
// development and tests when no database is configured.
type InMemoryAdRepo struct {
	mu  sync.RWMutex
	ads map[string]*models.Ad
}

// NewInMemoryAdRepo creates an empty in-memory ad repo.
func NewInMemoryAdRepo() *InMemoryAdRepo {
	return &InMemoryAdRepo{ads: make(map[string]*models.Ad)}
}

func (r *InMemoryAdRepo) ListAll(ctx context.Context) ([]*models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Ad, 0, len(r.ads))
	for _, ad := range r.ads {
		if ad.Status != models.AdStatusDeleted {
			result = append(result, ad)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *InMemoryAdRepo) ListActive(ctx context.Context) ([]*models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Ad, 0)
	for _, ad := range r.ads {
		if ad.IsServable() {
			result = append(result, ad)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *InMemoryAdRepo) GetByID(ctx context.Context, id string) (*models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ad, ok := r.ads[id]
	if !ok || ad.Status == models.AdStatusDeleted {
		return nil, nil
	}
	return ad, nil
}

func (r *InMemoryAdRepo) Upsert(ctx context.Context, ad *models.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.ads[ad.ID]; ok {
		ad.CreatedAt = existing.CreatedAt
	} else if ad.CreatedAt.IsZero() {
		ad.CreatedAt = now
	}
	ad.UpdatedAt = now
	r.ads[ad.ID] = ad
	return nil
}

func (r *InMemoryAdRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ad, ok := r.ads[id]; ok {
		ad.Status = models.AdStatusDeleted
		ad.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// =============================================
// IN-MEMORY EVENT STORE
// =============================================

// InMemoryEventStore provides in-memory storage for beacon events.
type InMemoryEventStore struct {
	mu       sync.RWMutex
	events   map[string]*models.Event
	requests []*models.AdRequest

	// Index: ad_id -> []event_id
	eventsByAd map[string][]string
}

// NewInMemoryEventStore creates a new in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events:     make(map[string]*models.Event),
		eventsByAd: make(map[string][]string),
	}
}

func (s *InMemoryEventStore) SaveEvent(ctx context.Context, ev *models.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	s.events[ev.ID] = ev
	if ev.AdID != "" {
		s.eventsByAd[ev.AdID] = append(s.eventsByAd[ev.AdID], ev.ID)
	}
	return ev.ID, nil
}

func (s *InMemoryEventStore) SaveAdRequest(ctx context.Context, req *models.AdRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	s.requests = append(s.requests, req)
	return nil
}

func (s *InMemoryEventStore) GetEventsByAd(ctx context.Context, adID string, since time.Time) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.eventsByAd[adID]
	result := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		ev := s.events[id]
		if ev != nil && (since.IsZero() || ev.Timestamp.After(since)) {
			result = append(result, ev)
		}
	}
	return result, nil
}

func (s *InMemoryEventStore) CountByAdAndType(ctx context.Context, adID, event string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, id := range s.eventsByAd[adID] {
		if ev := s.events[id]; ev != nil && (event == "" || ev.Event == event) {
			count++
		}
	}
	return count, nil
}
