package storage

import (
	"context"
	"time"

	"github.com/motovlabs/vastserve/internal/models"
)

// =============================================
// AD CATALOG REPOSITORY
// =============================================

// AdRepo defines operations for ad catalog storage.
type AdRepo interface {
	ListAll(ctx context.Context) ([]*models.Ad, error)
	ListActive(ctx context.Context) ([]*models.Ad, error)
	GetByID(ctx context.Context, id string) (*models.Ad, error)
	Upsert(ctx context.Context, ad *models.Ad) error
	Delete(ctx context.Context, id string) error
}

// =============================================
// EVENT STORE
// =============================================

// EventStore persists beacon events and ad-request logs. SaveEvent
// returns the server-assigned record id.
type EventStore interface {
	SaveEvent(ctx context.Context, ev *models.Event) (string, error)
	SaveAdRequest(ctx context.Context, req *models.AdRequest) error

	GetEventsByAd(ctx context.Context, adID string, since time.Time) ([]*models.Event, error)
	CountByAdAndType(ctx context.Context, adID, event string) (int64, error)
}

// EventSink receives a copy of every stored event for analytics.
// Implementations must never block the request path.
type EventSink interface {
	Enqueue(ev *models.Event)
	Close() error
}
