package ads

import (
	"context"
	"fmt"
	"time"

	"github.com/motovlabs/vastserve/internal/geo"
	"github.com/motovlabs/vastserve/internal/metrics"
	"github.com/motovlabs/vastserve/internal/models"
	"github.com/motovlabs/vastserve/internal/storage"
	"github.com/motovlabs/vastserve/internal/vast"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statsTTL = 90 * 24 * time.Hour

// EventService records tracking beacons and answers stats queries.
type EventService struct {
	store   storage.EventStore
	sink    storage.EventSink
	redis   *redis.Client
	geo     geo.Provider
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewEventService constructs an EventService. sink, redis and geo are
// all optional.
func NewEventService(store storage.EventStore, sink storage.EventSink, rdb *redis.Client, geoProvider geo.Provider, logger *zap.Logger, m *metrics.Metrics) *EventService {
	return &EventService{
		store:   store,
		sink:    sink,
		redis:   rdb,
		geo:     geoProvider,
		logger:  logger,
		metrics: m,
	}
}

// Record enriches and persists one tracking event, returning the
// server-assigned event ID. Only the primary store write can fail the
// call; the analytics sink and counters are best effort.
func (s *EventService) Record(ctx context.Context, ev *models.Event) (string, error) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.enrichGeo(ev)

	id, err := s.store.SaveEvent(ctx, ev)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageFailure("events")
		}
		return "", fmt.Errorf("failed to save event: %w", err)
	}
	ev.ID = id

	if s.sink != nil {
		s.sink.Enqueue(ev)
	}
	s.incrCounters(ev)
	if s.metrics != nil {
		s.metrics.RecordEvent(ev.Event)
	}
	return id, nil
}

func (s *EventService) enrichGeo(ev *models.Event) {
	if s.geo == nil || ev.IP == "" {
		return
	}
	info, err := s.geo.Lookup(ev.IP)
	if err != nil {
		s.logger.Debug("geo lookup failed", zap.String("ip", ev.IP), zap.Error(err))
		return
	}
	ev.GeoCountry = info.CountryCode
	ev.GeoCity = info.City
}

func (s *EventService) incrCounters(ev *models.Event) {
	if s.redis == nil || ev.AdID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := statsKey(ev.AdID, ev.Event)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, statsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Debug("failed to increment event counter", zap.String("key", key), zap.Error(err))
	}
}

func statsKey(adID, event string) string {
	return fmt.Sprintf("stats:%s:%s", adID, event)
}

// Stats aggregates per-event counts for an ad. Redis counters are
// preferred; the event store is the fallback when Redis is absent or a
// counter is missing.
func (s *EventService) Stats(ctx context.Context, adID string) (*models.AdStats, error) {
	stats := &models.AdStats{
		AdID:    adID,
		ByEvent: make(map[string]int64),
	}

	events := []vast.EventType{
		vast.EventImpression,
		vast.EventStart,
		vast.EventFirstQuartile,
		vast.EventMidpoint,
		vast.EventThirdQuartile,
		vast.EventComplete,
		vast.EventClick,
	}

	for _, ev := range events {
		count, err := s.countFor(ctx, adID, string(ev))
		if err != nil {
			return nil, err
		}
		if count > 0 {
			stats.ByEvent[string(ev)] = count
		}
	}

	stats.Impressions = stats.ByEvent[string(vast.EventImpression)]
	stats.Starts = stats.ByEvent[string(vast.EventStart)]
	stats.Completes = stats.ByEvent[string(vast.EventComplete)]
	stats.Clicks = stats.ByEvent[string(vast.EventClick)]
	return stats, nil
}

func (s *EventService) countFor(ctx context.Context, adID, event string) (int64, error) {
	if s.redis != nil {
		count, err := s.redis.Get(ctx, statsKey(adID, event)).Int64()
		if err == nil {
			return count, nil
		}
		if err != redis.Nil {
			s.logger.Debug("failed to read event counter", zap.Error(err))
		}
	}
	count, err := s.store.CountByAdAndType(ctx, adID, event)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
