// Package ads holds the serving-side services: ad selection, VAST
// generation and tracking-event recording.
package ads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/motovlabs/vastserve/internal/metrics"
	"github.com/motovlabs/vastserve/internal/models"
	"github.com/motovlabs/vastserve/internal/storage"
	"github.com/motovlabs/vastserve/internal/vast"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNoAd is returned when the catalog holds no servable ad for a
// request.
var ErrNoAd = errors.New("no servable ad available")

const adCacheTTL = 30 * time.Second

// AdService selects ads and renders VAST documents for them.
type AdService struct {
	repo     storage.AdRepo
	events   storage.EventStore
	redis    *redis.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
	adSystem string
}

// NewAdService constructs an AdService. redis may be nil, in which case
// the catalog cache is skipped.
func NewAdService(repo storage.AdRepo, events storage.EventStore, rdb *redis.Client, adSystem string, logger *zap.Logger, m *metrics.Metrics) *AdService {
	return &AdService{
		repo:     repo,
		events:   events,
		redis:    rdb,
		logger:   logger,
		metrics:  m,
		adSystem: adSystem,
	}
}

// SelectAd picks the ad to serve. An explicit adID wins; otherwise the
// first servable catalog entry is used. Real targeting would slot in
// here.
func (s *AdService) SelectAd(ctx context.Context, adID string) (*models.Ad, error) {
	if adID != "" {
		ad, err := s.getCached(ctx, adID)
		if err != nil {
			return nil, err
		}
		if ad == nil || !ad.IsServable() {
			return nil, ErrNoAd
		}
		return ad, nil
	}

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active ads: %w", err)
	}
	if s.metrics != nil {
		s.metrics.UpdateActiveAds(len(active))
	}
	if len(active) == 0 {
		return nil, ErrNoAd
	}
	return active[0], nil
}

// getCached reads an ad through the Redis cache when available.
func (s *AdService) getCached(ctx context.Context, adID string) (*models.Ad, error) {
	key := "ad:" + adID

	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var ad models.Ad
			if err := json.Unmarshal(raw, &ad); err == nil {
				return &ad, nil
			}
		}
	}

	ad, err := s.repo.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	if ad == nil {
		return nil, nil
	}

	if s.redis != nil {
		if raw, err := json.Marshal(ad); err == nil {
			if err := s.redis.Set(ctx, key, raw, adCacheTTL).Err(); err != nil {
				s.logger.Debug("failed to cache ad", zap.String("ad_id", adID), zap.Error(err))
			}
		}
	}
	return ad, nil
}

// BuildVast renders the VAST document for ad, pointing all beacons at
// trackingBaseURL.
func (s *AdService) BuildVast(ad *models.Ad, trackingBaseURL string) (string, error) {
	data := ad.AdData()
	if data.AdSystem == "" {
		data.AdSystem = s.adSystem
	}

	start := time.Now()
	doc, err := vast.Generate(vast.GenerationConfig{TrackingBaseURL: trackingBaseURL}, data)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.RecordVastBuild(time.Since(start))
	}
	return doc, nil
}

// LogRequest records the ad-request log entry. Best effort: failures
// are logged, never returned, so the XML response is never held up.
func (s *AdService) LogRequest(req *models.AdRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.events.SaveAdRequest(ctx, req); err != nil {
		s.logger.Error("failed to log ad request",
			zap.String("app_id", req.AppID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordStorageFailure("ad_requests")
		}
	}
}

// InvalidateCache drops the cached copy of an ad after catalog writes.
func (s *AdService) InvalidateCache(ctx context.Context, adID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, "ad:"+adID).Err(); err != nil {
		s.logger.Debug("failed to invalidate ad cache", zap.String("ad_id", adID), zap.Error(err))
	}
}
