// Package httpserver registers the HTTP routes and wires the serving
// services to their storage backends.
package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/motovlabs/vastserve/internal/ads"
	"github.com/motovlabs/vastserve/internal/config"
	"github.com/motovlabs/vastserve/internal/database"
	"github.com/motovlabs/vastserve/internal/geo"
	"github.com/motovlabs/vastserve/internal/metrics"
	"github.com/motovlabs/vastserve/internal/middleware"
	"github.com/motovlabs/vastserve/internal/models"
	"github.com/motovlabs/vastserve/internal/storage"
	"github.com/motovlabs/vastserve/internal/vast"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// transparentPixel is a 1x1 transparent GIF served to image beacons.
var transparentPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x21, 0xF9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Geo     geo.Provider
	Sink    storage.EventSink
}

// Server wraps HTTP handlers and the ad-serving services.
type Server struct {
	adService    *ads.AdService
	eventService *ads.EventService
	adRepo       storage.AdRepo
	logger       *zap.Logger
	config       *config.Config
	metrics      *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories
	var adRepo storage.AdRepo
	var eventStore storage.EventStore

	if deps.DB != nil {
		adRepo = storage.NewPostgresAdRepo(deps.DB.Pool)
		eventStore = storage.NewPostgresEventStore(deps.DB.Pool)
	} else {
		adRepo = storage.NewInMemoryAdRepo()
		eventStore = storage.NewInMemoryEventStore()
	}

	var rdb *redis.Client
	if deps.Redis != nil {
		rdb = deps.Redis.Client
	}

	adSvc := ads.NewAdService(adRepo, eventStore, rdb, deps.Config.Vast.AdSystemName, deps.Logger, deps.Metrics)
	evSvc := ads.NewEventService(eventStore, deps.Sink, rdb, deps.Geo, deps.Logger, deps.Metrics)

	s := &Server{
		adService:    adSvc,
		eventService: evSvc,
		adRepo:       adRepo,
		logger:       deps.Logger,
		config:       deps.Config,
		metrics:      deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Serving endpoints
	mux.HandleFunc("/ads", s.handleAds)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/impressions", s.handleImpressions)

	// Catalog management
	mux.HandleFunc("/ads/catalog", s.handleCatalog)
	mux.HandleFunc("/ads/catalog/", s.handleCatalogByID)

	// Stats
	mux.HandleFunc("/stats", s.handleStats)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Ad Serving ----

func (s *Server) handleAds(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	start := time.Now()
	q := r.URL.Query()
	appID := q.Get("appId")
	adSlotID := q.Get("adSlotId")

	if appID == "" || adSlotID == "" {
		if s.metrics != nil {
			s.metrics.RecordAdRequestError(CodeInvalidParameter)
		}
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "appId and adSlotId are required")
		return
	}

	ad, err := s.adService.SelectAd(r.Context(), q.Get("adId"))
	if err != nil {
		if errors.Is(err, ads.ErrNoAd) {
			if s.metrics != nil {
				s.metrics.RecordAdRequestError(CodeNotFound)
			}
			writeError(w, http.StatusNotFound, CodeNotFound, "no ad available")
			return
		}
		s.logger.Error("ad selection failed", zap.String("app_id", appID), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordAdRequestError(CodeInternalError)
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}

	doc, err := s.adService.BuildVast(ad, s.trackingBaseURL(r))
	if err != nil {
		s.logger.Error("vast generation failed",
			zap.String("ad_id", ad.ID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordAdRequestError(CodeInternalError)
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(doc))

	if s.metrics != nil {
		s.metrics.RecordAdRequest(appID, "200")
	}
	go s.adService.LogRequest(&models.AdRequest{
		Timestamp:  time.Now().UTC(),
		AppID:      appID,
		AdSlotID:   adSlotID,
		UserID:     q.Get("userId"),
		IP:         middleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
		AdID:       ad.ID,
		StatusCode: http.StatusOK,
		ResponseMs: time.Since(start).Milliseconds(),
	})
}

// trackingBaseURL resolves the base URL that beacon links in the VAST
// document point at. Configured value wins; otherwise it is derived
// from the incoming request.
func (s *Server) trackingBaseURL(r *http.Request) string {
	if base := s.config.Vast.TrackingBaseURL; base != "" {
		return base
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/events"
}

// ---- Tracking Beacons ----

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	event := r.URL.Query().Get("event")
	if event == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "event is required")
		return
	}
	s.recordBeacon(w, r, event)
}

// handleImpressions is a fixed-event alias of the beacon endpoint.
func (s *Server) handleImpressions(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}
	s.recordBeacon(w, r, string(vast.EventImpression))
}

func (s *Server) recordBeacon(w http.ResponseWriter, r *http.Request, event string) {
	q := r.URL.Query()

	ev := &models.Event{
		Event:     event,
		AdID:      q.Get("adId"),
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
		Referer:   r.Referer(),
		Params:    make(map[string]string),
	}
	for key, values := range q {
		if key == "event" || key == "adId" || len(values) == 0 {
			continue
		}
		ev.Params[key] = values[0]
	}

	id, err := s.eventService.Record(r.Context(), ev)
	if err != nil {
		s.logger.Error("failed to record event",
			zap.String("event", event),
			zap.String("ad_id", ev.AdID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "image/") {
		if s.metrics != nil {
			s.metrics.RecordBeaconFormat("gif")
		}
		w.Header().Set("Content-Type", "image/gif")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(transparentPixel)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordBeaconFormat("json")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"eventId": id,
	})
}

// ---- Catalog CRUD ----

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.adRepo.ListAll(r.Context())
		if err != nil {
			s.logger.Error("failed to list ads", zap.Error(err))
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to list ads")
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var ad models.Ad
		if err := decodeJSON(r, &ad); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid json")
			return
		}
		if err := ad.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
			return
		}
		if err := s.adRepo.Upsert(r.Context(), &ad); err != nil {
			s.logger.Error("failed to save ad", zap.String("ad_id", ad.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to save ad")
			return
		}
		s.adService.InvalidateCache(r.Context(), ad.ID)
		writeJSON(w, http.StatusOK, ad)

	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method "+r.Method+" not allowed")
	}
}

func (s *Server) handleCatalogByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/ads/catalog/")
	if id == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "ad not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ad, err := s.adRepo.GetByID(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to get ad", zap.String("ad_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to get ad")
			return
		}
		if ad == nil {
			writeError(w, http.StatusNotFound, CodeNotFound, "ad not found")
			return
		}
		writeJSON(w, http.StatusOK, ad)

	case http.MethodDelete:
		if err := s.adRepo.Delete(r.Context(), id); err != nil {
			s.logger.Error("failed to delete ad", zap.String("ad_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to delete ad")
			return
		}
		s.adService.InvalidateCache(r.Context(), id)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method "+r.Method+" not allowed")
	}
}

// ---- Stats ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	adID := r.URL.Query().Get("adId")
	if adID == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "adId is required")
		return
	}

	stats, err := s.eventService.Stats(r.Context(), adID)
	if err != nil {
		s.logger.Error("failed to compute stats", zap.String("ad_id", adID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
