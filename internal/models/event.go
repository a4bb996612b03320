package models

import (
	"time"
)

// ===========================================
// TRACKING EVENT (player beacon)
// ===========================================

// Event is one recorded player beacon: an impression or a playback
// milestone reported back by the video player. The store assigns ID.
type Event struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	AdID      string    `json:"ad_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Captured request payload: every query parameter except the event
	// name itself.
	Params map[string]string `json:"params,omitempty"`

	// Client metadata
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
	Referer   string `json:"referer,omitempty"`

	// Geo enrichment (optional, from the GeoIP provider)
	GeoCountry string `json:"geo_country,omitempty"`
	GeoCity    string `json:"geo_city,omitempty"`
}

// ===========================================
// AD REQUEST LOG
// ===========================================

// AdRequest records one call to the ad-request endpoint and what it was
// answered with.
type AdRequest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	AppID    string `json:"app_id"`
	AdSlotID string `json:"ad_slot_id"`
	UserID   string `json:"user_id,omitempty"`

	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// Response info
	AdID       string `json:"ad_id,omitempty"`
	StatusCode int    `json:"status_code"`
	ResponseMs int64  `json:"response_ms"`
}

// ===========================================
// PER-AD COUNTERS
// ===========================================

// AdStats aggregates beacon counts for one ad.
type AdStats struct {
	AdID        string           `json:"ad_id"`
	Impressions int64            `json:"impressions"`
	Starts      int64            `json:"starts"`
	Completes   int64            `json:"completes"`
	Clicks      int64            `json:"clicks"`
	ByEvent     map[string]int64 `json:"by_event,omitempty"`
}
