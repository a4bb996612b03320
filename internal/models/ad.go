package models

import (
	"errors"
	"time"

	"github.com/motovlabs/vastserve/internal/vast"
)

type AdStatus string

const (
	AdStatusActive   AdStatus = "active"
	AdStatusInactive AdStatus = "inactive"
	AdStatusDeleted  AdStatus = "deleted"
)

// Ad is a catalog entry for one servable video creative.
type Ad struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Advertiser  string   `json:"advertiser,omitempty"`
	Status      AdStatus `json:"status"`

	MediaFiles      []vast.MediaFile `json:"media_files"`
	DurationSeconds int              `json:"duration_seconds"`

	ClickThrough   string                `json:"click_through,omitempty"`
	ClickTracking  []string              `json:"click_tracking,omitempty"`
	TrackingEvents vast.TrackingEventSet `json:"tracking_events,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks catalog-level invariants before storage.
func (a *Ad) Validate() error {
	if a.ID == "" {
		return errors.New("ad id is required")
	}
	if a.Title == "" {
		return errors.New("ad title is required")
	}
	if len(a.MediaFiles) == 0 {
		return errors.New("ad requires at least one media file")
	}
	if a.DurationSeconds <= 0 {
		return errors.New("ad duration must be positive")
	}
	switch a.Status {
	case AdStatusActive, AdStatusInactive, AdStatusDeleted, "":
	default:
		return errors.New("unknown ad status: " + string(a.Status))
	}
	// The VAST model performs the deeper per-field checks.
	data := a.AdData()
	return data.Validate()
}

// AdData bridges the catalog entry to the VAST document model.
func (a *Ad) AdData() vast.AdData {
	return vast.AdData{
		ID:            a.ID,
		Title:         a.Title,
		Description:   a.Description,
		AdSystem:      a.Advertiser,
		MediaFiles:    a.MediaFiles,
		Duration:      vast.FormatDuration(a.DurationSeconds),
		ClickThrough:  a.ClickThrough,
		ClickTracking: a.ClickTracking,
		Tracking:      a.TrackingEvents,
	}
}

// IsServable reports whether the ad may be selected for a request.
func (a *Ad) IsServable() bool {
	return a.Status == AdStatusActive || a.Status == ""
}
