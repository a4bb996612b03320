// Package vast assembles VAST 3.0 documents for linear video ads. The
// document model validates ad input, the builder assembles the XML tree
// and the tracking builder derives the beacon URLs embedded in it.
package vast

import (
	"fmt"
	"net/url"
	"regexp"
)

// FieldError reports a missing or malformed input field. Handlers map it
// to an invalid-request response.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

func fieldErr(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// Delivery is the MediaFile delivery protocol.
type Delivery string

const (
	DeliveryProgressive Delivery = "progressive"
	DeliveryStreaming   Delivery = "streaming"
)

// EventType is a playback milestone or interaction a player reports.
type EventType string

const (
	EventStart         EventType = "start"
	EventFirstQuartile EventType = "firstQuartile"
	EventMidpoint      EventType = "midpoint"
	EventThirdQuartile EventType = "thirdQuartile"
	EventComplete      EventType = "complete"
	EventMute          EventType = "mute"
	EventUnmute        EventType = "unmute"
	EventPause         EventType = "pause"
	EventResume        EventType = "resume"
	EventFullscreen    EventType = "fullscreen"
	EventSkip          EventType = "skip"
	EventClick         EventType = "click"
	EventClose         EventType = "close"

	// EventImpression is not a <Tracking> milestone; it names the beacon
	// set on the <Impression> element.
	EventImpression EventType = "impression"
)

// DefaultTrackingEvents are the five canonical milestones added by
// Builder.AddDefaultTracking, in their required order.
var DefaultTrackingEvents = []EventType{
	EventStart,
	EventFirstQuartile,
	EventMidpoint,
	EventThirdQuartile,
	EventComplete,
}

// customEventOrder fixes iteration order for caller-supplied tracking
// events so generated documents are reproducible.
var customEventOrder = []EventType{
	EventStart,
	EventFirstQuartile,
	EventMidpoint,
	EventThirdQuartile,
	EventComplete,
	EventMute,
	EventUnmute,
	EventPause,
	EventResume,
	EventFullscreen,
	EventSkip,
	EventClick,
	EventClose,
}

var knownEvents = func() map[EventType]bool {
	m := make(map[EventType]bool, len(customEventOrder))
	for _, ev := range customEventOrder {
		m[ev] = true
	}
	return m
}()

// TrackingEventSet maps playback milestones to destination URLs. Absent
// keys simply omit that <Tracking> element.
type TrackingEventSet map[EventType]string

// Validate rejects unknown event names and malformed URLs.
func (t TrackingEventSet) Validate() error {
	for ev, u := range t {
		if !knownEvents[ev] {
			return fieldErr("trackingEvents", fmt.Sprintf("unknown event %q", ev))
		}
		if u == "" {
			continue
		}
		if !isAbsoluteURL(u) {
			return fieldErr("trackingEvents."+string(ev), "must be an absolute URL")
		}
	}
	return nil
}

// MediaFile is one playable asset variant for a creative.
type MediaFile struct {
	URL                 string   `json:"url"`
	Delivery            Delivery `json:"delivery,omitempty"`
	MimeType            string   `json:"mime_type,omitempty"`
	Width               int      `json:"width,omitempty"`
	Height              int      `json:"height,omitempty"`
	BitrateKbps         int      `json:"bitrate_kbps,omitempty"`
	Scalable            *bool    `json:"scalable,omitempty"`
	MaintainAspectRatio *bool    `json:"maintain_aspect_ratio,omitempty"`
}

// Defaults applied to zero-valued MediaFile fields.
const (
	defaultDelivery    = DeliveryProgressive
	defaultMimeType    = "video/mp4"
	defaultWidth       = 640
	defaultHeight      = 360
	defaultBitrateKbps = 500
)

// NewMediaFile returns a MediaFile for url with all defaults applied.
func NewMediaFile(rawURL string) MediaFile {
	return MediaFile{URL: rawURL}.WithDefaults()
}

// WithDefaults returns a copy with every unset field replaced by its
// default. The receiver is not modified.
func (m MediaFile) WithDefaults() MediaFile {
	if m.Delivery == "" {
		m.Delivery = defaultDelivery
	}
	if m.MimeType == "" {
		m.MimeType = defaultMimeType
	}
	if m.Width == 0 {
		m.Width = defaultWidth
	}
	if m.Height == 0 {
		m.Height = defaultHeight
	}
	if m.BitrateKbps == 0 {
		m.BitrateKbps = defaultBitrateKbps
	}
	if m.Scalable == nil {
		m.Scalable = boolPtr(true)
	}
	if m.MaintainAspectRatio == nil {
		m.MaintainAspectRatio = boolPtr(true)
	}
	return m
}

// Validate checks the media file after defaulting.
func (m MediaFile) Validate() error {
	if m.URL == "" {
		return fieldErr("mediaFiles.url", "is required")
	}
	if !isAbsoluteURL(m.URL) {
		return fieldErr("mediaFiles.url", "must be an absolute URL")
	}
	switch m.Delivery {
	case DeliveryProgressive, DeliveryStreaming:
	default:
		return fieldErr("mediaFiles.delivery", fmt.Sprintf("unknown delivery %q", m.Delivery))
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fieldErr("mediaFiles.width/height", "must be positive")
	}
	if m.BitrateKbps <= 0 {
		return fieldErr("mediaFiles.bitrate", "must be positive")
	}
	return nil
}

// durationPattern is the exact HH:MM:SS form required by the schema,
// zero padded and without fractional seconds.
var durationPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

// FormatDuration renders a second count in HH:MM:SS form.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// AdData is the full description of one ad passed to the builder.
type AdData struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	AdSystem      string           `json:"ad_system,omitempty"`
	MediaFiles    []MediaFile      `json:"media_files"`
	Duration      string           `json:"duration"`
	ClickThrough  string           `json:"click_through,omitempty"`
	ClickTracking []string         `json:"click_tracking,omitempty"`
	Tracking      TrackingEventSet `json:"tracking_events,omitempty"`
}

// DefaultAdSystem is used when AdData.AdSystem is empty.
const DefaultAdSystem = "Ad Server"

// Validate checks required fields first, then formats. It fails on the
// first violation and names the offending field.
func (a *AdData) Validate() error {
	if a.ID == "" {
		return fieldErr("id", "is required")
	}
	if a.Title == "" {
		return fieldErr("title", "is required")
	}
	if len(a.MediaFiles) == 0 {
		return fieldErr("mediaFiles", "at least one media file is required")
	}
	if a.Duration == "" {
		return fieldErr("duration", "is required")
	}
	if !durationPattern.MatchString(a.Duration) {
		return fieldErr("duration", "must match HH:MM:SS")
	}
	for _, m := range a.MediaFiles {
		if err := m.WithDefaults().Validate(); err != nil {
			return err
		}
	}
	if a.ClickThrough != "" && !isAbsoluteURL(a.ClickThrough) {
		return fieldErr("clickThrough", "must be an absolute URL")
	}
	for i, u := range a.ClickTracking {
		if !isAbsoluteURL(u) {
			return fieldErr(fmt.Sprintf("clickTracking[%d]", i), "must be an absolute URL")
		}
	}
	return a.Tracking.Validate()
}

// GenerationConfig carries builder-wide settings.
type GenerationConfig struct {
	// TrackingBaseURL is the endpoint all tracking-event query
	// parameters are appended to.
	TrackingBaseURL string `json:"tracking_base_url"`
}

// Validate checks the tracking base URL parses as an absolute URL.
func (c GenerationConfig) Validate() error {
	if c.TrackingBaseURL == "" {
		return fieldErr("trackingBaseUrl", "is required")
	}
	if !isAbsoluteURL(c.TrackingBaseURL) {
		return fieldErr("trackingBaseUrl", "must be an absolute URL")
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func boolPtr(b bool) *bool { return &b }
