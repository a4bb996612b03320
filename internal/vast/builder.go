package vast

import (
	"github.com/motovlabs/vastserve/internal/xmlenc"
)

// Builder assembles one VAST document. Each stage overwrites its own
// field, so a stage may be re-invoked; Build must be the terminal call.
// A Builder is single-use and holds no state across documents; create
// a fresh one per request.
type Builder struct {
	root     *xmlenc.Element
	tracking *URLBuilder
}

// NewBuilder returns a builder seeded with the base template and a
// tracking URL builder over cfg's base URL.
func NewBuilder(cfg GenerationConfig) *Builder {
	return &Builder{
		root:     baseTemplate(),
		tracking: NewURLBuilder(cfg.TrackingBaseURL),
	}
}

func (b *Builder) ad() *xmlenc.Element {
	return b.root.Child("Ad")
}

func (b *Builder) inline() *xmlenc.Element {
	return b.ad().Child("InLine")
}

func (b *Builder) linear() *xmlenc.Element {
	return b.inline().Child("Creatives").Child("Creative").Child("Linear")
}

// SetAdInfo establishes the document's identity and sets the CDATA
// impression beacon for the ad id.
func (b *Builder) SetAdInfo(id, title, description, system string) *Builder {
	if system == "" {
		system = DefaultAdSystem
	}
	b.ad().SetAttr("id", id)
	inline := b.inline()
	inline.Child("AdSystem").SetText(system)
	inline.Child("AdTitle").SetText(title)
	inline.Child("Description").SetText(description)
	inline.Child("Impression").SetCDATA(b.tracking.ImpressionURL(id))
	return b
}

// AddMediaFile appends one media file variant. Call order is preserved
// in the output.
func (b *Builder) AddMediaFile(m MediaFile) *Builder {
	b.linear().Child("MediaFiles").Append(mediaFileElement(m.WithDefaults()))
	return b
}

// SetDuration sets the creative duration. Last call wins.
func (b *Builder) SetDuration(duration string) *Builder {
	b.linear().Child("Duration").SetText(duration)
	return b
}

// SetClickUrls sets the optional ClickThrough and appends each click
// tracking URL. An empty clickThrough omits the element entirely.
func (b *Builder) SetClickUrls(clickThrough string, clickTracking []string) *Builder {
	clicks := b.linear().Child("VideoClicks")
	clicks.Children = nil
	if clickThrough != "" {
		clicks.Append(xmlenc.NewElement("ClickThrough").SetCDATA(clickThrough))
	}
	for _, u := range clickTracking {
		clicks.Append(xmlenc.NewElement("ClickTracking").SetCDATA(u))
	}
	return b
}

// AddTrackingEvent appends one <Tracking> element.
func (b *Builder) AddTrackingEvent(event EventType, url string) *Builder {
	b.linear().Child("TrackingEvents").Append(trackingElement(event, url))
	return b
}

// AddDefaultTracking appends the five canonical milestones in order,
// each pointing at the tracking endpoint with the given ad id.
func (b *Builder) AddDefaultTracking(adID string) *Builder {
	for _, ev := range DefaultTrackingEvents {
		b.AddTrackingEvent(ev, b.tracking.EventURL(ev, adID))
	}
	return b
}

// Tree exposes the accumulated document for inspection before
// serialization.
func (b *Builder) Tree() *xmlenc.Element {
	return b.root
}

// Build serializes the document with the XML declaration and two-space
// indentation.
func (b *Builder) Build() string {
	return xmlenc.Serialize(b.root, xmlenc.Options{Indent: "  "})
}
