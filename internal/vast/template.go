package vast

import (
	"strconv"

	"github.com/motovlabs/vastserve/internal/xmlenc"
)

// Version is the schema version every generated document declares.
const Version = "3.0"

// baseTemplate returns the fixed VAST 3.0 skeleton: one <Ad> with a
// single InLine linear creative. The VideoClicks and TrackingEvents
// containers are always present, even when empty.
func baseTemplate() *xmlenc.Element {
	linear := xmlenc.NewElement("Linear").Append(
		xmlenc.NewElement("Duration"),
		xmlenc.NewElement("MediaFiles"),
		xmlenc.NewElement("VideoClicks"),
		xmlenc.NewElement("TrackingEvents"),
	)

	inline := xmlenc.NewElement("InLine").Append(
		xmlenc.NewElement("AdSystem"),
		xmlenc.NewElement("AdTitle"),
		xmlenc.NewElement("Description"),
		xmlenc.NewElement("Impression"),
		xmlenc.NewElement("Creatives").Append(
			xmlenc.NewElement("Creative").Append(linear),
		),
	)

	ad := xmlenc.NewElement("Ad").SetAttr("id", "").Append(inline)

	return xmlenc.NewElement("VAST").SetAttr("version", Version).Append(ad)
}

// mediaFileElement serializes one <MediaFile> fragment. The URL goes in
// a CDATA section because media URLs routinely carry query strings.
func mediaFileElement(m MediaFile) *xmlenc.Element {
	el := xmlenc.NewElement("MediaFile")
	el.SetAttr("delivery", string(m.Delivery))
	el.SetAttr("type", m.MimeType)
	el.SetAttr("width", strconv.Itoa(m.Width))
	el.SetAttr("height", strconv.Itoa(m.Height))
	el.SetAttr("bitrate", strconv.Itoa(m.BitrateKbps))
	el.SetAttr("scalable", strconv.FormatBool(m.Scalable != nil && *m.Scalable))
	el.SetAttr("maintainAspectRatio", strconv.FormatBool(m.MaintainAspectRatio != nil && *m.MaintainAspectRatio))
	el.SetCDATA(m.URL)
	return el
}

// trackingElement serializes one <Tracking event="..."> fragment.
func trackingElement(event EventType, url string) *xmlenc.Element {
	return xmlenc.NewElement("Tracking").
		SetAttr("event", string(event)).
		SetCDATA(url)
}
