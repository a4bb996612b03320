package vast

import (
	"net/url"
	"strings"
)

// Param is one query parameter. Parameters are a slice rather than a
// map so insertion order survives into the generated URL.
type Param struct {
	Key   string
	Value string
}

// URLBuilder derives tracking beacon URLs from a base endpoint. Any
// query parameters already present on the base are left untouched; the
// event name is appended first, then caller parameters in the order
// given. Identical inputs always produce byte-identical output.
type URLBuilder struct {
	base string
}

// NewURLBuilder returns a builder over base. The base is expected to
// have passed GenerationConfig validation.
func NewURLBuilder(base string) *URLBuilder {
	return &URLBuilder{base: base}
}

// Build appends the event parameter and any extra parameters to the
// base URL using standard query encoding.
func (b *URLBuilder) Build(event EventType, params ...Param) string {
	var sb strings.Builder
	sb.WriteString(b.base)

	sep := byte('?')
	if strings.ContainsRune(b.base, '?') {
		sep = '&'
	}

	write := func(key, value string) {
		sb.WriteByte(sep)
		sep = '&'
		sb.WriteString(url.QueryEscape(key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(value))
	}

	write("event", string(event))
	for _, p := range params {
		write(p.Key, p.Value)
	}
	return sb.String()
}

// ImpressionURL returns the beacon fired when the ad is rendered.
func (b *URLBuilder) ImpressionURL(adID string) string {
	return b.Build(EventImpression, Param{Key: "adId", Value: adID})
}

// EventURL returns the beacon for a playback milestone.
func (b *URLBuilder) EventURL(event EventType, adID string) string {
	return b.Build(event, Param{Key: "adId", Value: adID})
}

// ClickURL returns the click-tracking beacon.
func (b *URLBuilder) ClickURL(adID string) string {
	return b.Build(EventClick, Param{Key: "adId", Value: adID})
}
