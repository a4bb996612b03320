package vast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLBuilderEventFirst(t *testing.T) {
	b := NewURLBuilder("https://t.example.com/events")
	got := b.Build(EventStart, Param{Key: "adId", Value: "ad-1"}, Param{Key: "zone", Value: "top"})
	assert.Equal(t, "https://t.example.com/events?event=start&adId=ad-1&zone=top", got)
}

func TestURLBuilderPreservesExistingQuery(t *testing.T) {
	b := NewURLBuilder("https://t.example.com/events?src=sdk")
	got := b.Build(EventComplete, Param{Key: "adId", Value: "ad-1"})
	assert.Equal(t, "https://t.example.com/events?src=sdk&event=complete&adId=ad-1", got)
}

func TestURLBuilderEscapesValues(t *testing.T) {
	b := NewURLBuilder("https://t.example.com/events")
	got := b.Build(EventClick, Param{Key: "ref", Value: "a b&c"})
	assert.Equal(t, "https://t.example.com/events?event=click&ref=a+b%26c", got)
}

func TestURLBuilderParamOrderPreserved(t *testing.T) {
	b := NewURLBuilder("https://t.example.com/e")
	got := b.Build(EventMidpoint,
		Param{Key: "z", Value: "1"},
		Param{Key: "a", Value: "2"},
		Param{Key: "m", Value: "3"},
	)
	assert.Equal(t, "https://t.example.com/e?event=midpoint&z=1&a=2&m=3", got)
}

func TestURLBuilderDeterministic(t *testing.T) {
	b := NewURLBuilder("https://t.example.com/events")
	first := b.ImpressionURL("ad-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, b.ImpressionURL("ad-42"))
	}
}

func TestURLBuilderHelpers(t *testing.T) {
	b := NewURLBuilder("https://t.example.com/events")
	assert.Equal(t, "https://t.example.com/events?event=impression&adId=x", b.ImpressionURL("x"))
	assert.Equal(t, "https://t.example.com/events?event=firstQuartile&adId=x", b.EventURL(EventFirstQuartile, "x"))
	assert.Equal(t, "https://t.example.com/events?event=click&adId=x", b.ClickURL("x"))
}
