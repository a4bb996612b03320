package vast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAd() AdData {
	return AdData{
		ID:         "ad-1",
		Title:      "Test Ad",
		MediaFiles: []MediaFile{{URL: "https://cdn.example.com/v.mp4"}},
		Duration:   "00:00:30",
	}
}

func TestAdDataValidateOK(t *testing.T) {
	ad := validAd()
	require.NoError(t, ad.Validate())
}

func TestAdDataValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AdData)
		field  string
	}{
		{"missing id", func(a *AdData) { a.ID = "" }, "id"},
		{"missing title", func(a *AdData) { a.Title = "" }, "title"},
		{"no media files", func(a *AdData) { a.MediaFiles = nil }, "mediaFiles"},
		{"missing duration", func(a *AdData) { a.Duration = "" }, "duration"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ad := validAd()
			tc.mutate(&ad)
			err := ad.Validate()
			require.Error(t, err)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestDurationFormat(t *testing.T) {
	valid := []string{"00:00:10", "00:01:05", "01:30:00", "99:59:59"}
	for _, d := range valid {
		ad := validAd()
		ad.Duration = d
		assert.NoError(t, ad.Validate(), d)
	}

	invalid := []string{"0:0:10", "10", "00:00:10.5", "00:00", "00-00-10", " 00:00:10"}
	for _, d := range invalid {
		ad := validAd()
		ad.Duration = d
		assert.Error(t, ad.Validate(), d)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(0))
	assert.Equal(t, "00:00:30", FormatDuration(30))
	assert.Equal(t, "00:01:05", FormatDuration(65))
	assert.Equal(t, "01:01:01", FormatDuration(3661))
	assert.Equal(t, "00:00:00", FormatDuration(-5))
}

func TestMediaFileDefaults(t *testing.T) {
	m := NewMediaFile("https://cdn.example.com/v.mp4")
	assert.Equal(t, DeliveryProgressive, m.Delivery)
	assert.Equal(t, "video/mp4", m.MimeType)
	assert.Equal(t, 640, m.Width)
	assert.Equal(t, 360, m.Height)
	assert.Equal(t, 500, m.BitrateKbps)
	require.NotNil(t, m.Scalable)
	assert.True(t, *m.Scalable)
	require.NotNil(t, m.MaintainAspectRatio)
	assert.True(t, *m.MaintainAspectRatio)
}

func TestMediaFileDefaultsDoNotOverride(t *testing.T) {
	f := false
	m := MediaFile{
		URL:         "https://cdn.example.com/v.webm",
		Delivery:    DeliveryStreaming,
		MimeType:    "video/webm",
		Width:       1280,
		Height:      720,
		BitrateKbps: 2000,
		Scalable:    &f,
	}.WithDefaults()

	assert.Equal(t, DeliveryStreaming, m.Delivery)
	assert.Equal(t, "video/webm", m.MimeType)
	assert.Equal(t, 1280, m.Width)
	assert.Equal(t, 720, m.Height)
	assert.Equal(t, 2000, m.BitrateKbps)
	assert.False(t, *m.Scalable)
}

func TestMediaFileValidate(t *testing.T) {
	assert.Error(t, MediaFile{}.WithDefaults().Validate())
	assert.Error(t, MediaFile{URL: "/relative/path.mp4"}.WithDefaults().Validate())
	assert.NoError(t, NewMediaFile("http://cdn.example.com/v.mp4").Validate())
}

func TestTrackingEventSetValidate(t *testing.T) {
	ok := TrackingEventSet{
		EventStart: "https://t.example.com/s",
		EventMute:  "",
	}
	assert.NoError(t, ok.Validate())

	unknown := TrackingEventSet{"rewind": "https://t.example.com/r"}
	err := unknown.Validate()
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "trackingEvents", fe.Field)

	relative := TrackingEventSet{EventPause: "/pause"}
	assert.Error(t, relative.Validate())
}

func TestGenerationConfigValidate(t *testing.T) {
	assert.Error(t, GenerationConfig{}.Validate())
	assert.Error(t, GenerationConfig{TrackingBaseURL: "/events"}.Validate())
	assert.NoError(t, GenerationConfig{TrackingBaseURL: "https://t.example.com/events"}.Validate())
}
