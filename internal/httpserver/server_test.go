package httpserver

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/motovlabs/vastserve/internal/config"
	"github.com/motovlabs/vastserve/internal/models"
	"github.com/motovlabs/vastserve/internal/vast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.Vast.AdSystemName = "MOTOV Ad Server"
	return NewServer(&Dependencies{
		Config: cfg,
		Logger: zap.NewNop(),
	})
}

func seedAd(t *testing.T, handler http.Handler, id string) {
	t.Helper()
	ad := models.Ad{
		ID:              id,
		Title:           "Test Creative",
		Status:          models.AdStatusActive,
		MediaFiles:      []vast.MediaFile{{URL: "https://cdn.example.com/" + id + ".mp4"}},
		DurationSeconds: 30,
	}
	body, err := json.Marshal(ad)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/ads/catalog", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAdsMissingParams(t *testing.T) {
	handler := testServer(t)

	cases := []string{"/ads", "/ads?appId=app-1", "/ads?adSlotId=slot-1"}
	for _, target := range cases {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		resp := decodeError(t, w)
		assert.Equal(t, CodeInvalidParameter, resp.Error.Code, target)
	}
}

func TestAdsMethodNotAllowed(t *testing.T) {
	handler := testServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/ads?appId=a&adSlotId=b", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		resp := decodeError(t, w)
		assert.Equal(t, CodeMethodNotAllowed, resp.Error.Code)
	}
}

func TestAdsNoAdAvailable(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ads?appId=app-1&adSlotId=slot-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestAdsServesVast(t *testing.T) {
	handler := testServer(t)
	seedAd(t, handler, "ad-1")

	req := httptest.NewRequest(http.MethodGet, "/ads?appId=app-1&adSlotId=slot-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, body, `<VAST version="3.0">`)
	assert.Contains(t, body, `<Ad id="ad-1">`)
	assert.Contains(t, body, "<AdTitle>Test Creative</AdTitle>")
	// Beacon URLs derive from the request host.
	assert.Contains(t, body, "http://example.com/events?event=impression&adId=ad-1")

	// The response parses as well-formed XML.
	var doc struct {
		XMLName xml.Name `xml:"VAST"`
	}
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &doc))
}

func TestAdsExplicitAdID(t *testing.T) {
	handler := testServer(t)
	seedAd(t, handler, "ad-1")
	seedAd(t, handler, "ad-2")

	req := httptest.NewRequest(http.MethodGet, "/ads?appId=a&adSlotId=b&adId=ad-2", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<Ad id="ad-2">`)
}

func TestAdsConfiguredTrackingBase(t *testing.T) {
	cfg := &config.Config{}
	cfg.Vast.TrackingBaseURL = "https://track.example.net/events"
	handler := NewServer(&Dependencies{Config: cfg, Logger: zap.NewNop()})
	seedAd(t, handler, "ad-1")

	req := httptest.NewRequest(http.MethodGet, "/ads?appId=a&adSlotId=b", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://track.example.net/events?event=start&adId=ad-1")
}

func TestEventsRequiresEventParam(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/events?adId=ad-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, CodeInvalidParameter, resp.Error.Code)
}

func TestEventsJSONResponse(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/events?event=start&adId=ad-1&zone=top", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Success bool   `json:"success"`
		EventID string `json:"eventId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.EventID)
}

func TestEventsPixelResponse(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/events?event=complete&adId=ad-1", nil)
	req.Header.Set("Accept", "image/gif,image/*")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Equal(t, transparentPixel, w.Body.Bytes())
}

func TestEventsMethodNotAllowed(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/events?event=start", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestImpressionsBeacon(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/impressions?adId=ad-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// The impression should be countable afterwards.
	statsReq := httptest.NewRequest(http.MethodGet, "/stats?adId=ad-1", nil)
	statsW := httptest.NewRecorder()
	handler.ServeHTTP(statsW, statsReq)

	require.Equal(t, http.StatusOK, statsW.Code)
	var stats models.AdStats
	require.NoError(t, json.Unmarshal(statsW.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Impressions)
}

func TestStatsRequiresAdID(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogCRUD(t *testing.T) {
	handler := testServer(t)
	seedAd(t, handler, "ad-1")

	// List
	req := httptest.NewRequest(http.MethodGet, "/ads/catalog", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Ad
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ad-1", list[0].ID)

	// Get by ID
	req = httptest.NewRequest(http.MethodGet, "/ads/catalog/ad-1", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/ads/catalog/ad-1", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Gone
	req = httptest.NewRequest(http.MethodGet, "/ads/catalog/ad-1", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogRejectsInvalidAd(t *testing.T) {
	handler := testServer(t)

	body := []byte(`{"id":"ad-1","title":"No media","duration_seconds":30}`)
	req := httptest.NewRequest(http.MethodPost, "/ads/catalog", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
}

func TestCatalogRejectsInvalidJSON(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ads/catalog", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
