package weatherapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

var testLocation = domain.Location{ID: "snowbird", Name: "Snowbird", Lat: 40.5830, Lon: -111.6556}

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_FetchSnow_ConvertsCentimeters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))
		assert.Equal(t, "40.5830,-111.6556", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("days"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"current": {
				"temp_f": 25.0,
				"last_updated_epoch": 1736931600,
				"condition": {"text": "Heavy snow"}
			},
			"forecast": {"forecastday": [{"day": {"totalsnow_cm": 25.4}}]}
		}`))
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).FetchSnow(context.Background(), testLocation)
	require.NoError(t, err)

	assert.Equal(t, "snowbird", rec.LocationID)
	assert.Equal(t, SourceID, rec.SourceID)
	assert.InDelta(t, 10.0, rec.ObservedSnowInches, 1e-9)
	assert.Equal(t, 25.0, rec.CurrentTempF)
	assert.Equal(t, "Heavy snow", rec.Conditions)
	assert.Equal(t, time.Unix(1736931600, 0).UTC(), rec.ObservationTime)
}

func TestClient_FetchSnow_MissingForecastDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current": {"temp_f": 25.0}, "forecast": {"forecastday": []}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchSnow(context.Background(), testLocation)
	require.Error(t, err)

	var formatErr *domain.DataFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "forecast.forecastday", formatErr.Field)
}

func TestClient_FetchSnow_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key disabled"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchSnow(context.Background(), testLocation)
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_FetchSnow_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchSnow(context.Background(), testLocation)
	require.Error(t, err)

	var formatErr *domain.DataFormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestClient_FetchSnow_NegativeSnowRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"current": {"temp_f": 25.0},
			"forecast": {"forecastday": [{"day": {"totalsnow_cm": -3.0}}]}
		}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchSnow(context.Background(), testLocation)
	require.Error(t, err)

	var formatErr *domain.DataFormatError
	require.ErrorAs(t, err, &formatErr)
}
