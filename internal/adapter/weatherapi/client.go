// Package weatherapi implements domain.SnowSource using the WeatherAPI.com
// forecast API. It serves as the independent second opinion for
// cross-verification.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// SourceID tags records produced by this provider.
const SourceID = "weatherapi"

// Client fetches snow observations from WeatherAPI.com.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a WeatherAPI.com client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.weatherapi.com/v1",
		logger:  logger,
	}
}

// Name implements domain.SnowSource.
func (c *Client) Name() string { return SourceID }

// FetchSnow retrieves today's forecast day for loc. WeatherAPI reports the
// day's total snow in centimeters and temperatures in Fahrenheit.
func (c *Client) FetchSnow(ctx context.Context, loc domain.Location) (domain.SnowRecord, error) {
	params := url.Values{
		"key":  {c.apiKey},
		"q":    {fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon)},
		"days": {"1"},
	}
	fullURL := c.baseURL + "/forecast.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.SnowRecord{}, &domain.FetchError{Source: SourceID, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SnowRecord{}, &domain.FetchError{Source: SourceID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.SnowRecord{}, &domain.FetchError{
			Source: SourceID,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.SnowRecord{}, &domain.DataFormatError{Source: SourceID, Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if len(payload.Forecast.ForecastDay) == 0 {
		return domain.SnowRecord{}, &domain.DataFormatError{Source: SourceID, Field: "forecast.forecastday", Reason: "missing"}
	}

	day := payload.Forecast.ForecastDay[0].Day
	// WeatherAPI has no separate forecast figure; the day total covers both.
	obs := domain.Observation{
		Snow:         day.TotalSnowCM,
		SnowUnit:     domain.UnitCentimeters,
		ForecastSnow: day.TotalSnowCM,
		ForecastUnit: domain.UnitCentimeters,
		Temp:         payload.Current.TempF,
		TempUnit:     domain.UnitFahrenheit,
		ObservedAt:   time.Unix(payload.Current.LastUpdatedEpoch, 0),
		Conditions:   payload.Current.Condition.Text,
	}
	return domain.BuildSnowRecord(loc.ID, SourceID, obs)
}

// WeatherAPI.com response types.

type forecastResponse struct {
	Current struct {
		TempF            float64 `json:"temp_f"`
		LastUpdatedEpoch int64   `json:"last_updated_epoch"`
		Condition        struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Day struct {
				TotalSnowCM float64 `json:"totalsnow_cm"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}
