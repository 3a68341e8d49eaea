// Package openweather implements domain.SnowSource using the OpenWeatherMap
// current weather and 5-day forecast APIs.
package openweather

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
const SourceID = "openweathermap"

// forecastPeriods is how many 3-hour forecast entries make up the 24-hour
// forecast window.
const forecastPeriods = 8

// Client fetches snow observations from OpenWeatherMap.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/2.5",
		logger:  logger,
	}
}

// Name implements domain.SnowSource.
func (c *Client) Name() string { return SourceID }

// FetchSnow retrieves current conditions and the 24-hour forecast for loc and
// normalizes them into a canonical record. OpenWeatherMap reports snow in
// millimeters regardless of the units parameter; temperatures arrive imperial.
func (c *Client) FetchSnow(ctx context.Context, loc domain.Location) (domain.SnowRecord, error) {
	current, err := c.fetchCurrent(ctx, loc)
	if err != nil {
		return domain.SnowRecord{}, err
	}
	forecastMM, err := c.fetchForecastSnow(ctx, loc)
	if err != nil {
		return domain.SnowRecord{}, err
	}

	conditions := ""
	if len(current.Weather) > 0 {
		conditions = current.Weather[0].Description
	}

	obs := domain.Observation{
		Snow:         current.Snow.OneHour + current.Snow.ThreeHour,
		SnowUnit:     domain.UnitMillimeters,
		ForecastSnow: forecastMM,
		ForecastUnit: domain.UnitMillimeters,
		Temp:         current.Main.Temp,
		TempUnit:     domain.UnitFahrenheit,
		ObservedAt:   time.Unix(current.Dt, 0),
		Conditions:   conditions,
	}
	return domain.BuildSnowRecord(loc.ID, SourceID, obs)
}

func (c *Client) fetchCurrent(ctx context.Context, loc domain.Location) (*currentResponse, error) {
	var out currentResponse
	if err := c.doRequest(ctx, c.buildURL("/weather", loc), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetchForecastSnow sums the snow amounts of the next 24 hours of 3-hour
// forecast periods.
func (c *Client) fetchForecastSnow(ctx context.Context, loc domain.Location) (float64, error) {
	var out forecastResponse
	if err := c.doRequest(ctx, c.buildURL("/forecast", loc), &out); err != nil {
		return 0, err
	}

	periods := out.List
	if len(periods) > forecastPeriods {
		periods = periods[:forecastPeriods]
	}
	var totalMM float64
	for _, p := range periods {
		totalMM += p.Snow.ThreeHour
	}
	return totalMM, nil
}

func (c *Client) buildURL(path string, loc domain.Location) string {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.4f", loc.Lat)},
		"lon":   {fmt.Sprintf("%.4f", loc.Lon)},
		"appid": {c.apiKey},
		"units": {"imperial"},
	}
	return c.baseURL + path + "?" + params.Encode()
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &domain.FetchError{Source: SourceID, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{Source: SourceID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.FetchError{
			Source: SourceID,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.DataFormatError{Source: SourceID, Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// OpenWeatherMap API response types.

type currentResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Snow snowAmounts `json:"snow"`
	Dt   int64       `json:"dt"`
}

type forecastResponse struct {
	List []struct {
		Snow snowAmounts `json:"snow"`
	} `json:"list"`
}

// snowAmounts covers both the current payload ("1h") and forecast periods
// ("3h"); absent keys decode to zero.
type snowAmounts struct {
	OneHour   float64 `json:"1h"`
	ThreeHour float64 `json:"3h"`
}
