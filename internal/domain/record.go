package domain

import (
	"fmt"
	"math"
	"time"
)

// Location identifies a monitored resort and its reference coordinates.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation int     `json:"elevation,omitempty"` // base elevation, feet
	Region    string  `json:"region,omitempty"`
	Website   string  `json:"website,omitempty"`
}

// Validate checks that the location is usable as a fetch target.
func (l Location) Validate() error {
	if l.ID == "" {
		return &ConfigurationError{Setting: "location.id", Reason: "must not be empty"}
	}
	if l.Name == "" {
		return &ConfigurationError{Setting: "location.name", Reason: "must not be empty"}
	}
	if l.Lat < -90 || l.Lat > 90 {
		return &ConfigurationError{Setting: "location.lat", Reason: fmt.Sprintf("%.4f outside [-90, 90]", l.Lat)}
	}
	if l.Lon < -180 || l.Lon > 180 {
		return &ConfigurationError{Setting: "location.lon", Reason: fmt.Sprintf("%.4f outside [-180, 180]", l.Lon)}
	}
	if l.Lat == 0 && l.Lon == 0 {
		return &ConfigurationError{Setting: "location.coordinates", Reason: "null island coordinates"}
	}
	return nil
}

// SnowUnit is the length unit a provider reports snow amounts in.
type SnowUnit string

const (
	UnitInches      SnowUnit = "in"
	UnitCentimeters SnowUnit = "cm"
	UnitMillimeters SnowUnit = "mm"
)

// TempUnit is the temperature scale a provider reports in.
type TempUnit string

const (
	UnitFahrenheit TempUnit = "f"
	UnitCelsius    TempUnit = "c"
)

// SnowRecord is the canonical, provider-independent observation for one
// location in one polling cycle. All amounts are inches, all temperatures
// Fahrenheit, the observation time UTC. Immutable once built.
type SnowRecord struct {
	LocationID         string    `json:"location_id"`
	SourceID           string    `json:"source_id"`
	ObservedSnowInches float64   `json:"observed_snow_inches"`
	ForecastSnowInches float64   `json:"forecast_snow_inches"`
	ObservationTime    time.Time `json:"observation_time"`
	CurrentTempF       float64   `json:"current_temp_f"`
	Conditions         string    `json:"conditions,omitempty"`
}

// Observation carries a provider's raw numbers plus the units they arrived in.
// The provider adapters fill this from their response payloads; BuildSnowRecord
// converts it into the canonical shape.
type Observation struct {
	Snow         float64
	SnowUnit     SnowUnit
	ForecastSnow float64
	ForecastUnit SnowUnit
	Temp         float64
	TempUnit     TempUnit
	ObservedAt   time.Time
	Conditions   string
}

// BuildSnowRecord normalizes a provider observation into a SnowRecord.
// Conversion is exact and unrounded. Negative or non-finite snow amounts are
// rejected as DataFormatErrors: they indicate a corrupt upstream payload, not
// a value worth clamping. A zero ObservedAt is stamped with the current time.
func BuildSnowRecord(locationID, sourceID string, obs Observation) (SnowRecord, error) {
	if locationID == "" {
		return SnowRecord{}, &DataFormatError{Source: sourceID, Field: "location_id", Reason: "missing"}
	}
	if sourceID == "" {
		return SnowRecord{}, &DataFormatError{Source: "unknown", Field: "source_id", Reason: "missing"}
	}

	observed, err := snowToInches(sourceID, "observed_snow", obs.Snow, obs.SnowUnit)
	if err != nil {
		return SnowRecord{}, err
	}
	forecast, err := snowToInches(sourceID, "forecast_snow", obs.ForecastSnow, obs.ForecastUnit)
	if err != nil {
		return SnowRecord{}, err
	}
	tempF, err := tempToFahrenheit(sourceID, obs.Temp, obs.TempUnit)
	if err != nil {
		return SnowRecord{}, err
	}

	observedAt := obs.ObservedAt
	if observedAt.IsZero() {
		observedAt = clock.Now()
	}

	return SnowRecord{
		LocationID:         locationID,
		SourceID:           sourceID,
		ObservedSnowInches: observed,
		ForecastSnowInches: forecast,
		ObservationTime:    observedAt.UTC(),
		CurrentTempF:       tempF,
		Conditions:         obs.Conditions,
	}, nil
}

func snowToInches(sourceID, field string, amount float64, unit SnowUnit) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, &DataFormatError{Source: sourceID, Field: field, Reason: "not a finite number"}
	}
	if amount < 0 {
		return 0, &DataFormatError{Source: sourceID, Field: field, Reason: fmt.Sprintf("negative amount %g", amount)}
	}
	switch unit {
	case UnitInches:
		return amount, nil
	case UnitCentimeters:
		return amount / 2.54, nil
	case UnitMillimeters:
		return amount / 25.4, nil
	default:
		return 0, &DataFormatError{Source: sourceID, Field: field, Reason: fmt.Sprintf("unknown unit %q", unit)}
	}
}

func tempToFahrenheit(sourceID string, temp float64, unit TempUnit) (float64, error) {
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		return 0, &DataFormatError{Source: sourceID, Field: "current_temp", Reason: "not a finite number"}
	}
	switch unit {
	case UnitFahrenheit:
		return temp, nil
	case UnitCelsius:
		return temp*9/5 + 32, nil
	default:
		return 0, &DataFormatError{Source: sourceID, Field: "current_temp", Reason: fmt.Sprintf("unknown unit %q", unit)}
	}
}
