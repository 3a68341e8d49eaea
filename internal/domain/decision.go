package domain

import "time"

// SuppressReason explains why a decision did not notify.
type SuppressReason string

const (
	SuppressBelowThreshold   SuppressReason = "below_threshold"
	SuppressUnverified       SuppressReason = "unverified"
	SuppressCooldownActive   SuppressReason = "cooldown_active"
	SuppressDataUnavailable  SuppressReason = "data_unavailable"
	SuppressStateUnavailable SuppressReason = "state_unavailable"
)

// AlertDecision is the outcome of one location's evaluation in one polling
// cycle. The orchestrator returns every decision, notifying or not, so the
// caller can log and monitor cycle health.
type AlertDecision struct {
	LocationID         string         `json:"location_id"`
	CycleID            string         `json:"cycle_id"`
	Tier               Tier           `json:"tier"`
	VerifiedSnowInches float64        `json:"verified_snow_inches"`
	ForecastSnowInches float64        `json:"forecast_snow_inches"`
	CurrentTempF       float64        `json:"current_temp_f"`
	Conditions         string         `json:"conditions,omitempty"`
	ShouldNotify       bool           `json:"should_notify"`
	SuppressReason     SuppressReason `json:"suppress_reason,omitempty"`
	CrossChecked       bool           `json:"cross_checked"`
	CheckedAt          time.Time      `json:"checked_at"`
}
