package domain

import (
	"fmt"
	"math"
)

// SkipReason explains why cross-source verification was not attempted.
type SkipReason string

const (
	// SkipBelowNoiseFloor: the primary reading was too small to justify
	// spending the secondary source's quota.
	SkipBelowNoiseFloor SkipReason = "below_noise_floor"

	// SkipSecondaryUnavailable: the secondary fetch failed or timed out.
	SkipSecondaryUnavailable SkipReason = "secondary_unavailable"
)

// VerificationResult records whether two sources agreed on a location's
// snowfall. Produced fresh each cycle; never persisted.
type VerificationResult struct {
	LocationID         string      `json:"location_id"`
	VerifiedSnowInches float64     `json:"verified_snow_inches"`
	Verified           bool        `json:"verified"`
	Skipped            SkipReason  `json:"skipped,omitempty"`
	DisagreementInches float64     `json:"disagreement_inches"`
	Primary            SnowRecord  `json:"primary"`
	Secondary          *SnowRecord `json:"secondary,omitempty"`
}

// CrossChecked reports whether a second source actually corroborated the
// amount. A result can be Verified without being cross-checked (single-source
// acceptance); callers use this to disclose reduced confidence.
func (r VerificationResult) CrossChecked() bool {
	return r.Verified && r.Skipped == ""
}

// Verifier decides whether two independent observations agree well enough to
// trust. Tolerance is the maximum allowed disagreement in inches; the noise floor
// is the minimum primary reading worth verifying at all.
type Verifier struct {
	toleranceInches float64
	noiseFloor      float64
}

// NewVerifier validates the tolerance and noise floor eagerly.
func NewVerifier(toleranceInches, noiseFloor float64) (*Verifier, error) {
	if toleranceInches < 0 || math.IsNaN(toleranceInches) {
		return nil, &ConfigurationError{
			Setting: "verification.tolerance",
			Reason:  fmt.Sprintf("%g must be non-negative inches", toleranceInches),
		}
	}
	if noiseFloor < 0 || math.IsNaN(noiseFloor) {
		return nil, &ConfigurationError{
			Setting: "verification.noise_floor",
			Reason:  fmt.Sprintf("%g must be non-negative inches", noiseFloor),
		}
	}
	return &Verifier{toleranceInches: toleranceInches, noiseFloor: noiseFloor}, nil
}

// NeedsSecondary reports whether the primary reading is large enough to be
// worth corroborating.
func (v *Verifier) NeedsSecondary(primary SnowRecord) bool {
	return primary.ObservedSnowInches > v.noiseFloor
}

// CrossCheck compares the primary and secondary observations. The result is
// verified iff the absolute disagreement is within tolerance; the verified
// amount is always the primary value, never an average.
func (v *Verifier) CrossCheck(primary, secondary SnowRecord) VerificationResult {
	disagreement := math.Abs(primary.ObservedSnowInches - secondary.ObservedSnowInches)
	sec := secondary
	return VerificationResult{
		LocationID:         primary.LocationID,
		VerifiedSnowInches: primary.ObservedSnowInches,
		Verified:           disagreement <= v.toleranceInches,
		DisagreementInches: disagreement,
		Primary:            primary,
		Secondary:          &sec,
	}
}

// AcceptUnverified accepts the primary value alone when verification was
// skipped or impossible. Single-source data is trusted rather than silently
// dropped, but the skip reason is recorded so the notifier and logs can
// disclose reduced confidence.
func (v *Verifier) AcceptUnverified(primary SnowRecord, reason SkipReason) VerificationResult {
	return VerificationResult{
		LocationID:         primary.LocationID,
		VerifiedSnowInches: primary.ObservedSnowInches,
		Verified:           true,
		Skipped:            reason,
		Primary:            primary,
	}
}
