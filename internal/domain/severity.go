package domain

import "fmt"

// Tier is an ordered snowfall severity classification. Higher values are
// strictly more severe; comparisons with < and > are meaningful.
type Tier int

const (
	TierNone Tier = iota
	TierLight
	TierModerate
	TierHeavy
)

var tierNames = map[Tier]string{
	TierNone:     "none",
	TierLight:    "light",
	TierModerate: "moderate",
	TierHeavy:    "heavy",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText encodes the tier as its name, so JSON and state records carry
// "moderate" instead of a bare integer.
func (t Tier) MarshalText() ([]byte, error) {
	name, ok := tierNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown tier %d", int(t))
	}
	return []byte(name), nil
}

func (t *Tier) UnmarshalText(data []byte) error {
	parsed, err := ParseTier(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier converts a tier name back to its ordered value.
func ParseTier(name string) (Tier, error) {
	for tier, n := range tierNames {
		if n == name {
			return tier, nil
		}
	}
	return TierNone, fmt.Errorf("unknown tier %q", name)
}

// Thresholds holds the inclusive lower bounds, in inches, for each tier
// above none.
type Thresholds struct {
	Light    float64
	Moderate float64
	Heavy    float64
}

// DefaultThresholds returns the stock 2/6/12 inch tier bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{Light: 2, Moderate: 6, Heavy: 12}
}

// Validate checks that the bounds are positive and strictly increasing.
func (t Thresholds) Validate() error {
	if t.Light <= 0 {
		return &ConfigurationError{Setting: "thresholds.light", Reason: fmt.Sprintf("%g must be positive", t.Light)}
	}
	if t.Moderate <= t.Light {
		return &ConfigurationError{
			Setting: "thresholds.moderate",
			Reason:  fmt.Sprintf("%g must exceed light threshold %g", t.Moderate, t.Light),
		}
	}
	if t.Heavy <= t.Moderate {
		return &ConfigurationError{
			Setting: "thresholds.heavy",
			Reason:  fmt.Sprintf("%g must exceed moderate threshold %g", t.Heavy, t.Moderate),
		}
	}
	return nil
}

// Classifier maps a verified snowfall amount to a severity tier using an
// ordered threshold table. The table is validated once at construction.
type Classifier struct {
	// bounds are walked highest tier first; each entry is an inclusive
	// lower bound.
	bounds []tierBound
}

type tierBound struct {
	tier Tier
	min  float64
}

// NewClassifier validates the thresholds and builds the lookup table.
// A misconfiguration is returned as a *ConfigurationError.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		bounds: []tierBound{
			{tier: TierHeavy, min: t.Heavy},
			{tier: TierModerate, min: t.Moderate},
			{tier: TierLight, min: t.Light},
		},
	}, nil
}

// Classify returns the highest tier whose lower bound inches meets, or
// TierNone below the light threshold. Monotonic non-decreasing in inches.
func (c *Classifier) Classify(inches float64) Tier {
	for _, b := range c.bounds {
		if inches >= b.min {
			return b.tier
		}
	}
	return TierNone
}
