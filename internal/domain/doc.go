// Package domain models snowfall observations and the alert decision rules
// applied to them.
//
// # Data Sources
//
// Snow data comes from two independent weather providers polled per cycle:
//
//	Primary:   OpenWeatherMap (current weather + 5-day/3-hour forecast).
//	           Snow volumes are reported in millimeters regardless of the
//	           "units" query parameter; temperatures follow the requested
//	           imperial units.
//	Secondary: WeatherAPI.com (1-day forecast). Daily snow totals are
//	           reported in centimeters; current temperature in Fahrenheit.
//
// All amounts are normalized to inches at record-build time and never
// rounded there; rounding happens only when a message is rendered.
//
//	cm → in: divide by 2.54
//	mm → in: divide by 25.4
//	°C → °F: (c × 9/5) + 32
//
// A negative snow amount indicates a corrupt upstream payload and is rejected
// as a DataFormatError rather than clamped to zero.
//
// # Cross-Source Verification
//
// A single provider occasionally reports phantom snowfall. When the primary
// reading exceeds a small noise floor (default 0.1 in), the secondary source
// is consulted and the two amounts must agree within a fixed tolerance in
// inches (default 2.0). When the secondary source is unavailable or the
// reading is below the noise floor, the primary value is accepted alone and
// the result is flagged so downstream consumers can disclose reduced
// confidence. The verified amount is always the primary source's number,
// never an average: once corroborated, the primary is trusted outright.
//
// # Severity Tiers
//
// Verified snowfall maps to an ordered tier scale used for alert routing:
//
//	light    ≥ 2 in (default)
//	moderate ≥ 6 in
//	heavy    ≥ 12 in
//
// Thresholds are configurable but must be strictly increasing; the table is
// validated once when the Classifier is constructed, and a misconfiguration
// refuses startup instead of silently misclassifying.
package domain
