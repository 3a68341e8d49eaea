package domain

import "context"

// SnowSource retrieves snow data for a location from one weather provider.
type SnowSource interface {
	// Name returns the provider identifier used to tag records, e.g.
	// "openweathermap".
	Name() string

	// FetchSnow retrieves and normalizes the provider's reading for loc.
	// Network and provider failures are reported as a *FetchError; malformed
	// payloads as a *DataFormatError.
	FetchSnow(ctx context.Context, loc Location) (SnowRecord, error)
}
