package domain

import "fmt"

// DataFormatError reports a malformed provider payload: a required field that
// is absent, of the wrong type, or carries a value no real observation can
// produce (such as negative snowfall). It is local to one location and must
// never abort a polling cycle.
type DataFormatError struct {
	Source string // provider identifier, e.g. "openweathermap"
	Field  string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s: bad %s: %s", e.Source, e.Field, e.Reason)
}

// FetchError reports a network or provider failure while retrieving data for
// one location. The engine surfaces it as missing data; it does not retry.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigurationError reports an invalid setting detected at load time.
// Configuration errors are fatal: the service refuses to start rather than
// run with inconsistent thresholds or windows.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Setting, e.Reason)
}
