package converter

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the parsers and writers
var (
	ErrEmptyChartData    = errors.New("cannot parse because empty chart data was provided")
	ErrUnsupportedFormat = errors.New("cannot parse because this is an unsupported file format")
	ErrNoTimingPoints    = errors.New("chart has no BPM timing points")
	ErrInvalidTempoMap   = errors.New("tempo map is empty or malformed")
)

// InvalidChartError reports a required field that is missing or unparsable
type InvalidChartError struct {
	Detail string
}

func (e *InvalidChartError) Error() string {
	return "failed to parse because invalid chart data provided or file is malformed: " + e.Detail
}

// InvalidChart creates an InvalidChartError with a formatted detail
func InvalidChart(format string, args ...any) error {
	return &InvalidChartError{Detail: fmt.Sprintf(format, args...)}
}

// MissingField reports a field absent from a raw line
func MissingField(field, raw string) error {
	return InvalidChart("missing %s: '%s'", field, raw)
}

// BadField reports a field that failed to parse
func BadField(field, value, raw string, err error) error {
	return InvalidChart("failed to parse %s '%s' in '%s': %v", field, value, raw, err)
}

// InvalidModeError reports a game mode the parser cannot handle
type InvalidModeError struct {
	Found  string
	Target string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("cannot parse because '%s' mode is invalid or not supported, parsing for %s", e.Found, e.Target)
}

// InvalidKeyCountError reports a lane count the target format cannot express
type InvalidKeyCountError struct {
	Count     int
	Supported string
	Format    string
}

func (e *InvalidKeyCountError) Error() string {
	return fmt.Sprintf("cannot write %dk chart: %s only supports %s", e.Count, e.Format, e.Supported)
}
