package converter

import (
	"errors"
	"fmt"
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrEmptyChartData, "cannot parse because empty chart data was provided"},
		{MissingField("end time", "64,192"),
			"failed to parse because invalid chart data provided or file is malformed: missing end time: '64,192'"},
		{BadField("time", "soon", "64,192,soon", errors.New("bad")),
			"failed to parse because invalid chart data provided or file is malformed: failed to parse time 'soon' in '64,192,soon': bad"},
		{&InvalidModeError{Found: "Taiko", Target: "Mania"},
			"cannot parse because 'Taiko' mode is invalid or not supported, parsing for Mania"},
		{&InvalidKeyCountError{Count: 5, Supported: "4k and 7k", Format: "Quaver"},
			"cannot write 5k chart: Quaver only supports 4k and 7k"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	for _, err := range []error{ErrEmptyChartData, ErrUnsupportedFormat, ErrNoTimingPoints, ErrInvalidTempoMap} {
		r, _ := utf8.DecodeRuneInString(err.Error())
		if unicode.IsUpper(r) {
			t.Errorf("error %q starts with an upper-case letter", err)
		}
	}
}

func TestInvalidChartWraps(t *testing.T) {
	err := fmt.Errorf("failed to parse osu chart: %w", InvalidChart("no BPM data provided in the chart"))

	var chartErr *InvalidChartError
	if !errors.As(err, &chartErr) {
		t.Fatalf("errors.As() found no InvalidChartError in %v", err)
	}
	if chartErr.Detail != "no BPM data provided in the chart" {
		t.Errorf("Detail = %q", chartErr.Detail)
	}
}
