package converter

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestTimeToBeat(t *testing.T) {
	single := []BPMChange{{Time: 0, BPM: 120}}
	changing := []BPMChange{{Time: 0, BPM: 120}, {Time: 1000, BPM: 60}}

	tests := []struct {
		name  string
		time  int
		start int
		bpms  []BPMChange
		want  float32
	}{
		{"two beats at 120", 1000, 0, single, 2},
		{"origin", 0, 0, single, 0},
		{"before start", -5, 0, single, 0},
		{"offset start", 1500, 500, single, 2},
		{"across a change", 2000, 0, changing, 3},
		{"near whole beat rounds up", 990, 0, single, 2},
		{"half beat kept", 250, 0, single, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeToBeat(tt.time, tt.start, tt.bpms)
			if err != nil {
				t.Fatalf("TimeToBeat() error = %v", err)
			}
			if !approx(got, tt.want) {
				t.Errorf("TimeToBeat(%d) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}
}

func TestTimeToBeatEmptyTempoMap(t *testing.T) {
	if _, err := TimeToBeat(1000, 0, nil); !errors.Is(err, ErrInvalidTempoMap) {
		t.Errorf("TimeToBeat() error = %v, want ErrInvalidTempoMap", err)
	}
}

func TestTimeToBeatMonotonic(t *testing.T) {
	bpms := []BPMChange{{Time: 0, BPM: 150}, {Time: 3000, BPM: 90}, {Time: 7000, BPM: 200}}
	var prev float32
	for time := 0; time <= 10000; time += 37 {
		beat, err := TimeToBeat(time, 0, bpms)
		if err != nil {
			t.Fatalf("TimeToBeat() error = %v", err)
		}
		if beat < prev {
			t.Fatalf("TimeToBeat(%d) = %v, below the previous %v", time, beat, prev)
		}
		prev = beat
	}
}

func TestBeatToTime(t *testing.T) {
	bpm := []TempoChange{{Beat: 0, Value: 120, Kind: ChangeBPM}}
	withStop := []TempoChange{
		{Beat: 0, Value: 120, Kind: ChangeBPM},
		{Beat: 1, Value: 0.5, Kind: ChangeStop},
	}
	stopAtZero := []TempoChange{
		{Beat: 0, Value: 120, Kind: ChangeBPM},
		{Beat: 0, Value: 1, Kind: ChangeStop},
	}
	halfStopAtZero := []TempoChange{
		{Beat: 0, Value: 120, Kind: ChangeBPM},
		{Beat: 0, Value: 0.5, Kind: ChangeStop},
	}
	changing := []TempoChange{
		{Beat: 0, Value: 120, Kind: ChangeBPM},
		{Beat: 4, Value: 240, Kind: ChangeBPM},
	}

	tests := []struct {
		name    string
		beat    float32
		start   int
		changes []TempoChange
		want    float32
	}{
		{"two beats at 120", 2, 0, bpm, 1000},
		{"offset", 2, -250, bpm, 750},
		{"negative beat", -1, 100, bpm, 100},
		{"before stop", 0.5, 0, withStop, 250},
		{"at stop", 1, 0, withStop, 1000},
		{"after stop", 2, 0, withStop, 1500},
		{"stop at beat zero", 1, 0, stopAtZero, 1500},
		{"downbeat after a stop at zero", 0, 0, halfStopAtZero, 500},
		{"bpm kept through a stop at zero", 2, 0, halfStopAtZero, 1500},
		{"across a change", 6, 0, changing, 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BeatToTime(tt.beat, tt.start, tt.changes)
			if err != nil {
				t.Fatalf("BeatToTime() error = %v", err)
			}
			if !approx(got, tt.want) {
				t.Errorf("BeatToTime(%v) = %v, want %v", tt.beat, got, tt.want)
			}
		})
	}

	if _, err := BeatToTime(1, 0, nil); !errors.Is(err, ErrInvalidTempoMap) {
		t.Errorf("BeatToTime() error = %v, want ErrInvalidTempoMap", err)
	}
}

func TestBeatTimeRoundTrip(t *testing.T) {
	bpms := []BPMChange{{Time: 0, BPM: 174}}
	changes := []TempoChange{{Beat: 0, Value: 174, Kind: ChangeBPM}}

	for _, beat := range []float32{0, 0.25, 1, 3.5, 17, 64.75} {
		time, err := BeatToTime(beat, 0, changes)
		if err != nil {
			t.Fatalf("BeatToTime() error = %v", err)
		}
		back, err := TimeToBeat(int(math.Round(float64(time))), 0, bpms)
		if err != nil {
			t.Fatalf("TimeToBeat() error = %v", err)
		}
		if math.Abs(float64(back-beat)) > 0.01 {
			t.Errorf("round trip of beat %v gave %v", beat, back)
		}
	}
}

func TestThresholdedCeil(t *testing.T) {
	tests := []struct {
		value float32
		want  float32
	}{
		{1.5, 1.5},
		{2.96, 3},
		{3, 3},
		{0.95, 1},
		{0.94, 0.94},
	}

	for _, tt := range tests {
		if got := ThresholdedCeil(tt.value, BeatThreshold); !approx(got, tt.want) {
			t.Errorf("ThresholdedCeil(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSnapToNoteType(t *testing.T) {
	tests := []struct {
		gap  float32
		want float32
	}{
		{1, 1},
		{5, 1},
		{0.3, 1.0 / 3},
		{0.26, 0.25},
		{0.02, 1.0 / 48},
	}

	for _, tt := range tests {
		if got := SnapToNoteType(tt.gap); got != tt.want {
			t.Errorf("SnapToNoteType(%v) = %v, want %v", tt.gap, got, tt.want)
		}
	}
}

func TestMergeBPMsAndStops(t *testing.T) {
	bpms := []BeatValue{{Beat: 0, Value: 120}, {Beat: 4, Value: 240}}
	stops := []BeatValue{{Beat: 2, Value: 1}, {Beat: 4, Value: 0.5}}

	want := []TempoChange{
		{Beat: 0, Value: 120, Kind: ChangeBPM},
		{Beat: 2, Value: 1, Kind: ChangeStop},
		{Beat: 4, Value: 240, Kind: ChangeBPM},
		{Beat: 4, Value: 0.5, Kind: ChangeStop},
	}
	if got := MergeBPMsAndStops(bpms, stops); !reflect.DeepEqual(got, want) {
		t.Errorf("MergeBPMsAndStops() = %v, want %v", got, want)
	}

	if got := MergeBPMsAndStops(bpms, nil); len(got) != 2 || got[1].Kind != ChangeBPM {
		t.Errorf("MergeBPMsAndStops() without stops = %v", got)
	}
}
