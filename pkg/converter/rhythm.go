package converter

import (
	"cmp"
	"math"
	"slices"
	"sort"
)

// BeatThreshold is the fractional part above which a computed beat is
// rounded up to the next whole beat
const BeatThreshold float32 = 0.95

// NoteTypes lists the note subdivisions a measure can be snapped to, in
// beats: 4th, 8th, 12th, 16th, 24th, 32nd, 48th, 64th and 192nd notes
var NoteTypes = [9]float32{
	1.0,
	0.5,
	1.0 / 3,
	0.25,
	1.0 / 6,
	0.125,
	1.0 / 12,
	0.0625,
	1.0 / 48,
}

// BPMChange is a tempo change keyed by absolute time in milliseconds
type BPMChange struct {
	Time int
	BPM  float32
}

// BeatValue is a beat=value pair as found in StepMania #BPMS and #STOPS
type BeatValue struct {
	Beat  float32
	Value float32
}

// TempoChange is a tempo change or a stop keyed by beat.
// Value holds the BPM for ChangeBPM and the pause length in seconds for ChangeStop.
type TempoChange struct {
	Beat  float32
	Value float32
	Kind  ChangeKind
}

// ThresholdedCeil rounds value up to the next integer when its fractional
// part reaches threshold, otherwise value is returned unchanged
func ThresholdedCeil(value, threshold float32) float32 {
	whole := float32(math.Trunc(float64(value)))
	if value-whole >= threshold {
		return float32(math.Floor(float64(value))) + 1
	}
	return value
}

// TimeToBeat returns the number of beats elapsed between start and time
// under the given tempo changes, which must be sorted by time.
// Times before start map to beat 0.
func TimeToBeat(time, start int, bpms []BPMChange) (float32, error) {
	if len(bpms) == 0 {
		return 0, ErrInvalidTempoMap
	}
	if time < start {
		return 0, nil
	}

	startIdx := sort.Search(len(bpms), func(i int) bool { return bpms[i].Time > start })
	endIdx := sort.Search(len(bpms), func(i int) bool { return bpms[i].Time > time })

	var current float32
	if startIdx > 0 {
		current = bpms[startIdx-1].BPM
	}

	var total float32
	prev := start
	for _, change := range bpms[startIdx:endIdx] {
		total += float32(float32(change.Time-prev) * current / 60000)
		prev = change.Time
		current = change.BPM
	}
	total += float32(float32(time-prev) * current / 60000)

	return ThresholdedCeil(total, BeatThreshold), nil
}

// BeatToTime returns the absolute time in milliseconds of beat, given the
// chart origin start and tempo changes sorted by beat. Stops add their
// duration once the beat reaches them; segments under a zero BPM take no time.
func BeatToTime(beat float32, start int, changes []TempoChange) (float32, error) {
	if len(changes) == 0 {
		return 0, ErrInvalidTempoMap
	}

	total := float32(start)
	if beat < 0 {
		return total, nil
	}

	startIdx := sort.Search(len(changes), func(i int) bool { return changes[i].Beat > 0 })
	endIdx := sort.Search(len(changes), func(i int) bool { return changes[i].Beat > beat })

	// the last BPM at or before beat 0 is the starting tempo, stops there still pause
	var current float32
	for _, change := range changes[:startIdx] {
		switch change.Kind {
		case ChangeBPM:
			current = change.Value
		case ChangeStop:
			total += float32(change.Value * 1000)
		}
	}

	var prev float32
	for _, change := range changes[startIdx:endIdx] {
		if current != 0 {
			total += float32((change.Beat - prev) * (60000 / current))
		}
		prev = change.Beat

		switch change.Kind {
		case ChangeBPM:
			current = change.Value
		case ChangeStop:
			total += float32(change.Value * 1000)
		}
	}

	if current != 0 {
		total += float32((beat - prev) * (60000 / current))
	}

	return total, nil
}

// SnapToNoteType returns the entry of NoteTypes closest to gap
func SnapToNoteType(gap float32) float32 {
	nearest := NoteTypes[0]
	minDiff := float32(math.MaxFloat32)
	for _, noteType := range NoteTypes {
		if diff := float32(math.Abs(float64(noteType - gap))); diff < minDiff {
			minDiff = diff
			nearest = noteType
		}
	}
	return nearest
}

// MergeBPMsAndStops merges StepMania BPM and stop lists into one change
// list ordered by beat. Entries sharing a beat keep their input order,
// BPMs before stops.
func MergeBPMsAndStops(bpms, stops []BeatValue) []TempoChange {
	merged := make([]TempoChange, 0, len(bpms)+len(stops))
	for _, bpm := range bpms {
		merged = append(merged, TempoChange{Beat: bpm.Beat, Value: bpm.Value, Kind: ChangeBPM})
	}
	for _, stop := range stops {
		merged = append(merged, TempoChange{Beat: stop.Beat, Value: stop.Value, Kind: ChangeStop})
	}

	if len(bpms) > 0 && len(stops) > 0 {
		slices.SortStableFunc(merged, func(a, b TempoChange) int {
			return cmp.Compare(a.Beat, b.Beat)
		})
	}

	return merged
}
