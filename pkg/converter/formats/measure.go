package formats

import (
	"math"
	"slices"

	"github.com/james-see/chartconv/pkg/converter"
)

// Measure layout constants
const (
	BeatsPerMeasure = 4
	// MeasureEpsilon is how far in beats a row may sit from its grid slot
	MeasureEpsilon float32 = 0.15
	// minBeatGap ignores duplicate rows when looking for the smallest gap
	minBeatGap float32 = 1e-5
	// measureScale quantizes beats to 1/24 before picking their measure
	measureScale = 24
)

// Measure is a fixed grid of evenly spaced rows covering four beats
type Measure []converter.Row

// EmptyMeasure returns a measure of rowCount empty rows
func EmptyMeasure(keyCount, rowCount int) Measure {
	measure := make(Measure, rowCount)
	for i := range measure {
		measure[i] = converter.NewRow(keyCount)
	}
	return measure
}

// PadMeasure lays rows out on a note grid. beats are relative to the start
// of the measure. The smallest gap between rows is snapped to the nearest
// note type and every row fills the slot within MeasureEpsilon of it. When a
// row is further than that from every slot, or two rows would share a slot,
// finer note types are tried in turn. Rows that land on the slot past the
// last one belong to the next downbeat and are returned as carried.
func PadMeasure(beats []float32, rows []converter.Row, keyCount int) (Measure, []converter.Row) {
	if len(rows) == 0 {
		return EmptyMeasure(keyCount, BeatsPerMeasure), nil
	}

	minGap := float32(BeatsPerMeasure)
	var prev float32
	for _, beat := range beats {
		if gap := beat - prev; gap > minBeatGap && gap < minGap {
			minGap = gap
		}
		prev = beat
	}

	idx := slices.Index(converter.NoteTypes[:], converter.SnapToNoteType(minGap))
	for idx < len(converter.NoteTypes)-1 && !fitsGrid(beats, converter.NoteTypes[idx]) {
		idx++
	}
	snap := converter.NoteTypes[idx]

	rowCount := int(math.Round(float64(BeatsPerMeasure / snap)))
	measure := EmptyMeasure(keyCount, rowCount)
	var carried []converter.Row
	for i, beat := range beats {
		slot := max(gridSlot(beat, snap), 0)
		if slot >= rowCount {
			carried = append(carried, rows[i])
			continue
		}
		mergeRow(measure[slot], rows[i])
	}

	return measure, carried
}

func gridSlot(beat, snap float32) int {
	return int(math.Round(float64(beat / snap)))
}

// fitsGrid reports whether every beat lies within MeasureEpsilon of a slot
// of snap with no two distinct beats sharing a slot
func fitsGrid(beats []float32, snap float32) bool {
	lastSlot := math.MinInt
	var lastBeat float32
	for _, beat := range beats {
		slot := gridSlot(beat, snap)
		if float32(math.Abs(float64(beat-float32(slot)*snap))) > MeasureEpsilon {
			return false
		}
		if slot == lastSlot && beat-lastBeat > minBeatGap {
			return false
		}
		lastSlot, lastBeat = slot, beat
	}
	return true
}

// mergeRow copies the non-empty keys of src into dst. A slider start
// already in dst is kept.
func mergeRow(dst, src converter.Row) {
	for lane, key := range src {
		if lane >= len(dst) || key.Type == converter.KeyEmpty {
			continue
		}
		if dst[lane].Type == converter.KeySliderStart && key.Type != converter.KeySliderStart {
			continue
		}
		dst[lane] = key
	}
}

// measureIndex returns the measure a beat falls in after quantizing it to 1/24 beat
func measureIndex(beat float32) int {
	scaled := math.Round(float64(beat * measureScale))
	return int(scaled / (measureScale * BeatsPerMeasure))
}

// BuildMeasures splits the note grid into padded measures. Every measure
// from the first to the last holding a row is emitted, gaps become
// four-row empty measures so boundaries stay on multiples of four beats.
// A row snapped onto the next barline opens the following measure.
func BuildMeasures(h *converter.HitObjects, keyCount int) []Measure {
	if h.Len() == 0 {
		return []Measure{EmptyMeasure(keyCount, BeatsPerMeasure)}
	}

	last := measureIndex(h.Beats[h.Len()-1])
	measures := make([]Measure, 0, last+1)

	var carried []converter.Row
	i := 0
	for m := 0; m <= last || len(carried) > 0; m++ {
		start := float32(m * BeatsPerMeasure)
		beats := make([]float32, len(carried))
		rows := carried
		for ; i < h.Len() && measureIndex(h.Beats[i]) <= m; i++ {
			beats = append(beats, h.Beats[i]-start)
			rows = append(rows, h.Rows[i])
		}

		var measure Measure
		measure, carried = PadMeasure(beats, rows, keyCount)
		measures = append(measures, measure)
	}

	return measures
}
