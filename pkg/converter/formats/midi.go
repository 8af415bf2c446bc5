package formats

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/chartconv/pkg/converter"
)

// midiDrumChannel is the General MIDI percussion channel
const midiDrumChannel = 9

// MIDI writes a chart as a Standard MIDI File for auditioning its rhythm.
// Each lane plays its own note on the percussion channel.
type MIDI struct {
	defaults *converter.Defaults
}

// NewMIDI creates a new MIDI preview writer. A nil defaults uses the built-in ones.
func NewMIDI(defaults *converter.Defaults) *MIDI {
	if defaults == nil {
		defaults = converter.DefaultDefaults()
	}
	return &MIDI{defaults: defaults}
}

// Name returns the codec name
func (m *MIDI) Name() string {
	return "MIDI preview"
}

// Format returns the format handled by the codec
func (m *MIDI) Format() converter.Format {
	return converter.FormatMIDI
}

// CanParse reports that MIDI files cannot be read back into charts
func (m *MIDI) CanParse() bool {
	return false
}

// Parse always fails, MIDI is an export target only
func (m *MIDI) Parse(data []byte) (*converter.Chart, error) {
	return nil, fmt.Errorf("midi: %w", converter.ErrUnsupportedFormat)
}

type midiEvent struct {
	tick uint32
	off  bool
	msg  smf.Message
}

// Generate creates MIDI data from a Chart
func (m *MIDI) Generate(chart *converter.Chart) ([]byte, error) {
	if !chart.TimingPoints.HasBPM() {
		return nil, converter.ErrNoTimingPoints
	}

	tpq := m.defaults.MIDITicksPerQuarter
	if tpq == 0 {
		tpq = 480
	}
	toTick := func(beat float32) uint32 {
		return uint32(math.Round(float64(max(beat, 0)) * float64(tpq)))
	}

	var events []midiEvent
	for _, point := range chart.TimingPoints.Points(converter.ChangeBPM) {
		events = append(events, midiEvent{tick: toTick(point.Beat), msg: smf.MetaTempo(float64(point.Value))})
	}

	hitObjects := &chart.HitObjects
	bpms := chart.TimingPoints.BPMChanges()
	tapLength := uint32(tpq / 4)

	for i, row := range hitObjects.Rows {
		start := toTick(hitObjects.Beats[i])
		for lane, key := range row {
			var length uint32
			switch key.Type {
			case converter.KeyNormal:
				length = tapLength
			case converter.KeySliderStart:
				endBeat, err := converter.TimeToBeat(hitObjects.SliderEndTime(i, lane), chart.Info.AudioOffset, bpms)
				if err != nil {
					return nil, fmt.Errorf("failed to place hold end: %w", err)
				}
				length = tapLength
				if end := toTick(endBeat); end > start+tapLength {
					length = end - start
				}
			default:
				continue
			}

			note := m.defaults.MIDIBaseNote + uint8(lane)
			velocity := uint8(min(127, int(hitObjects.KeySound(i, lane).Volume)*127/100))
			if velocity == 0 {
				velocity = 100
			}
			events = append(events,
				midiEvent{tick: start, msg: smf.Message(midi.NoteOn(midiDrumChannel, note, velocity))},
				midiEvent{tick: start + length, off: true, msg: smf.Message(midi.NoteOff(midiDrumChannel, note))},
			)
		}
	}

	// Note offs go first so a lane can retrigger on the tick its previous note ends
	slices.SortStableFunc(events, func(a, b midiEvent) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		switch {
		case a.off && !b.off:
			return -1
		case !a.off && b.off:
			return 1
		}
		return 0
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(tpq)

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(chart.Metadata.Title))
	track.Add(0, smf.MetaMeter(4, 4))

	var current uint32
	for _, event := range events {
		track.Add(event.tick-current, event.msg)
		current = event.tick
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	converter.Logf("midi preview: %d events at %d ticks per quarter", len(events), tpq)
	return buf.Bytes(), nil
}
