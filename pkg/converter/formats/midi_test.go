package formats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/chartconv/pkg/converter"
)

type midiNote struct {
	tick uint32
	key  uint8
	on   bool
}

func readMIDI(t *testing.T, data []byte) (*smf.SMF, []midiNote, []float64) {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var notes []midiNote
	var tempos []float64
	var tick uint32
	for _, ev := range s.Tracks[0] {
		tick += ev.Delta
		var ch, key, vel uint8
		var bpm float64
		switch {
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			assert.Equal(t, uint8(midiDrumChannel), ch)
			notes = append(notes, midiNote{tick, key, true})
		case ev.Message.GetNoteEnd(&ch, &key):
			notes = append(notes, midiNote{tick, key, false})
		case ev.Message.GetMetaTempo(&bpm):
			tempos = append(tempos, bpm)
		}
	}
	return s, notes, tempos
}

func TestMIDIGenerate(t *testing.T) {
	chart, err := FromOsu(osuBasic)
	require.NoError(t, err)

	data, err := NewMIDI(nil).Generate(chart)
	require.NoError(t, err)

	s, notes, tempos := readMIDI(t, data)
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	require.True(t, ok)
	assert.Equal(t, uint16(480), ticks.Resolution())
	assert.InDelta(t, 120, tempos[0], 0.01)

	assert.Equal(t, []midiNote{
		{0, 36, true},
		{120, 36, false},
		{480, 37, true},
		{600, 37, false},
		{960, 38, true},
		{1440, 38, false},
	}, notes)
}

func TestMIDIGenerateTempoChanges(t *testing.T) {
	chart, err := FromSM(smBasic)
	require.NoError(t, err)

	data, err := NewMIDI(nil).Generate(chart)
	require.NoError(t, err)

	_, notes, tempos := readMIDI(t, data)
	require.Len(t, tempos, 2)
	assert.InDelta(t, 240, tempos[1], 0.01)

	var starts int
	for _, note := range notes {
		if note.on {
			starts++
		}
	}
	assert.Equal(t, 5, starts, "hold ends do not start notes")
}

func TestMIDIDefaults(t *testing.T) {
	d := converter.DefaultDefaults()
	d.MIDIBaseNote = 60
	d.MIDITicksPerQuarter = 96

	chart, err := FromOsu(osuBasic)
	require.NoError(t, err)
	data, err := NewMIDI(d).Generate(chart)
	require.NoError(t, err)

	s, notes, _ := readMIDI(t, data)
	assert.Equal(t, smf.MetricTicks(96), s.TimeFormat)
	assert.Equal(t, uint8(60), notes[0].key)
	assert.Equal(t, uint32(24), notes[1].tick)
}

func TestMIDIErrors(t *testing.T) {
	m := NewMIDI(nil)
	assert.False(t, m.CanParse())

	_, err := m.Parse([]byte("MThd"))
	assert.ErrorIs(t, err, converter.ErrUnsupportedFormat)

	_, err = m.Generate(converter.NewChart(nil))
	assert.ErrorIs(t, err, converter.ErrNoTimingPoints)
}
