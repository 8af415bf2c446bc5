package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/chartconv/pkg/converter"
)

func TestFromOsu(t *testing.T) {
	chart, err := FromOsu(osuBasic)
	require.NoError(t, err)

	assert.Equal(t, "Test Song", chart.Metadata.Title)
	assert.Equal(t, "テストソング", chart.Metadata.AltTitle)
	assert.Equal(t, "Mapper", chart.Metadata.Creator)
	assert.Equal(t, "Game", chart.Metadata.Source)
	assert.Equal(t, []string{"jump", "stream"}, chart.Metadata.Tags)

	assert.Equal(t, 4, chart.Info.KeyCount)
	assert.Equal(t, "Hard", chart.Info.DifficultyName)
	assert.Equal(t, "audio.mp3", chart.Info.SongPath)
	assert.Equal(t, "bg.png", chart.Info.BackgroundPath)
	assert.Equal(t, 1000, chart.Info.PreviewTime)
	assert.Equal(t, 0, chart.Info.AudioOffset)

	require.Equal(t, 1, chart.TimingPoints.Len())
	assert.Equal(t, converter.ChangeBPM, chart.TimingPoints.Changes[0].Kind)
	assert.Equal(t, float32(120), chart.TimingPoints.Changes[0].Value)

	h := chart.HitObjects
	assert.Equal(t, []int{0, 500, 1000, 1500}, h.Times)
	assert.Equal(t, []float32{0, 1, 2, 3}, h.Beats)
	assert.Equal(t, converter.KeyNormal, h.Rows[0][0].Type)
	assert.Equal(t, converter.KeyNormal, h.Rows[1][1].Type)
	assert.Equal(t, converter.KeySliderStart, h.Rows[2][2].Type)
	assert.Equal(t, 1500, h.Rows[2][2].EndTime)
	assert.Equal(t, converter.KeySliderEnd, h.Rows[3][2].Type)

	assert.Equal(t, converter.KeySound{Volume: 80, HitSound: converter.HitSoundClap}, h.KeySound(1, 1))
	assert.Equal(t, converter.DefaultKeySound, h.KeySound(0, 0))

	require.NotNil(t, chart.SoundBank)
	assert.Equal(t, []string{"audio.mp3"}, chart.SoundBank.AudioTracks)
	assert.Equal(t, []converter.SoundEffect{{Time: 250, Volume: 60, Sample: 0}}, chart.SoundBank.SoundEffects)
	assert.True(t, chart.SoundBank.ContainsPath("clap.wav"))

	assert.Equal(t, 4, chart.Info.RowCount)
	assert.Equal(t, 4, chart.Info.ObjectCount)
}

func TestFromOsuSingleNote(t *testing.T) {
	text := "osu file format v14\n[General]\nMode: 3\n[Difficulty]\nCircleSize:4\n" +
		"[TimingPoints]\n0,500,4,1,0,100,1,0\n[HitObjects]\n64,192,1000,1,0,0:0:0:0:\n"
	chart, err := FromOsu(text)
	require.NoError(t, err)

	require.Equal(t, 1, chart.HitObjects.Len())
	assert.Equal(t, float32(2), chart.HitObjects.Beats[0])
	assert.Equal(t, converter.Row{
		converter.NewKey(converter.KeyNormal),
		converter.NewKey(converter.KeyEmpty),
		converter.NewKey(converter.KeyEmpty),
		converter.NewKey(converter.KeyEmpty),
	}, chart.HitObjects.Rows[0])
}

func TestFromOsuErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := FromOsu("  \n// only a comment\n")
		assert.ErrorIs(t, err, converter.ErrEmptyChartData)
	})

	t.Run("taiko mode", func(t *testing.T) {
		_, err := FromOsu(strings.Replace(osuBasic, "Mode: 3", "Mode: 1", 1))
		var modeErr *converter.InvalidModeError
		require.ErrorAs(t, err, &modeErr)
		assert.Equal(t, "Taiko", modeErr.Found)
		assert.Equal(t, "Mania", modeErr.Target)
	})

	tests := []struct {
		name string
		text string
	}{
		{"no timing points", strings.Replace(osuBasic, "0,500,4,1,0,100,1,0", "", 1)},
		{"only inherited points", strings.Replace(osuBasic, "0,500,4,1,0,100,1,0", "0,-100,4,1,0,100,0,0", 1)},
		{"bad uninherited flag", strings.Replace(osuBasic, "0,500,4,1,0,100,1,0", "0,500,4,1,0,100,2,0", 1)},
		{"bad key count", strings.Replace(osuBasic, "CircleSize:4", "CircleSize:x", 1)},
		{"zero key count", strings.Replace(osuBasic, "CircleSize:4", "CircleSize:0", 1)},
		{"bad hit object time", strings.Replace(osuBasic, "64,192,0,1,0", "64,192,soon,1,0", 1)},
		{"short hit object", osuBasic + "64,192\n"},
		{"hold without end", osuBasic + "64,192,2000,128,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromOsu(tt.text)
			var chartErr *converter.InvalidChartError
			assert.ErrorAs(t, err, &chartErr)
		})
	}
}

func TestFromOsuScrollVelocity(t *testing.T) {
	text := strings.Replace(osuBasic, "0,500,4,1,0,100,1,0",
		"0,500,4,1,0,100,1,1\n1000,-50,4,1,0,100,0,0\n1500,0,4,1,0,100,0,0", 1)
	chart, err := FromOsu(text)
	require.NoError(t, err)

	points := chart.TimingPoints.Points()
	require.Len(t, points, 3)
	assert.True(t, points[0].Kiai)
	assert.Equal(t, converter.ChangeSV, points[1].Kind)
	assert.Equal(t, float32(2), points[1].Value)
	assert.Equal(t, float32(2), points[1].Beat)
	assert.Equal(t, float32(osuMaxMultiplier), points[2].Value)
}

func TestColumnMapping(t *testing.T) {
	for _, keyCount := range []int{1, 4, 7, 10, 18} {
		for column := 0; column < keyCount; column++ {
			x := xFromColumn(column, keyCount)
			assert.Equal(t, column, columnFromX(x, keyCount), "%dk column %d at x=%d", keyCount, column, x)
		}
	}
	assert.Equal(t, 0, columnFromX(-20, 4))
	assert.Equal(t, 3, columnFromX(600, 4))
	assert.Equal(t, []int{64, 192, 320, 448}, []int{xFromColumn(0, 4), xFromColumn(1, 4), xFromColumn(2, 4), xFromColumn(3, 4)})
}

func TestToOsu(t *testing.T) {
	chart, err := FromOsu(osuBasic)
	require.NoError(t, err)

	text, err := ToOsu(chart)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "osu file format v14\n"))
	for _, want := range []string{
		"Mode: 3\n",
		"Title:Test Song\n",
		"Version:Hard\n",
		"Tags:jump stream\n",
		"CircleSize:4\n",
		"0,0,\"bg.png\",0,0\n",
		"Sample,250,0,\"clap.wav\",60\n",
		"[TimingPoints]\n0,500,4,1,0,100,1,0\n",
		"64,192,0,1,0,0:0:0:0:\n",
		"192,192,500,1,8,0:0:0:80:\n",
		"320,192,1000,128,0,1500:0:0:0:0:\n",
	} {
		assert.Contains(t, text, want)
	}
	assert.Equal(t, 3, strings.Count(text[strings.Index(text, "[HitObjects]"):], ",192,"))
}

func TestOsuRoundTrip(t *testing.T) {
	chart, err := FromOsu(osuBasic)
	require.NoError(t, err)
	first, err := ToOsu(chart)
	require.NoError(t, err)

	again, err := FromOsu(first)
	require.NoError(t, err)
	second, err := ToOsu(again)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, chart.HitObjects.Times, again.HitObjects.Times)
}

func TestToOsuStops(t *testing.T) {
	chart, err := FromSM(smBasic)
	require.NoError(t, err)

	text, err := ToOsu(chart)
	require.NoError(t, err)

	assert.Contains(t, text, "[TimingPoints]\n"+
		"100,500,4,1,0,100,1,0\n"+
		"1100,-10000,4,1,0,100,0,0\n"+
		"1600,-100,4,1,0,100,0,0\n"+
		"2600,250,4,1,0,100,1,0\n")
}

func TestToOsuErrors(t *testing.T) {
	chart, err := FromOsu(osuBasic)
	require.NoError(t, err)

	chart.Info.KeyCount = 19
	_, err = ToOsu(chart)
	var keyErr *converter.InvalidKeyCountError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, 19, keyErr.Count)

	empty := converter.NewChart(nil)
	_, err = ToOsu(empty)
	assert.True(t, errors.Is(err, converter.ErrNoTimingPoints))
}
