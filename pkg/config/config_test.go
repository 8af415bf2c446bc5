package config

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/chartconv/pkg/converter"
)

func TestLoadOverridesDefaults(t *testing.T) {
	fsys := fstest.MapFS{
		"chartconv.yaml": &fstest.MapFile{Data: []byte("creator: someone\nkey_count: 7\nsample_length: 20\n")},
	}

	defaults, err := Load(fsys, "chartconv.yaml")
	require.NoError(t, err)

	assert.Equal(t, "someone", defaults.Creator)
	assert.Equal(t, 7, defaults.KeyCount)
	assert.Equal(t, float32(20), defaults.SampleLength)
	assert.Equal(t, "Unknown Title", defaults.Title)
	assert.Equal(t, float32(7.2), defaults.OverallDifficulty)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "missing.yaml")
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	defaults, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, converter.DefaultDefaults(), defaults)
}

func TestDecodeRejectsBadKeyCount(t *testing.T) {
	_, err := Decode(strings.NewReader("key_count: 0\n"))
	assert.Error(t, err)
}

func TestWriteThenDecode(t *testing.T) {
	want := converter.DefaultDefaults()
	want.Genre = "Hardcore"
	want.MIDIBaseNote = 40

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))
	assert.Contains(t, buf.String(), "genre: Hardcore")

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFileEmptyPath(t *testing.T) {
	defaults, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 4, defaults.KeyCount)
}
