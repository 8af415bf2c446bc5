package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a chart file format
type Format string

const (
	FormatOsu       Format = "osu"
	FormatStepMania Format = "sm"
	FormatQuaver    Format = "qua"
	FormatMIDI      Format = "midi"
	FormatUnknown   Format = "unknown"
)

// Extension returns the file extension written for a format
func (f Format) Extension() string {
	switch f {
	case FormatOsu:
		return ".osu"
	case FormatStepMania:
		return ".sm"
	case FormatQuaver:
		return ".qua"
	case FormatMIDI:
		return ".mid"
	default:
		return ""
	}
}

// ParseFormat converts a format name to a Format
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "osu", "mania":
		return FormatOsu
	case "sm", "stepmania":
		return FormatStepMania
	case "qua", "quaver":
		return FormatQuaver
	case "mid", "midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// ParsePair splits a conversion name such as "osu2sm" into its formats
func ParsePair(pair string) (from, to Format, ok bool) {
	a, b, found := strings.Cut(pair, "2")
	if !found {
		return FormatUnknown, FormatUnknown, false
	}
	from, to = ParseFormat(a), ParseFormat(b)
	if from == FormatUnknown || to == FormatUnknown {
		return FormatUnknown, FormatUnknown, false
	}
	return from, to, true
}

// PairName returns the conversion name for two formats, e.g. "osu2sm"
func PairName(from, to Format) string {
	return string(from) + "2" + string(to)
}

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".osu":
		return FormatOsu
	case ".sm":
		return FormatStepMania
	case ".qua":
		return FormatQuaver
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.TrimSpace(bytes.TrimPrefix(head, utf8BOM))

	switch {
	case bytes.HasPrefix(head, []byte("osu file format")):
		return FormatOsu
	case bytes.Contains(head, []byte("#TITLE:")) || bytes.Contains(data, []byte("#NOTES:")):
		return FormatStepMania
	case bytes.Contains(head, []byte("Mode: Keys")) || bytes.Contains(data, []byte("\nHitObjects:")):
		return FormatQuaver
	default:
		return FormatUnknown
	}
}

// Codec reads and writes one chart format
type Codec interface {
	Name() string
	Format() Format
	// CanParse reports whether Parse is implemented; write-only codecs return false
	CanParse() bool
	Parse(data []byte) (*Chart, error)
	Generate(chart *Chart) ([]byte, error)
}

// Converter handles format conversions between registered codecs
type Converter struct {
	codecs map[Format]Codec
	order  []Format
}

// New creates a new Converter with the specified codecs
func New(codecs ...Codec) *Converter {
	c := &Converter{codecs: make(map[Format]Codec)}
	for _, codec := range codecs {
		c.Register(codec)
	}
	return c
}

// Register adds a codec, replacing any codec of the same format
func (c *Converter) Register(codec Codec) {
	if _, ok := c.codecs[codec.Format()]; !ok {
		c.order = append(c.order, codec.Format())
	}
	c.codecs[codec.Format()] = codec
}

// Codec returns the codec of a format
func (c *Converter) Codec(format Format) (Codec, bool) {
	codec, ok := c.codecs[format]
	return codec, ok
}

// Formats returns the registered formats in registration order
func (c *Converter) Formats() []Format {
	return append([]Format(nil), c.order...)
}

// Parse decodes data of the given format into a chart
func (c *Converter) Parse(data []byte, format Format) (*Chart, error) {
	codec, ok := c.codecs[format]
	if !ok || !codec.CanParse() {
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
	return codec.Parse(data)
}

// Generate encodes a chart into the given format
func (c *Converter) Generate(chart *Chart, format Format) ([]byte, error) {
	codec, ok := c.codecs[format]
	if !ok {
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
	return codec.Generate(chart)
}

// Convert converts chart data from one format to another
func (c *Converter) Convert(data []byte, from, to Format) ([]byte, error) {
	chart, err := c.Parse(data, from)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s chart: %w", from, err)
	}
	out, err := c.Generate(chart, to)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s chart: %w", to, err)
	}
	Logf("converted %s -> %s: %d rows, %d objects", from, to, chart.Info.RowCount, chart.Info.ObjectCount)
	return out, nil
}

// ReadFile reads a chart file and detects its format, by extension first
// and by content when the extension is not recognised
func ReadFile(path string) ([]byte, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("failed to read input file: %w", err)
	}
	format := DetectFormat(path)
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}
	return data, format, nil
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	data, inputFormat, err := ReadFile(inputPath)
	if err != nil {
		return err
	}
	if inputFormat == FormatUnknown {
		return fmt.Errorf("%s: %w", inputPath, ErrUnsupportedFormat)
	}

	outputData, err := c.Convert(data, inputFormat, outputFormat)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// SupportedConversions returns a list of supported conversion paths
func (c *Converter) SupportedConversions() []string {
	var conversions []string
	for _, pair := range c.Pairs() {
		conversions = append(conversions, fmt.Sprintf("%s -> %s", pair[0], pair[1]))
	}
	return conversions
}

// Pairs returns the supported conversions as (from, to) pairs
func (c *Converter) Pairs() [][2]Format {
	var pairs [][2]Format
	for _, from := range c.order {
		if !c.codecs[from].CanParse() {
			continue
		}
		for _, to := range c.order {
			if from != to {
				pairs = append(pairs, [2]Format{from, to})
			}
		}
	}
	return pairs
}
