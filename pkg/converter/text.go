package converter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// CommentStyle selects where a comment marker is recognised
type CommentStyle uint8

const (
	// CommentLine only strips lines whose first non-blank text is the marker
	CommentLine CommentStyle = iota
	// CommentInline strips from the first marker anywhere in a line
	CommentInline
	// CommentSpaced strips from a marker at line start or after whitespace
	CommentSpaced
)

// RemoveComments strips comments and drops blank lines. Leading
// indentation of the remaining lines is kept.
func RemoveComments(text, marker string, style CommentStyle) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if idx := commentIndex(line, marker, style); idx >= 0 {
			line = line[:idx]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

func commentIndex(line, marker string, style CommentStyle) int {
	switch style {
	case CommentLine:
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			return 0
		}
		return -1
	case CommentInline:
		return strings.Index(line, marker)
	default:
		offset := 0
		for {
			idx := strings.Index(line[offset:], marker)
			if idx < 0 {
				return -1
			}
			idx += offset
			if idx == 0 || unicode.IsSpace(rune(line[idx-1])) {
				return idx
			}
			offset = idx + len(marker)
		}
	}
}

// SplitKeyValue splits a line at its first colon and trims both halves
func SplitKeyValue(raw string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(raw, ":")
	return strings.TrimSpace(key), strings.TrimSpace(value), ok
}

// OrDefault returns def when value is blank
func OrDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

// Number is a numeric type ParseOrDefault can produce
type Number interface {
	int | int32 | int64 | uint8 | float32 | float64
}

// ParseOrDefault parses value, falling back to def when value does not
// parse. It panics when def does not parse either.
func ParseOrDefault[T Number](value, def string) T {
	if v, err := parseNumber[T](strings.TrimSpace(value)); err == nil {
		return v
	}
	v, err := parseNumber[T](def)
	if err != nil {
		panic(fmt.Sprintf("converter: default %q does not parse as %T: %v", def, v, err))
	}
	return v
}

func parseNumber[T Number](s string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		f, err := strconv.ParseFloat(s, 32)
		return T(f), err
	case float64:
		f, err := strconv.ParseFloat(s, 64)
		return T(f), err
	case uint8:
		n, err := strconv.ParseUint(s, 10, 8)
		return T(n), err
	case int32:
		n, err := strconv.ParseInt(s, 10, 32)
		return T(n), err
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		return T(n), err
	}
}

// ParseTime parses a millisecond timestamp that may carry a fractional part
func ParseTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

// ParseFloat32 parses a trimmed 32-bit float
func ParseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	return float32(f), err
}

// FormatFloat renders a float with the fewest digits that round-trip
func FormatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// SplitTags splits a tag list on spaces and commas
func SplitTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// SingleLine removes line breaks from a metadata value
func SingleLine(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw chart bytes to a string. Input that is not valid
// UTF-8 is decoded as Shift-JIS, the usual encoding of older Japanese charts.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		Logf("falling back to raw bytes, Shift-JIS decoding failed: %v", err)
		return string(data)
	}
	return string(decoded)
}
