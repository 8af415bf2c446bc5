package converter

import (
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestRemoveComments(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker string
		style  CommentStyle
		want   string
	}{
		{"line comments", "a\n// c\n\n  b", "//", CommentLine, "a\n  b"},
		{"line style keeps inline markers", "Source:http://x", "//", CommentLine, "Source:http://x"},
		{"inline comments", "#TITLE:x;// note\n// all\n#BPMS:0=1;", "//", CommentInline, "#TITLE:x;\n#BPMS:0=1;"},
		{"spaced comments", "Title: Song#1 # remix\n# header\n  Lane: 1", "#", CommentSpaced, "Title: Song#1 \n  Lane: 1"},
		{"windows line endings", "a\r\n// c\r\nb\r\n", "//", CommentLine, "a\nb"},
		{"only comments", "// a\n// b", "//", CommentLine, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveComments(tt.text, tt.marker, tt.style); got != tt.want {
				t.Errorf("RemoveComments() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOrDefault(t *testing.T) {
	if got := ParseOrDefault[int](" 42 ", "0"); got != 42 {
		t.Errorf("ParseOrDefault[int]() = %d, want 42", got)
	}
	if got := ParseOrDefault[int]("abc", "7"); got != 7 {
		t.Errorf("ParseOrDefault[int]() fallback = %d, want 7", got)
	}
	if got := ParseOrDefault[float32]("1.5", "0"); got != 1.5 {
		t.Errorf("ParseOrDefault[float32]() = %v, want 1.5", got)
	}
	if got := ParseOrDefault[uint8]("300", "100"); got != 100 {
		t.Errorf("ParseOrDefault[uint8]() out of range = %d, want 100", got)
	}
}

func TestParseOrDefaultPanicsOnBadDefault(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ParseOrDefault() with an unparsable default did not panic")
		}
	}()
	ParseOrDefault[int]("x", "y")
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1000", 1000},
		{" -25 ", -25},
		{"1234.6", 1235},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseTime(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseTime("soon"); err == nil {
		t.Error("ParseTime(\"soon\") should fail")
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{120, "120"},
		{0.5, "0.5"},
		{-0.1, "-0.1"},
		{333.3333, "333.3333"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitHelpers(t *testing.T) {
	key, value, ok := SplitKeyValue(" Title : Song: Remix ")
	if !ok || key != "Title" || value != "Song: Remix" {
		t.Errorf("SplitKeyValue() = %q, %q, %v", key, value, ok)
	}
	if _, _, ok := SplitKeyValue("no colon"); ok {
		t.Error("SplitKeyValue() without a colon should not split")
	}

	tags := SplitTags("jump, stream  tech,")
	if len(tags) != 3 || tags[0] != "jump" || tags[2] != "tech" {
		t.Errorf("SplitTags() = %q", tags)
	}

	if got := OrDefault("  ", "def"); got != "def" {
		t.Errorf("OrDefault() = %q, want def", got)
	}
	if got := SingleLine("a\r\nb"); got != "ab" {
		t.Errorf("SingleLine() = %q, want ab", got)
	}
}

func TestDecodeText(t *testing.T) {
	if got := DecodeText([]byte("\xEF\xBB\xBFTitle:Song")); got != "Title:Song" {
		t.Errorf("DecodeText() with BOM = %q", got)
	}

	encoded, err := japanese.ShiftJIS.NewEncoder().String("Title:日本語")
	if err != nil {
		t.Fatal(err)
	}
	if got := DecodeText([]byte(encoded)); got != "Title:日本語" {
		t.Errorf("DecodeText() of Shift-JIS = %q", got)
	}
}
