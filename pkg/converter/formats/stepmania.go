package formats

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/james-see/chartconv/pkg/converter"
)

// StepMania step types and their lane counts
var smStepsTypes = map[string]int{
	"dance-single": 4,
	"pump-single":  5,
	"dance-solo":   6,
	"kb7-single":   7,
	"dance-double": 8,
	"pump-double":  10,
}

// smStepsTypeFor returns the step type written for a lane count
func smStepsTypeFor(keyCount int) (string, bool) {
	switch keyCount {
	case 4:
		return "dance-single", true
	case 5:
		return "pump-single", true
	case 6:
		return "dance-solo", true
	case 7:
		return "kb7-single", true
	case 8:
		return "dance-double", true
	case 10:
		return "pump-double", true
	default:
		return "", false
	}
}

// smNotesFields is the number of colon separated fields in a #NOTES block:
// step type, description, difficulty, meter, radar values and the note grid
const smNotesFields = 6

// StepMania implements the Codec interface for StepMania .sm simfiles
type StepMania struct {
	defaults *converter.Defaults
}

// NewStepMania creates a new StepMania codec. A nil defaults uses the built-in ones.
func NewStepMania(defaults *converter.Defaults) *StepMania {
	if defaults == nil {
		defaults = converter.DefaultDefaults()
	}
	return &StepMania{defaults: defaults}
}

// Name returns the codec name
func (s *StepMania) Name() string {
	return "StepMania"
}

// Format returns the format handled by the codec
func (s *StepMania) Format() converter.Format {
	return converter.FormatStepMania
}

// CanParse reports that simfiles can be read
func (s *StepMania) CanParse() bool {
	return true
}

// Parse parses .sm data into a Chart, the first #NOTES block of the simfile
func (s *StepMania) Parse(data []byte) (*converter.Chart, error) {
	return s.FromSM(converter.DecodeText(data))
}

// Generate creates .sm data from a Chart
func (s *StepMania) Generate(chart *converter.Chart) ([]byte, error) {
	text, err := s.ToSM(chart)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// FromSM parses the first chart of a simfile with the built-in defaults
func FromSM(text string) (*converter.Chart, error) {
	return NewStepMania(nil).FromSM(text)
}

// FromSMCharts parses every chart of a simfile with the built-in defaults
func FromSMCharts(text string) ([]*converter.Chart, error) {
	return NewStepMania(nil).FromSMCharts(text)
}

// ToSM writes a simfile with the built-in defaults
func ToSM(chart *converter.Chart) (string, error) {
	return NewStepMania(nil).ToSM(chart)
}

// FromSM parses the first chart of a simfile
func (s *StepMania) FromSM(text string) (*converter.Chart, error) {
	charts, err := s.FromSMCharts(text)
	if err != nil {
		return nil, err
	}
	return charts[0], nil
}

type smParser struct {
	base  *converter.Chart
	bpms  string
	stops string
	notes []string
}

// FromSMCharts parses every #NOTES block of a simfile into its own chart
func (s *StepMania) FromSMCharts(text string) ([]*converter.Chart, error) {
	text = converter.RemoveComments(text, "//", converter.CommentInline)
	if strings.TrimSpace(text) == "" {
		return nil, converter.ErrEmptyChartData
	}

	p := &smParser{base: converter.NewChart(s.defaults)}
	if err := p.header().Run(converter.ScanHashSections(text)); err != nil {
		return nil, err
	}

	if p.bpms == "" {
		return nil, converter.InvalidChart("no BPM data provided in the chart")
	}
	if len(p.notes) == 0 {
		return nil, converter.InvalidChart("no #NOTES data provided in the chart")
	}

	changes, err := p.tempoChanges()
	if err != nil {
		return nil, err
	}
	timing, err := smTimingPoints(changes, p.base.Info.AudioOffset)
	if err != nil {
		return nil, err
	}

	charts := make([]*converter.Chart, 0, len(p.notes))
	for _, notes := range p.notes {
		chart := p.newChart(timing)
		if err := parseSMNotes(chart, notes, changes); err != nil {
			return nil, err
		}
		chart.HitObjects.LinkSliderEnds()
		chart.Finalize()
		charts = append(charts, chart)
	}

	return charts, nil
}

func (p *smParser) header() converter.SectionTable {
	meta := &p.base.Metadata
	info := &p.base.Info
	set := func(field *string) converter.SectionHandler {
		return func(v string) error {
			*field = converter.OrDefault(v, *field)
			return nil
		}
	}
	return converter.SectionTable{
		"TITLE":          set(&meta.Title),
		"SUBTITLE":       set(&meta.Source),
		"ARTIST":         set(&meta.Artist),
		"TITLETRANSLIT":  set(&meta.AltTitle),
		"ARTISTTRANSLIT": set(&meta.AltArtist),
		"GENRE":          set(&meta.Genre),
		"CREDIT":         set(&meta.Creator),
		"BACKGROUND":     set(&info.BackgroundPath),
		"MUSIC":          set(&info.SongPath),
		"OFFSET": func(v string) error {
			seconds := converter.ParseOrDefault[float32](v, "0")
			info.AudioOffset = int(math.Round(float64(-seconds * 1000)))
			return nil
		},
		"SAMPLESTART": func(v string) error {
			seconds := converter.ParseOrDefault[float32](v, "0")
			info.PreviewTime = int(math.Round(float64(seconds * 1000)))
			return nil
		},
		"BPMS": func(v string) error {
			p.bpms = v
			return nil
		},
		"STOPS": func(v string) error {
			p.stops = v
			return nil
		},
		"NOTES": func(v string) error {
			p.notes = append(p.notes, v)
			return nil
		},
	}
}

// parseBeatValues reads a "beat=value,beat=value" list, skipping malformed pairs
func parseBeatValues(raw string) []converter.BeatValue {
	var values []converter.BeatValue
	for _, pair := range strings.Split(raw, ",") {
		beatRaw, valueRaw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		beat, err := converter.ParseFloat32(beatRaw)
		if err != nil {
			continue
		}
		value, err := converter.ParseFloat32(valueRaw)
		if err != nil {
			continue
		}
		values = append(values, converter.BeatValue{Beat: beat, Value: value})
	}
	return values
}

func (p *smParser) tempoChanges() ([]converter.TempoChange, error) {
	bpms := parseBeatValues(p.bpms)
	if len(bpms) == 0 {
		return nil, converter.InvalidChart("no BPM data provided in the chart: '%s'", p.bpms)
	}
	for _, bpm := range bpms {
		if bpm.Value <= 0 {
			return nil, converter.InvalidChart("BPM must be positive but got '%s' at beat %s",
				converter.FormatFloat(bpm.Value), converter.FormatFloat(bpm.Beat))
		}
	}
	return converter.MergeBPMsAndStops(bpms, parseBeatValues(p.stops)), nil
}

// smTimingPoints places every BPM change and stop on the time axis. A stop
// is recorded at the time its pause begins.
func smTimingPoints(changes []converter.TempoChange, offset int) (converter.TimingPoints, error) {
	var tp converter.TimingPoints
	for i, change := range changes {
		switch change.Kind {
		case converter.ChangeBPM:
			time, err := converter.BeatToTime(change.Beat, offset, changes)
			if err != nil {
				return tp, converter.InvalidChart("%v", err)
			}
			tp.Add(roundTime(time), change.Beat, converter.TimingChange{Kind: converter.ChangeBPM, Value: change.Value})
		case converter.ChangeStop:
			end, err := converter.BeatToTime(change.Beat, offset, changes[:i+1])
			if err != nil {
				return tp, converter.InvalidChart("%v", err)
			}
			tp.Add(roundTime(end-change.Value*1000), change.Beat, converter.TimingChange{Kind: converter.ChangeStop, Value: change.Value})
		}
	}
	return tp, nil
}

func roundTime(t float32) int {
	return int(math.Round(float64(t)))
}

func (p *smParser) newChart(timing converter.TimingPoints) *converter.Chart {
	chart := &converter.Chart{
		Metadata: p.base.Metadata,
		Info:     p.base.Info,
		TimingPoints: converter.TimingPoints{
			Times:   slices.Clone(timing.Times),
			Beats:   slices.Clone(timing.Beats),
			Changes: slices.Clone(timing.Changes),
		},
	}
	chart.Metadata.Tags = slices.Clone(p.base.Metadata.Tags)
	chart.Sounds().AudioTracks = append(chart.Sounds().AudioTracks, chart.Info.SongPath)
	return chart
}

func keyFromSM(c byte) converter.Key {
	switch c {
	case '0':
		return converter.NewKey(converter.KeyEmpty)
	case '1':
		return converter.NewKey(converter.KeyNormal)
	case '2', '4':
		return converter.NewKey(converter.KeySliderStart)
	case '3':
		return converter.NewKey(converter.KeySliderEnd)
	case 'M':
		return converter.NewKey(converter.KeyMine)
	case 'F':
		return converter.NewKey(converter.KeyFake)
	default:
		return converter.NewKey(converter.KeyUnknown)
	}
}

func keyToSM(k converter.KeyType) byte {
	switch k {
	case converter.KeyNormal:
		return '1'
	case converter.KeySliderStart:
		return '2'
	case converter.KeySliderEnd:
		return '3'
	case converter.KeyMine:
		return 'M'
	case converter.KeyFake:
		return 'F'
	default:
		return '0'
	}
}

// parseSMNotes reads one #NOTES block. Each measure holds four beats
// spread evenly over its rows.
func parseSMNotes(chart *converter.Chart, raw string, changes []converter.TempoChange) error {
	fields := strings.Split(raw, ":")
	if len(fields) < smNotesFields {
		return converter.InvalidChart("#NOTES needs %d colon separated fields but got %d", smNotesFields, len(fields))
	}

	stepsType := strings.TrimSpace(fields[0])
	chart.Info.DifficultyName = converter.OrDefault(fields[2], chart.Info.DifficultyName)
	grid := fields[len(fields)-1]
	measures := strings.Split(grid, ",")

	keyCount, ok := smStepsTypes[stepsType]
	if !ok {
		keyCount = firstRowWidth(measures)
		converter.Logf("unknown step type %q, using %d lanes from the note grid", stepsType, keyCount)
	}
	if keyCount < 1 {
		return converter.InvalidChart("no note rows in #NOTES for '%s'", stepsType)
	}
	chart.Info.KeyCount = keyCount

	offset := chart.Info.AudioOffset
	for measureIdx, measure := range measures {
		rows := noteRows(measure)
		rowCount := len(rows)
		for rowIdx, line := range rows {
			row := converter.NewRow(keyCount)
			for lane := 0; lane < keyCount && lane < len(line); lane++ {
				row[lane] = keyFromSM(line[lane])
			}
			if row.IsEmpty() {
				continue
			}

			beat := float32(measureIdx*BeatsPerMeasure) + float32(rowIdx)*(BeatsPerMeasure/float32(rowCount))
			time, err := converter.BeatToTime(beat, offset, changes)
			if err != nil {
				return converter.InvalidChart("%v", err)
			}
			chart.HitObjects.AddRow(roundTime(time), beat, row, nil)
		}
	}

	return nil
}

func noteRows(measure string) []string {
	var rows []string
	for _, line := range strings.Split(measure, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

func firstRowWidth(measures []string) int {
	for _, measure := range measures {
		if rows := noteRows(measure); len(rows) > 0 {
			return len(rows[0])
		}
	}
	return 0
}

// ToSM writes a StepMania simfile
func (s *StepMania) ToSM(chart *converter.Chart) (string, error) {
	keyCount := chart.Info.KeyCount
	stepsType, ok := smStepsTypeFor(keyCount)
	if !ok {
		return "", &converter.InvalidKeyCountError{Count: keyCount, Supported: "4k, 5k, 6k, 7k, 8k and 10k", Format: "StepMania"}
	}
	if !chart.TimingPoints.HasBPM() {
		return "", converter.ErrNoTimingPoints
	}

	var bpms, stops []string
	dropped := 0
	for _, point := range chart.TimingPoints.Points() {
		switch point.Kind {
		case converter.ChangeBPM:
			bpms = append(bpms, converter.FormatFloat(point.Beat)+"="+converter.FormatFloat(point.Value))
		case converter.ChangeStop:
			stops = append(stops, converter.FormatFloat(point.Beat)+"="+converter.FormatFloat(point.Value))
		case converter.ChangeSV:
			dropped++
		}
	}
	if dropped > 0 {
		converter.Logf("dropping %d scroll velocity changes, .sm cannot store them", dropped)
	}

	var notes strings.Builder
	notes.WriteString("\n   " + stepsType + ":\n")
	notes.WriteString("   " + converter.SingleLine(chart.Metadata.Creator) + ":\n")
	notes.WriteString("   Edit:\n")
	notes.WriteString("   1:\n")
	notes.WriteString("   0.000,0.000,0.000,0.000,0.000:\n")

	measures := BuildMeasures(&chart.HitObjects, keyCount)
	for i, measure := range measures {
		fmt.Fprintf(&notes, "// Measure %d\n", i+1)
		for _, row := range measure {
			line := make([]byte, len(row))
			for lane, key := range row {
				line[lane] = keyToSM(key.Type)
			}
			notes.Write(line)
			notes.WriteByte('\n')
		}
		if i != len(measures)-1 {
			notes.WriteString(", ")
		}
	}

	meta := chart.Metadata
	subtitle := meta.Source
	if subtitle == s.defaults.Source {
		subtitle = ""
	}

	var b strings.Builder
	tag := func(name, value string) {
		fmt.Fprintf(&b, "#%s:%s;\n", name, value)
	}
	tag("TITLE", converter.SingleLine(meta.Title))
	tag("SUBTITLE", converter.SingleLine(subtitle))
	tag("ARTIST", converter.SingleLine(meta.Artist))
	tag("TITLETRANSLIT", converter.SingleLine(meta.AltTitle))
	tag("SUBTITLETRANSLIT", "")
	tag("ARTISTTRANSLIT", converter.SingleLine(meta.AltArtist))
	tag("GENRE", converter.SingleLine(meta.Genre))
	tag("CREDIT", converter.SingleLine(meta.Creator))
	tag("BANNER", chart.Info.BackgroundPath)
	tag("BACKGROUND", chart.Info.BackgroundPath)
	tag("LYRICSPATH", "")
	tag("CDTITLE", "")
	tag("MUSIC", chart.Info.SongPath)
	tag("OFFSET", converter.FormatFloat(float32(-chart.Info.AudioOffset)/1000))
	tag("SAMPLESTART", converter.FormatFloat(float32(chart.Info.PreviewTime)/1000))
	tag("SAMPLELENGTH", fmt.Sprintf("%.3f", s.defaults.SampleLength))
	tag("SELECTABLE", "YES")
	tag("BPMS", strings.Join(bpms, ",\n"))
	tag("STOPS", strings.Join(stops, ",\n"))
	tag("BGCHANGES", "")
	tag("KEYSOUNDS", "")
	tag("NOTES", notes.String())

	return b.String(), nil
}
