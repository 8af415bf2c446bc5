package formats

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/james-see/chartconv/pkg/converter"
)

// Quaver modes and their lane counts
var quaModes = map[string]int{
	"Keys4": 4,
	"Keys7": 7,
}

// Quaver implements the Codec interface for Quaver .qua charts
type Quaver struct {
	defaults *converter.Defaults
}

// NewQuaver creates a new Quaver codec. A nil defaults uses the built-in ones.
func NewQuaver(defaults *converter.Defaults) *Quaver {
	if defaults == nil {
		defaults = converter.DefaultDefaults()
	}
	return &Quaver{defaults: defaults}
}

// Name returns the codec name
func (q *Quaver) Name() string {
	return "Quaver"
}

// Format returns the format handled by the codec
func (q *Quaver) Format() converter.Format {
	return converter.FormatQuaver
}

// CanParse reports that Quaver charts can be read
func (q *Quaver) CanParse() bool {
	return true
}

// Parse parses .qua data into a Chart
func (q *Quaver) Parse(data []byte) (*converter.Chart, error) {
	return q.FromQua(converter.DecodeText(data))
}

// Generate creates .qua data from a Chart
func (q *Quaver) Generate(chart *converter.Chart) ([]byte, error) {
	text, err := q.ToQua(chart)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// FromQua parses a Quaver chart with the built-in defaults
func FromQua(text string) (*converter.Chart, error) {
	return NewQuaver(nil).FromQua(text)
}

// ToQua writes a Quaver chart with the built-in defaults
func ToQua(chart *converter.Chart) (string, error) {
	return NewQuaver(nil).ToQua(chart)
}

type quaParser struct {
	chart  *converter.Chart
	blocks map[string]string
}

// FromQua parses a Quaver chart
func (q *Quaver) FromQua(text string) (*converter.Chart, error) {
	text = converter.RemoveComments(text, "#", converter.CommentSpaced)
	if strings.TrimSpace(text) == "" {
		return nil, converter.ErrEmptyChartData
	}

	p := &quaParser{
		chart:  converter.NewChart(q.defaults),
		blocks: make(map[string]string),
	}

	// List blocks are kept until every scalar is known, HitObjects needs
	// the tempo map and the sample list
	table := p.scalars()
	for _, section := range converter.ScanIndentedSections(text) {
		if _, ok := table[section.Name]; ok {
			if err := table.Dispatch(section.Name, section.Content); err != nil {
				return nil, err
			}
			continue
		}
		p.blocks[section.Name] = section.Content
	}

	p.samples()
	if err := p.soundEffects(); err != nil {
		return nil, err
	}
	if err := p.timingPoints(); err != nil {
		return nil, err
	}
	if err := p.hitObjects(); err != nil {
		return nil, err
	}

	p.chart.Finalize()
	return p.chart, nil
}

func (p *quaParser) scalars() converter.SectionTable {
	meta := &p.chart.Metadata
	info := &p.chart.Info
	set := func(field *string) converter.SectionHandler {
		return func(v string) error {
			*field = converter.OrDefault(v, *field)
			return nil
		}
	}
	return converter.SectionTable{
		"AudioFile": func(v string) error {
			info.SongPath = converter.OrDefault(v, info.SongPath)
			p.chart.Sounds().AudioTracks = append(p.chart.Sounds().AudioTracks, info.SongPath)
			return nil
		},
		"SongPreviewTime": func(v string) error {
			info.PreviewTime = converter.ParseOrDefault[int](v, strconv.Itoa(info.PreviewTime))
			return nil
		},
		"BackgroundFile": set(&info.BackgroundPath),
		"Mode": func(v string) error {
			keyCount, ok := quaModes[v]
			if !ok {
				return converter.InvalidChart("Quaver only supports Keys4 and Keys7 for Mode")
			}
			info.KeyCount = keyCount
			return nil
		},
		"Title":  set(&meta.Title),
		"Artist": set(&meta.Artist),
		"Source": set(&meta.Source),
		"Tags": func(v string) error {
			meta.Tags = converter.SplitTags(v)
			return nil
		},
		"Creator":        set(&meta.Creator),
		"DifficultyName": set(&info.DifficultyName),
	}
}

// quaFields reads the "key: value" lines of one list item
func quaFields(item string) [][2]string {
	var fields [][2]string
	for _, line := range strings.Split(item, "\n") {
		key, value, ok := converter.SplitKeyValue(line)
		if ok {
			fields = append(fields, [2]string{key, value})
		}
	}
	return fields
}

// samples registers custom samples at their list position, the index
// SoundEffects and KeySounds refer to
func (p *quaParser) samples() {
	for i, item := range converter.SplitListItems(p.blocks["CustomAudioSamples"]) {
		for _, kv := range quaFields(item) {
			if strings.EqualFold(kv[0], "Path") {
				p.chart.Sounds().AddSoundSampleWithIndex(i, kv[1])
			}
		}
	}
}

func (p *quaParser) soundEffects() error {
	for _, item := range converter.SplitListItems(p.blocks["SoundEffects"]) {
		effect := converter.SoundEffect{Volume: 100}
		sample := 1
		for _, kv := range quaFields(item) {
			var err error
			switch kv[0] {
			case "StartTime":
				effect.Time, err = converter.ParseTime(kv[1])
			case "Sample":
				sample, err = strconv.Atoi(kv[1])
			case "Volume":
				var volume int
				volume, err = strconv.Atoi(kv[1])
				effect.Volume = clampVolume(volume)
			}
			if err != nil {
				return converter.BadField(kv[0]+" in SoundEffects", kv[1], item, err)
			}
		}
		effect.Sample = sample - 1
		p.chart.Sounds().AddSoundEffect(effect)
	}
	return nil
}

func (p *quaParser) timingPoints() error {
	timing := converter.NewTimeline[converter.TimingEvent]()

	bpms := converter.SplitListItems(p.blocks["TimingPoints"])
	if len(bpms) == 0 {
		return converter.InvalidChart("no BPM data provided in the chart")
	}
	for _, item := range bpms {
		event, err := parseQuaTimingItem(item, "TimingPoints", "Bpm", converter.ChangeBPM)
		if err != nil {
			return err
		}
		if event.Change.Value <= 0 {
			return converter.InvalidChart("BPM must be positive: '%s'", item)
		}
		timing.Add(event)
	}

	for _, item := range converter.SplitListItems(p.blocks["SliderVelocities"]) {
		event, err := parseQuaTimingItem(item, "SliderVelocities", "Multiplier", converter.ChangeSV)
		if err != nil {
			return err
		}
		timing.Add(event)
	}

	timing.Sort()
	for _, event := range timing.Items() {
		if event.Change.Kind == converter.ChangeBPM {
			p.chart.Info.AudioOffset = event.Time
			break
		}
	}

	tp := &p.chart.TimingPoints
	if err := converter.MaterializeTimingPoints(timing, tp, p.chart.Info.AudioOffset); err != nil {
		return converter.InvalidChart("%v", err)
	}
	return nil
}

// parseQuaTimingItem reads a timing point or a slider velocity. Quaver
// omits fields holding their zero value, so a missing StartTime is 0 and a
// missing Multiplier is 0; a missing Bpm is an error.
func parseQuaTimingItem(item, section, valueKey string, kind converter.ChangeKind) (converter.TimingEvent, error) {
	event := converter.TimingEvent{Change: converter.TimingChange{Kind: kind}}
	hasValue := false
	for _, kv := range quaFields(item) {
		switch kv[0] {
		case "StartTime":
			time, err := converter.ParseTime(kv[1])
			if err != nil {
				return event, converter.BadField("StartTime in "+section, kv[1], item, err)
			}
			event.Time = time
		case valueKey:
			value, err := converter.ParseFloat32(kv[1])
			if err != nil {
				return event, converter.BadField(valueKey, kv[1], item, err)
			}
			event.Change.Value = value
			hasValue = true
		}
	}
	if !hasValue && kind == converter.ChangeBPM {
		return event, converter.MissingField(valueKey, item)
	}
	return event, nil
}

type quaHitObject struct {
	time    int
	lane    int
	endTime int
	sound   converter.KeySound
}

func (p *quaParser) hitObjects() error {
	keyCount := p.chart.Info.KeyCount
	notes := converter.NewTimeline[converter.NoteEvent]()

	for _, item := range converter.SplitListItems(p.blocks["HitObjects"]) {
		object, err := p.parseHitObject(item)
		if err != nil {
			return err
		}
		if object.lane >= keyCount {
			converter.Logf("lane %d is outside %dk, widening the chart", object.lane+1, keyCount)
			keyCount = object.lane + 1
		}

		if object.endTime != 0 {
			notes.AddSorted(converter.NoteEvent{Time: object.time, Lane: object.lane, Key: converter.SliderStartAt(object.endTime), Sound: object.sound})
			notes.AddSorted(converter.NoteEvent{Time: object.endTime, Lane: object.lane, Key: converter.NewKey(converter.KeySliderEnd)})
			continue
		}
		notes.AddSorted(converter.NoteEvent{Time: object.time, Lane: object.lane, Key: converter.NewKey(converter.KeyNormal), Sound: object.sound})
	}

	p.chart.Info.KeyCount = keyCount
	bpms := p.chart.TimingPoints.BPMChanges()
	if err := converter.MaterializeHitObjects(notes, &p.chart.HitObjects, keyCount, p.chart.Info.AudioOffset, bpms); err != nil {
		return converter.InvalidChart("%v", err)
	}
	return nil
}

// parseHitObject reads one hit object. Its KeySounds list ends the item.
func (p *quaParser) parseHitObject(item string) (quaHitObject, error) {
	var object quaHitObject
	hitSound := converter.HitSoundNormal
	var custom *converter.KeySound

	lines := strings.Split(item, "\n")
	for i, line := range lines {
		key, value, ok := converter.SplitKeyValue(line)
		if !ok {
			continue
		}

		var err error
		switch key {
		case "StartTime":
			object.time, err = converter.ParseTime(value)
		case "Lane":
			var lane int
			lane, err = strconv.Atoi(value)
			if err == nil && lane < 1 {
				err = errors.New("lanes start at 1")
			}
			object.lane = lane - 1
		case "EndTime":
			object.endTime, err = converter.ParseTime(value)
		case "HitSound":
			hitSound = hitSoundFromQua(value)
		case "KeySounds":
			if value == "" {
				custom, err = p.parseKeySound(strings.Join(lines[i+1:], "\n"), item)
			}
		}
		if err != nil {
			return object, converter.BadField(key+" in HitObjects", value, item, err)
		}
		if key == "KeySounds" {
			break
		}
	}

	switch {
	case custom != nil:
		custom.HitSound = hitSound
		object.sound = *custom
	case hitSound != converter.HitSoundNormal:
		object.sound = converter.KeySound{Volume: 100, HitSound: hitSound}
	}
	return object, nil
}

// parseKeySound reads the first entry of a KeySounds list
func (p *quaParser) parseKeySound(block, item string) (*converter.KeySound, error) {
	entries := converter.SplitListItems(block)
	if len(entries) == 0 {
		return nil, nil
	}

	sound := &converter.KeySound{Volume: 100, HasCustom: true}
	sample := 1
	for _, kv := range quaFields(entries[0]) {
		switch kv[0] {
		case "Sample":
			n, err := strconv.Atoi(kv[1])
			if err != nil {
				return nil, converter.BadField("Sample in KeySounds", kv[1], item, err)
			}
			sample = n
		case "Volume":
			n, err := strconv.Atoi(kv[1])
			if err != nil {
				return nil, converter.BadField("Volume in KeySounds", kv[1], item, err)
			}
			sound.Volume = clampVolume(n)
		}
	}
	sound.Sample = sample - 1
	return sound, nil
}

func hitSoundFromQua(value string) converter.HitSoundType {
	for _, name := range strings.Split(strings.ToLower(value), ",") {
		switch strings.TrimSpace(name) {
		case "clap":
			return converter.HitSoundClap
		case "whistle":
			return converter.HitSoundWhistle
		case "finish":
			return converter.HitSoundFinish
		}
	}
	return converter.HitSoundNormal
}

func hitSoundToQua(hitSound converter.HitSoundType) string {
	switch hitSound {
	case converter.HitSoundClap:
		return "Clap"
	case converter.HitSoundWhistle:
		return "Whistle"
	case converter.HitSoundFinish:
		return "Finish"
	default:
		return ""
	}
}

// quaMode returns the Mode written for a lane count. 8 lanes are written
// as Keys7, the seven lanes plus scratch layout.
func quaMode(keyCount int) (string, bool) {
	switch keyCount {
	case 4:
		return "Keys4", true
	case 7, 8:
		return "Keys7", true
	default:
		return "", false
	}
}

type svChange struct {
	time  int
	value float32
}

// svChanges returns the scroll velocity changes in time order with every
// stop unwrapped into a zero velocity and a restore at its end
func svChanges(tp *converter.TimingPoints) []svChange {
	var changes []svChange
	sv := float32(1)
	for _, point := range tp.Points() {
		switch point.Kind {
		case converter.ChangeBPM:
			sv = 1
		case converter.ChangeSV:
			sv = point.Value
			changes = append(changes, svChange{point.Time, point.Value})
		case converter.ChangeStop:
			end := point.Time + int(point.Value*1000)
			changes = append(changes, svChange{point.Time, 0}, svChange{end, sv})
		}
	}
	slices.SortStableFunc(changes, func(a, b svChange) int { return a.time - b.time })
	return changes
}

// ToQua writes a Quaver chart
func (q *Quaver) ToQua(chart *converter.Chart) (string, error) {
	keyCount := chart.Info.KeyCount
	mode, ok := quaMode(keyCount)
	if !ok {
		return "", &converter.InvalidKeyCountError{Count: keyCount, Supported: "4k, 7k and 7k+1", Format: "Quaver"}
	}
	if !chart.TimingPoints.HasBPM() {
		return "", converter.ErrNoTimingPoints
	}

	meta := chart.Metadata
	var b strings.Builder
	fmt.Fprintf(&b, "AudioFile: %s\n", chart.Info.SongPath)
	fmt.Fprintf(&b, "SongPreviewTime: %d\n", chart.Info.PreviewTime)
	fmt.Fprintf(&b, "BackgroundFile: %s\n", chart.Info.BackgroundPath)
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	fmt.Fprintf(&b, "Title: %s\n", converter.SingleLine(meta.Title))
	fmt.Fprintf(&b, "Artist: %s\n", converter.SingleLine(meta.Artist))
	fmt.Fprintf(&b, "Source: %s\n", converter.SingleLine(meta.Source))
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(meta.Tags, " "))
	fmt.Fprintf(&b, "Creator: %s\n", converter.SingleLine(meta.Creator))
	fmt.Fprintf(&b, "DifficultyName: %s\n", converter.SingleLine(chart.Info.DifficultyName))
	b.WriteString("BPMDoesNotAffectScrollVelocity: true\n")
	b.WriteString("InitialScrollVelocity: 1\n")
	b.WriteString("EditorLayers: []\n")

	sounds := chart.SoundBank
	if sounds == nil || sounds.SampleCount() == 0 {
		b.WriteString("CustomAudioSamples: []\n")
	} else {
		b.WriteString("CustomAudioSamples:\n")
		for _, path := range sounds.Samples() {
			fmt.Fprintf(&b, "- Path: %s\n", path)
		}
	}
	if sounds == nil || len(sounds.SoundEffects) == 0 {
		b.WriteString("SoundEffects: []\n")
	} else {
		b.WriteString("SoundEffects:\n")
		for _, effect := range sounds.SoundEffects {
			fmt.Fprintf(&b, "- StartTime: %d\n  Sample: %d\n  Volume: %d\n", effect.Time, effect.Sample+1, effect.Volume)
		}
	}

	b.WriteString("TimingPoints:\n")
	for _, point := range chart.TimingPoints.Points(converter.ChangeBPM) {
		fmt.Fprintf(&b, "- StartTime: %d\n  Bpm: %s\n", point.Time, converter.FormatFloat(point.Value))
	}

	if sv := svChanges(&chart.TimingPoints); len(sv) == 0 {
		b.WriteString("SliderVelocities: []\n")
	} else {
		b.WriteString("SliderVelocities:\n")
		for _, change := range sv {
			fmt.Fprintf(&b, "- StartTime: %d\n  Multiplier: %s\n", change.time, converter.FormatFloat(change.value))
		}
	}

	hitObjects := &chart.HitObjects
	if hitObjects.ObjectCount() == 0 {
		b.WriteString("HitObjects: []\n")
		return b.String(), nil
	}
	b.WriteString("HitObjects:\n")
	for i, row := range hitObjects.Rows {
		for lane, key := range row {
			if key.Type != converter.KeyNormal && key.Type != converter.KeySliderStart {
				continue
			}
			fmt.Fprintf(&b, "- StartTime: %d\n  Lane: %d\n", hitObjects.Times[i], lane+1)
			if key.Type == converter.KeySliderStart {
				fmt.Fprintf(&b, "  EndTime: %d\n", hitObjects.SliderEndTime(i, lane))
			}
			sound := hitObjects.KeySound(i, lane)
			if name := hitSoundToQua(sound.HitSound); name != "" {
				fmt.Fprintf(&b, "  HitSound: %s\n", name)
			}
			if sound.HasCustom {
				fmt.Fprintf(&b, "  KeySounds:\n  - Sample: %d\n    Volume: %d\n", sound.Sample+1, sound.Volume)
			} else {
				b.WriteString("  KeySounds: []\n")
			}
		}
	}

	return b.String(), nil
}
