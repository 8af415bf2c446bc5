// Package formats provides the chart codecs: osu!mania, StepMania, Quaver
// and a MIDI preview writer
package formats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/james-see/chartconv/pkg/converter"
)

// osu! limits
const (
	OsuPlayfieldWidth = 512
	OsuMaxKeyCount    = 18
	osuManiaMode      = "3"
	osuMaxMultiplier  = 10
)

// osu! hitsound flags
const (
	osuHitSoundWhistle = 2
	osuHitSoundFinish  = 4
	osuHitSoundClap    = 8
)

// Osu implements the Codec interface for osu!mania beatmaps
type Osu struct {
	defaults *converter.Defaults
}

// NewOsu creates a new osu!mania codec. A nil defaults uses the built-in ones.
func NewOsu(defaults *converter.Defaults) *Osu {
	if defaults == nil {
		defaults = converter.DefaultDefaults()
	}
	return &Osu{defaults: defaults}
}

// Name returns the codec name
func (o *Osu) Name() string {
	return "osu!mania"
}

// Format returns the format handled by the codec
func (o *Osu) Format() converter.Format {
	return converter.FormatOsu
}

// CanParse reports that osu!mania beatmaps can be read
func (o *Osu) CanParse() bool {
	return true
}

// Parse parses .osu data into a Chart
func (o *Osu) Parse(data []byte) (*converter.Chart, error) {
	return o.FromOsu(converter.DecodeText(data))
}

// Generate creates .osu data from a Chart
func (o *Osu) Generate(chart *converter.Chart) ([]byte, error) {
	text, err := o.ToOsu(chart)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// FromOsu parses an osu!mania beatmap with the built-in defaults
func FromOsu(text string) (*converter.Chart, error) {
	return NewOsu(nil).FromOsu(text)
}

// ToOsu writes an osu!mania beatmap with the built-in defaults
func ToOsu(chart *converter.Chart) (string, error) {
	return NewOsu(nil).ToOsu(chart)
}

type osuParser struct {
	chart         *converter.Chart
	timing        *converter.Timeline[converter.TimingEvent]
	hitObjects    []string
	hasBackground bool
}

// FromOsu parses an osu!mania beatmap
func (o *Osu) FromOsu(text string) (*converter.Chart, error) {
	text = converter.RemoveComments(text, "//", converter.CommentLine)
	if strings.TrimSpace(text) == "" {
		return nil, converter.ErrEmptyChartData
	}

	p := &osuParser{
		chart:  converter.NewChart(o.defaults),
		timing: converter.NewTimeline[converter.TimingEvent](),
	}

	sections := converter.SectionTable{
		"General":      p.general().RunKeyValues,
		"Metadata":     p.metadata().RunKeyValues,
		"Difficulty":   p.difficulty().RunKeyValues,
		"Events":       p.forEachLine(p.parseEvent),
		"TimingPoints": p.forEachLine(p.parseTimingPoint),
		"HitObjects": func(content string) error {
			p.hitObjects = append(p.hitObjects, strings.Split(content, "\n")...)
			return nil
		},
	}
	if err := sections.Run(converter.ScanBracketSections(text)); err != nil {
		return nil, err
	}

	if err := p.materialize(); err != nil {
		return nil, err
	}

	p.chart.Finalize()
	return p.chart, nil
}

func (p *osuParser) forEachLine(parse func(line string) error) converter.SectionHandler {
	return func(content string) error {
		for _, line := range strings.Split(content, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			if err := parse(line); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *osuParser) general() converter.SectionTable {
	info := &p.chart.Info
	return converter.SectionTable{
		"AudioFilename": func(v string) error {
			info.SongPath = converter.OrDefault(v, info.SongPath)
			sounds := p.chart.Sounds()
			sounds.AudioTracks = append(sounds.AudioTracks, info.SongPath)
			return nil
		},
		"PreviewTime": func(v string) error {
			info.PreviewTime = converter.ParseOrDefault[int](v, "0")
			return nil
		},
		"Mode": func(v string) error {
			if v == osuManiaMode {
				return nil
			}
			return &converter.InvalidModeError{Found: osuModeName(v), Target: "Mania"}
		},
	}
}

func osuModeName(mode string) string {
	switch mode {
	case "0":
		return "Standard"
	case "1":
		return "Taiko"
	case "2":
		return "Catch"
	default:
		return "Unknown"
	}
}

func (p *osuParser) metadata() converter.SectionTable {
	meta := &p.chart.Metadata
	set := func(field *string) converter.SectionHandler {
		return func(v string) error {
			*field = converter.OrDefault(v, *field)
			return nil
		}
	}
	return converter.SectionTable{
		"Title":         set(&meta.Title),
		"TitleUnicode":  set(&meta.AltTitle),
		"Artist":        set(&meta.Artist),
		"ArtistUnicode": set(&meta.AltArtist),
		"Creator":       set(&meta.Creator),
		"Source":        set(&meta.Source),
		"Version":       set(&p.chart.Info.DifficultyName),
		"Tags": func(v string) error {
			meta.Tags = converter.SplitTags(v)
			return nil
		},
	}
}

func (p *osuParser) difficulty() converter.SectionTable {
	return converter.SectionTable{
		"CircleSize": func(v string) error {
			size, err := converter.ParseFloat32(v)
			if err != nil {
				return converter.BadField("key count", v, "CircleSize: "+v, err)
			}
			if size < 1 {
				return converter.InvalidChart("key count must be at least 1 but got '%s'", v)
			}
			p.chart.Info.KeyCount = int(size)
			return nil
		},
	}
}

func (p *osuParser) parseEvent(line string) error {
	fields := strings.Split(line, ",")
	switch strings.TrimSpace(fields[0]) {
	case "0", "Background":
		if len(fields) < 3 {
			return converter.MissingField("filename", line)
		}
		if _, err := converter.ParseTime(fields[1]); err != nil {
			return converter.BadField("start time", fields[1], line, err)
		}
		if !p.hasBackground {
			p.chart.Info.BackgroundPath = unquote(fields[2])
			p.hasBackground = true
		}
	case "5", "Sample":
		if len(fields) < 4 {
			return converter.MissingField("filename", line)
		}
		start, err := converter.ParseTime(fields[1])
		if err != nil {
			return converter.BadField("start time", fields[1], line, err)
		}
		volume := 100
		if len(fields) > 4 {
			if volume, err = strconv.Atoi(strings.TrimSpace(fields[4])); err != nil {
				return converter.BadField("volume", fields[4], line, err)
			}
		}
		sounds := p.chart.Sounds()
		sounds.AddSoundEffect(converter.SoundEffect{
			Time:   start,
			Volume: clampVolume(volume),
			Sample: sounds.AddSoundSample(unquote(fields[3])),
		})
	}
	return nil
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func clampVolume(volume int) uint8 {
	return uint8(min(max(volume, 0), 100))
}

func (p *osuParser) parseTimingPoint(line string) error {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return converter.MissingField("beat length", line)
	}

	time, err := converter.ParseTime(fields[0])
	if err != nil {
		return converter.BadField("time", fields[0], line, err)
	}
	beatLength, err := converter.ParseFloat32(fields[1])
	if err != nil {
		return converter.BadField("beat length", fields[1], line, err)
	}

	uninherited := true
	if len(fields) > 6 {
		switch strings.TrimSpace(fields[6]) {
		case "0":
			uninherited = false
		case "1":
		default:
			return converter.InvalidChart("uninherited flag should be 0 or 1 but got '%s' in '%s'", fields[6], line)
		}
	}

	effects := 0
	if len(fields) > 7 {
		if effects, err = strconv.Atoi(strings.TrimSpace(fields[7])); err != nil {
			return converter.BadField("effects", fields[7], line, err)
		}
	}

	change := converter.TimingChange{Kiai: effects&1 != 0}
	if uninherited {
		if beatLength <= 0 {
			return converter.InvalidChart("BPM must be positive but beat length is '%s' in '%s'", fields[1], line)
		}
		change.Kind = converter.ChangeBPM
		change.Value = beatLengthToBPM(beatLength)
	} else {
		change.Kind = converter.ChangeSV
		change.Value = beatLengthToMultiplier(beatLength)
	}

	p.timing.Add(converter.TimingEvent{Time: time, Change: change})
	return nil
}

func beatLengthToBPM(beatLength float32) float32 {
	return 60000 / beatLength
}

func beatLengthToMultiplier(beatLength float32) float32 {
	if beatLength == 0 {
		return osuMaxMultiplier
	}
	return -100 / beatLength
}

func bpmToBeatLength(bpm float32) float32 {
	return 60000 / bpm
}

func multiplierToBeatLength(multiplier float32) float32 {
	if multiplier == 0 {
		return -10000
	}
	return -100 / multiplier
}

// columnFromX maps an x coordinate to a lane
func columnFromX(x, keyCount int) int {
	column := int(float32(x) * float32(keyCount) / OsuPlayfieldWidth)
	return min(max(column, 0), keyCount-1)
}

// xFromColumn maps a lane to the x coordinate at its centre
func xFromColumn(column, keyCount int) int {
	return int((float32(column) + 0.5) * OsuPlayfieldWidth / float32(keyCount))
}

func (p *osuParser) materialize() error {
	if !hasBPMEvent(p.timing) {
		return converter.InvalidChart("no BPM data provided in the chart")
	}

	p.timing.Sort()
	start := p.timing.Items()[0].Time
	p.chart.Info.AudioOffset = start

	tp := &p.chart.TimingPoints
	if err := converter.MaterializeTimingPoints(p.timing, tp, start); err != nil {
		return converter.InvalidChart("%v", err)
	}

	keyCount := p.chart.Info.KeyCount
	notes := converter.NewTimeline[converter.NoteEvent]()
	for _, line := range p.hitObjects {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if err := p.parseHitObject(line, keyCount, notes); err != nil {
			return err
		}
	}

	if err := converter.MaterializeHitObjects(notes, &p.chart.HitObjects, keyCount, start, tp.BPMChanges()); err != nil {
		return converter.InvalidChart("%v", err)
	}
	return nil
}

func hasBPMEvent(tl *converter.Timeline[converter.TimingEvent]) bool {
	for _, event := range tl.Items() {
		if event.Change.Kind == converter.ChangeBPM {
			return true
		}
	}
	return false
}

var osuHitObjectFields = []string{"X coordinate", "Y coordinate", "time", "note type", "hit sound"}

func (p *osuParser) parseHitObject(line string, keyCount int, notes *converter.Timeline[converter.NoteEvent]) error {
	fields := strings.Split(line, ",")
	if len(fields) < len(osuHitObjectFields) {
		return converter.MissingField(osuHitObjectFields[len(fields)], line)
	}

	x, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return converter.BadField("X coordinate", fields[0], line, err)
	}
	time, err := converter.ParseTime(fields[2])
	if err != nil {
		return converter.BadField("time", fields[2], line, err)
	}
	noteType, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return converter.BadField("note type", fields[3], line, err)
	}
	hitSound, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return converter.BadField("hit sound", fields[4], line, err)
	}

	extras := strings.Join(fields[5:], ",")
	column := columnFromX(x, keyCount)

	if noteType&128 != 0 {
		endRaw, sample, _ := strings.Cut(extras, ":")
		if strings.TrimSpace(endRaw) == "" {
			return converter.MissingField("object params", line)
		}
		end, err := converter.ParseTime(endRaw)
		if err != nil {
			return converter.BadField("object params", endRaw, line, err)
		}
		sound, err := p.parseHitSample(sample, hitSound, line)
		if err != nil {
			return err
		}
		notes.AddSorted(converter.NoteEvent{Time: time, Lane: column, Key: converter.SliderStartAt(end), Sound: sound})
		notes.AddSorted(converter.NoteEvent{Time: end, Lane: column, Key: converter.NewKey(converter.KeySliderEnd)})
		return nil
	}

	if noteType&1 != 0 {
		sound, err := p.parseHitSample(extras, hitSound, line)
		if err != nil {
			return err
		}
		notes.Add(converter.NoteEvent{Time: time, Lane: column, Key: converter.NewKey(converter.KeyNormal), Sound: sound})
	}
	return nil
}

// parseHitSample reads "normalSet:additionSet:index:volume:filename"
func (p *osuParser) parseHitSample(raw string, hitSound int, line string) (converter.KeySound, error) {
	sound := converter.KeySound{Volume: 100, HitSound: hitSoundFromOsu(hitSound)}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sound, nil
	}

	fields := strings.Split(raw, ":")
	names := []string{"normalSet", "additionSet", "index", "volume"}
	values := make([]int, len(names))
	for i, name := range names {
		if i >= len(fields) {
			break
		}
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return sound, converter.BadField(name, fields[i], line, err)
		}
		values[i] = v
	}

	if volume := values[3]; volume > 0 {
		sound.Volume = clampVolume(volume)
	}
	if len(fields) > 4 {
		if filename := strings.TrimSpace(fields[4]); filename != "" {
			sound.Sample = p.chart.Sounds().AddSoundSample(filename)
			sound.HasCustom = true
		}
	}
	return sound, nil
}

func hitSoundFromOsu(flags int) converter.HitSoundType {
	switch {
	case flags&osuHitSoundClap != 0:
		return converter.HitSoundClap
	case flags&osuHitSoundFinish != 0:
		return converter.HitSoundFinish
	case flags&osuHitSoundWhistle != 0:
		return converter.HitSoundWhistle
	default:
		return converter.HitSoundNormal
	}
}

func hitSoundToOsu(hitSound converter.HitSoundType) int {
	switch hitSound {
	case converter.HitSoundClap:
		return osuHitSoundClap
	case converter.HitSoundFinish:
		return osuHitSoundFinish
	case converter.HitSoundWhistle:
		return osuHitSoundWhistle
	default:
		return 0
	}
}

// ToOsu writes an osu!mania beatmap
func (o *Osu) ToOsu(chart *converter.Chart) (string, error) {
	keyCount := chart.Info.KeyCount
	if keyCount < 1 || keyCount > OsuMaxKeyCount {
		return "", &converter.InvalidKeyCountError{Count: keyCount, Supported: "1k to 18k", Format: "osu!mania"}
	}
	if !chart.TimingPoints.HasBPM() {
		return "", converter.ErrNoTimingPoints
	}

	var b strings.Builder
	b.WriteString("osu file format v14\n")

	b.WriteString("\n[General]\n")
	fmt.Fprintf(&b, "AudioFilename: %s\n", chart.Info.SongPath)
	b.WriteString("AudioLeadIn: 0\n")
	fmt.Fprintf(&b, "PreviewTime: %d\n", chart.Info.PreviewTime)
	b.WriteString("Countdown: 0\nSampleSet: Soft\nStackLeniency: 0.7\nMode: 3\n")
	b.WriteString("LetterboxInBreaks: 0\nSpecialStyle: 0\nWidescreenStoryboard: 1\n")

	b.WriteString("\n[Editor]\nDistanceSpacing: 1\nBeatDivisor: 4\nGridSize: 4\nTimelineZoom: 1\n")

	meta := chart.Metadata
	b.WriteString("\n[Metadata]\n")
	fmt.Fprintf(&b, "Title:%s\n", converter.SingleLine(meta.Title))
	fmt.Fprintf(&b, "TitleUnicode:%s\n", converter.SingleLine(meta.AltTitle))
	fmt.Fprintf(&b, "Artist:%s\n", converter.SingleLine(meta.Artist))
	fmt.Fprintf(&b, "ArtistUnicode:%s\n", converter.SingleLine(meta.AltArtist))
	fmt.Fprintf(&b, "Creator:%s\n", converter.SingleLine(meta.Creator))
	fmt.Fprintf(&b, "Version:%s\n", converter.SingleLine(chart.Info.DifficultyName))
	fmt.Fprintf(&b, "Source:%s\n", converter.SingleLine(meta.Source))
	fmt.Fprintf(&b, "Tags:%s\n", strings.Join(meta.Tags, " "))
	b.WriteString("BeatmapID:0\nBeatmapSetID:-1\n")

	b.WriteString("\n[Difficulty]\n")
	fmt.Fprintf(&b, "HPDrainRate:%s\n", converter.FormatFloat(o.defaults.HPDrainRate))
	fmt.Fprintf(&b, "CircleSize:%d\n", keyCount)
	fmt.Fprintf(&b, "OverallDifficulty:%s\n", converter.FormatFloat(o.defaults.OverallDifficulty))
	b.WriteString("ApproachRate:5\nSliderMultiplier:1.4\nSliderTickRate:1\n")

	b.WriteString("\n[Events]\n//Background and Video events\n")
	fmt.Fprintf(&b, "0,0,\"%s\",0,0\n", chart.Info.BackgroundPath)
	b.WriteString("//Break Periods\n//Storyboard Layer 0 (Background)\n//Storyboard Layer 1 (Fail)\n")
	b.WriteString("//Storyboard Layer 2 (Pass)\n//Storyboard Layer 3 (Foreground)\n//Storyboard Layer 4 (Overlay)\n")
	b.WriteString("//Storyboard Sound Samples\n")
	if sounds := chart.SoundBank; sounds != nil {
		for _, effect := range sounds.SoundEffects {
			path, ok := sounds.SoundSample(effect.Sample)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "Sample,%d,0,\"%s\",%d\n", effect.Time, path, effect.Volume)
		}
	}

	b.WriteString("\n[TimingPoints]\n")
	for _, line := range osuTimingLines(&chart.TimingPoints) {
		b.WriteString(line.text)
		b.WriteByte('\n')
	}

	b.WriteString("\n[HitObjects]\n")
	hitObjects := &chart.HitObjects
	for i, row := range hitObjects.Rows {
		time := hitObjects.Times[i]
		for lane, key := range row {
			x := xFromColumn(lane, keyCount)
			switch key.Type {
			case converter.KeyNormal:
				hitSound, sample := osuHitSample(chart, hitObjects.KeySound(i, lane))
				fmt.Fprintf(&b, "%d,192,%d,1,%d,%s\n", x, time, hitSound, sample)
			case converter.KeySliderStart:
				hitSound, sample := osuHitSample(chart, hitObjects.KeySound(i, lane))
				end := hitObjects.SliderEndTime(i, lane)
				fmt.Fprintf(&b, "%d,192,%d,128,%d,%d:%s\n", x, time, hitSound, end, sample)
			}
		}
	}

	return b.String(), nil
}

type osuTimingLine struct {
	time int
	text string
}

// osuTimingLines renders timing points in time order. A stop becomes a
// near-zero scroll velocity until its end, then the previous velocity.
func osuTimingLines(tp *converter.TimingPoints) []osuTimingLine {
	var lines []osuTimingLine
	sv := float32(1)

	for _, point := range tp.Points() {
		kiai := 0
		if point.Kiai {
			kiai = 1
		}
		switch point.Kind {
		case converter.ChangeBPM:
			sv = 1
			lines = append(lines, osuTimingLine{point.Time, fmt.Sprintf("%d,%s,4,1,0,100,1,%d",
				point.Time, converter.FormatFloat(bpmToBeatLength(point.Value)), kiai)})
		case converter.ChangeSV:
			sv = point.Value
			lines = append(lines, osuTimingLine{point.Time, fmt.Sprintf("%d,%s,4,1,0,100,0,%d",
				point.Time, converter.FormatFloat(multiplierToBeatLength(point.Value)), kiai)})
		case converter.ChangeStop:
			end := point.Time + int(point.Value*1000)
			lines = append(lines,
				osuTimingLine{point.Time, fmt.Sprintf("%d,%s,4,1,0,100,0,0",
					point.Time, converter.FormatFloat(multiplierToBeatLength(0)))},
				osuTimingLine{end, fmt.Sprintf("%d,%s,4,1,0,100,0,0",
					end, converter.FormatFloat(multiplierToBeatLength(sv)))},
			)
		}
	}

	slices.SortStableFunc(lines, func(a, b osuTimingLine) int { return a.time - b.time })
	return lines
}

// osuHitSample returns the hitsound flags and the hit sample field of a key
func osuHitSample(chart *converter.Chart, sound converter.KeySound) (int, string) {
	volume := 0
	if sound.Volume != converter.DefaultKeySound.Volume && sound.Volume != 0 {
		volume = int(sound.Volume)
	}
	filename := ""
	if sound.HasCustom && chart.SoundBank != nil {
		filename, _ = chart.SoundBank.SoundSample(sound.Sample)
	}
	return hitSoundToOsu(sound.HitSound), fmt.Sprintf("0:0:0:%d:%s", volume, filename)
}
