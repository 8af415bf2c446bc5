// Package converter provides a format-neutral model for rhythm game charts
// and conversion between chart formats
package converter

// KeyType is the state of one lane in a row
type KeyType uint8

const (
	KeyEmpty KeyType = iota
	KeyNormal
	KeySliderStart
	KeySliderEnd
	KeyMine
	KeyFake
	KeyUnknown
)

func (k KeyType) String() string {
	switch k {
	case KeyEmpty:
		return "empty"
	case KeyNormal:
		return "normal"
	case KeySliderStart:
		return "slider start"
	case KeySliderEnd:
		return "slider end"
	case KeyMine:
		return "mine"
	case KeyFake:
		return "fake"
	default:
		return "unknown"
	}
}

// Key is a single cell of a row
type Key struct {
	Type       KeyType
	EndTime    int  // Slider end in ms, valid when HasEndTime is set
	HasEndTime bool // Only meaningful for KeySliderStart
}

// NewKey creates a key of the given type
func NewKey(t KeyType) Key {
	return Key{Type: t}
}

// SliderStartAt creates a slider start that ends at endTime
func SliderStartAt(endTime int) Key {
	return Key{Type: KeySliderStart, EndTime: endTime, HasEndTime: true}
}

// Row holds one key per lane at a single instant
type Row []Key

// NewRow creates a row of keyCount empty keys
func NewRow(keyCount int) Row {
	return make(Row, keyCount)
}

// IsEmpty reports whether every key in the row is empty
func (r Row) IsEmpty() bool {
	for _, key := range r {
		if key.Type != KeyEmpty {
			return false
		}
	}
	return true
}

// ObjectCount returns the number of non-empty keys in the row
func (r Row) ObjectCount() int {
	count := 0
	for _, key := range r {
		if key.Type != KeyEmpty {
			count++
		}
	}
	return count
}

// ChangeKind distinguishes timing changes
type ChangeKind uint8

const (
	ChangeBPM ChangeKind = iota
	ChangeSV
	ChangeStop
)

func (c ChangeKind) String() string {
	switch c {
	case ChangeBPM:
		return "bpm"
	case ChangeSV:
		return "sv"
	case ChangeStop:
		return "stop"
	default:
		return "unknown"
	}
}

// TimingChange is a BPM, a scroll velocity multiplier or a stop duration in seconds
type TimingChange struct {
	Kind  ChangeKind
	Value float32
	Kiai  bool
}

// TimingPoint is one entry of TimingPoints
type TimingPoint struct {
	Time int
	Beat float32
	TimingChange
}

// TimingPoints stores timing changes as parallel arrays sorted by time
type TimingPoints struct {
	Times   []int
	Beats   []float32
	Changes []TimingChange
}

// Add appends a timing change
func (tp *TimingPoints) Add(time int, beat float32, change TimingChange) {
	tp.Times = append(tp.Times, time)
	tp.Beats = append(tp.Beats, beat)
	tp.Changes = append(tp.Changes, change)
}

// Len returns the number of timing changes
func (tp *TimingPoints) Len() int {
	return len(tp.Times)
}

// Point returns the i-th timing change
func (tp *TimingPoints) Point(i int) TimingPoint {
	return TimingPoint{Time: tp.Times[i], Beat: tp.Beats[i], TimingChange: tp.Changes[i]}
}

// Points returns every timing change of the given kinds, or all of them when none is given
func (tp *TimingPoints) Points(kinds ...ChangeKind) []TimingPoint {
	points := make([]TimingPoint, 0, tp.Len())
	for i := range tp.Times {
		if len(kinds) > 0 && !containsKind(kinds, tp.Changes[i].Kind) {
			continue
		}
		points = append(points, tp.Point(i))
	}
	return points
}

// HasBPM reports whether at least one BPM change is present
func (tp *TimingPoints) HasBPM() bool {
	for _, change := range tp.Changes {
		if change.Kind == ChangeBPM {
			return true
		}
	}
	return false
}

// BPMChanges returns the BPM changes keyed by time, the tempo reference for TimeToBeat
func (tp *TimingPoints) BPMChanges() []BPMChange {
	var bpms []BPMChange
	for i, change := range tp.Changes {
		if change.Kind == ChangeBPM {
			bpms = append(bpms, BPMChange{Time: tp.Times[i], BPM: change.Value})
		}
	}
	return bpms
}

// TempoChanges returns the BPM changes and stops keyed by beat, the tempo reference for BeatToTime
func (tp *TimingPoints) TempoChanges() []TempoChange {
	var changes []TempoChange
	for i, change := range tp.Changes {
		if change.Kind == ChangeBPM || change.Kind == ChangeStop {
			changes = append(changes, TempoChange{Beat: tp.Beats[i], Value: change.Value, Kind: change.Kind})
		}
	}
	return changes
}

// BPMRange returns the lowest and highest BPM, or zeros when there is none
func (tp *TimingPoints) BPMRange() (lowest, highest float32) {
	first := true
	for _, change := range tp.Changes {
		if change.Kind != ChangeBPM {
			continue
		}
		if first || change.Value < lowest {
			lowest = change.Value
		}
		if first || change.Value > highest {
			highest = change.Value
		}
		first = false
	}
	return lowest, highest
}

func containsKind(kinds []ChangeKind, kind ChangeKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// HitSoundType is the hitsound played with a key
type HitSoundType uint8

const (
	HitSoundNormal HitSoundType = iota
	HitSoundClap
	HitSoundWhistle
	HitSoundFinish
)

// KeySound describes the sound attached to one key
type KeySound struct {
	Volume    uint8 // 0-100
	HitSound  HitSoundType
	Sample    int  // SoundBank index, valid when HasCustom is set
	HasCustom bool // Custom sample from the SoundBank
}

// DefaultKeySound is the sound of a key with no hitsound information
var DefaultKeySound = KeySound{Volume: 100, HitSound: HitSoundNormal}

// IsDefault reports whether the key sound carries no information
func (k KeySound) IsDefault() bool {
	return k == DefaultKeySound || k == KeySound{}
}

// HitObjects stores the note grid as parallel arrays. Rows whose keys are
// all empty are never stored.
type HitObjects struct {
	Times     []int
	Beats     []float32
	Rows      []Row
	KeySounds [][]KeySound // One entry per row, nil when the row has no key sounds
}

// AddRow appends a row and reports whether it was stored. All-empty rows are dropped.
func (h *HitObjects) AddRow(time int, beat float32, row Row, sounds []KeySound) bool {
	if row.IsEmpty() {
		return false
	}
	h.Times = append(h.Times, time)
	h.Beats = append(h.Beats, beat)
	h.Rows = append(h.Rows, row)
	h.KeySounds = append(h.KeySounds, sounds)
	return true
}

// Len returns the number of stored rows
func (h *HitObjects) Len() int {
	return len(h.Rows)
}

// ObjectCount returns the number of non-empty keys across all rows
func (h *HitObjects) ObjectCount() int {
	count := 0
	for _, row := range h.Rows {
		count += row.ObjectCount()
	}
	return count
}

// KeySound returns the sound of the key at row and lane
func (h *HitObjects) KeySound(row, lane int) KeySound {
	if row >= len(h.KeySounds) || lane >= len(h.KeySounds[row]) {
		return DefaultKeySound
	}
	return h.KeySounds[row][lane]
}

// SliderEndTime returns the end time of the slider starting at row and lane.
// A recorded end time wins; otherwise the next slider end in the same lane is
// used, and the start time when there is none.
func (h *HitObjects) SliderEndTime(row, lane int) int {
	key := h.Rows[row][lane]
	if key.HasEndTime {
		return key.EndTime
	}
	for i := row + 1; i < len(h.Rows); i++ {
		if lane < len(h.Rows[i]) && h.Rows[i][lane].Type == KeySliderEnd {
			return h.Times[i]
		}
	}
	return h.Times[row]
}

// LinkSliderEnds records the end time of every slider start that has none
func (h *HitObjects) LinkSliderEnds() {
	for i, row := range h.Rows {
		for lane, key := range row {
			if key.Type != KeySliderStart || key.HasEndTime {
				continue
			}
			end := h.SliderEndTime(i, lane)
			h.Rows[i][lane] = SliderStartAt(end)
		}
	}
}

// Metadata holds descriptive strings of a chart
type Metadata struct {
	Title     string
	AltTitle  string
	Artist    string
	AltArtist string
	Creator   string
	Genre     string
	Source    string
	Tags      []string
}

// ChartInfo holds playback and layout information of a chart
type ChartInfo struct {
	DifficultyName string
	BackgroundPath string
	SongPath       string
	AudioOffset    int // Time of the first timing point, the rhythmic origin
	PreviewTime    int
	KeyCount       int
	RowCount       int
	ObjectCount    int
}

// Chart is one playable difficulty in a format-neutral representation
type Chart struct {
	Metadata     Metadata
	Info         ChartInfo
	TimingPoints TimingPoints
	HitObjects   HitObjects
	SoundBank    *SoundBank
}

// NewChart creates a chart whose metadata and info hold the given defaults
func NewChart(d *Defaults) *Chart {
	if d == nil {
		d = DefaultDefaults()
	}
	return &Chart{
		Metadata: Metadata{
			Title:     d.Title,
			AltTitle:  d.AltTitle,
			Artist:    d.Artist,
			AltArtist: d.AltArtist,
			Creator:   d.Creator,
			Genre:     d.Genre,
			Source:    d.Source,
		},
		Info: ChartInfo{
			DifficultyName: d.DifficultyName,
			BackgroundPath: d.BackgroundPath,
			SongPath:       d.SongPath,
			AudioOffset:    d.AudioOffset,
			PreviewTime:    d.PreviewTime,
			KeyCount:       d.KeyCount,
		},
	}
}

// Finalize computes the derived row and object statistics
func (c *Chart) Finalize() {
	c.Info.RowCount = c.HitObjects.Len()
	c.Info.ObjectCount = c.HitObjects.ObjectCount()
}

// Sounds returns the sound bank, creating it on first use
func (c *Chart) Sounds() *SoundBank {
	if c.SoundBank == nil {
		c.SoundBank = NewSoundBank()
	}
	return c.SoundBank
}
