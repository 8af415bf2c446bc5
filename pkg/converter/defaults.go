package converter

// Defaults holds the values used when a chart omits a field, and the
// fixed values writers emit for fields the neutral model does not carry
type Defaults struct {
	Title          string `yaml:"title"`
	AltTitle       string `yaml:"alt_title"`
	Artist         string `yaml:"artist"`
	AltArtist      string `yaml:"alt_artist"`
	Creator        string `yaml:"creator"`
	Genre          string `yaml:"genre"`
	Source         string `yaml:"source"`
	DifficultyName string `yaml:"difficulty_name"`
	BackgroundPath string `yaml:"background_path"`
	SongPath       string `yaml:"song_path"`

	AudioOffset       int     `yaml:"audio_offset"`
	PreviewTime       int     `yaml:"preview_time"`
	KeyCount          int     `yaml:"key_count"`
	OverallDifficulty float32 `yaml:"overall_difficulty"`
	HPDrainRate       float32 `yaml:"hp_drain_rate"`

	// StepMania #SAMPLELENGTH in seconds
	SampleLength float32 `yaml:"sample_length"`

	// MIDI preview export
	MIDIBaseNote        uint8  `yaml:"midi_base_note"`
	MIDITicksPerQuarter uint16 `yaml:"midi_ticks_per_quarter"`
}

// DefaultDefaults returns the built-in defaults
func DefaultDefaults() *Defaults {
	return &Defaults{
		Title:          "Unknown Title",
		AltTitle:       "Unknown Title",
		Artist:         "Unknown Artist",
		AltArtist:      "Unknown Artist",
		Creator:        "Unknown Creator",
		Genre:          "Unknown Genre",
		Source:         "Unknown Source",
		DifficultyName: "Unknown Difficulty",
		BackgroundPath: "Unknown Background Path",
		SongPath:       "Unknown Song File Path",

		AudioOffset:       0,
		PreviewTime:       0,
		KeyCount:          4,
		OverallDifficulty: 7.2,
		HPDrainRate:       8.5,

		SampleLength: 12,

		MIDIBaseNote:        36,
		MIDITicksPerQuarter: 480,
	}
}
