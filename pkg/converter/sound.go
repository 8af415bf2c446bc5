package converter

// SoundEffect is a sample scheduled at an absolute time
type SoundEffect struct {
	Time   int
	Volume uint8
	Sample int
}

// SoundBank holds the audio files and custom samples a chart refers to
type SoundBank struct {
	AudioTracks  []string
	SoundEffects []SoundEffect
	samples      []string
	index        map[string]int
}

// NewSoundBank creates an empty sound bank
func NewSoundBank() *SoundBank {
	return &SoundBank{index: make(map[string]int)}
}

// AddSoundSample registers a sample path and returns its index.
// A path already present keeps its index.
func (s *SoundBank) AddSoundSample(path string) int {
	if idx, ok := s.index[path]; ok {
		return idx
	}
	idx := len(s.samples)
	s.samples = append(s.samples, path)
	s.index[path] = idx
	return idx
}

// AddSoundSampleWithIndex registers a sample path at a fixed index,
// growing the sample list with empty paths when needed
func (s *SoundBank) AddSoundSampleWithIndex(idx int, path string) {
	for len(s.samples) <= idx {
		s.samples = append(s.samples, "")
	}
	if old := s.samples[idx]; old != "" {
		delete(s.index, old)
	}
	s.samples[idx] = path
	s.index[path] = idx
}

// AddSoundEffect schedules a sample
func (s *SoundBank) AddSoundEffect(effect SoundEffect) {
	s.SoundEffects = append(s.SoundEffects, effect)
}

// SoundSample returns the path of the sample at idx
func (s *SoundBank) SoundSample(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.samples) {
		return "", false
	}
	return s.samples[idx], true
}

// SampleIndex returns the index of a sample path
func (s *SoundBank) SampleIndex(path string) (int, bool) {
	idx, ok := s.index[path]
	return idx, ok
}

// ContainsPath reports whether a sample path is registered
func (s *SoundBank) ContainsPath(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Samples returns the sample paths in index order
func (s *SoundBank) Samples() []string {
	return s.samples
}

// SampleCount returns the number of registered samples
func (s *SoundBank) SampleCount() int {
	return len(s.samples)
}

// IsEmpty reports whether the bank has no tracks, samples or effects
func (s *SoundBank) IsEmpty() bool {
	return len(s.AudioTracks) == 0 && len(s.samples) == 0 && len(s.SoundEffects) == 0
}
