package converter

// Summary is a short description of a parsed chart
type Summary struct {
	Format         Format   `json:"format"`
	Title          string   `json:"title"`
	Artist         string   `json:"artist"`
	Creator        string   `json:"creator"`
	DifficultyName string   `json:"difficulty_name"`
	Tags           []string `json:"tags,omitempty"`
	KeyCount       int      `json:"key_count"`
	AudioOffset    int      `json:"audio_offset"`
	Rows           int      `json:"rows"`
	Objects        int      `json:"objects"`
	TimingPoints   int      `json:"timing_points"`
	MinBPM         float32  `json:"min_bpm"`
	MaxBPM         float32  `json:"max_bpm"`
	Length         int      `json:"length_ms"`
	Samples        int      `json:"samples"`
}

// Summarize describes a chart parsed from the given format
func Summarize(chart *Chart, format Format) Summary {
	minBPM, maxBPM := chart.TimingPoints.BPMRange()
	s := Summary{
		Format:         format,
		Title:          chart.Metadata.Title,
		Artist:         chart.Metadata.Artist,
		Creator:        chart.Metadata.Creator,
		DifficultyName: chart.Info.DifficultyName,
		Tags:           chart.Metadata.Tags,
		KeyCount:       chart.Info.KeyCount,
		AudioOffset:    chart.Info.AudioOffset,
		Rows:           chart.HitObjects.Len(),
		Objects:        chart.HitObjects.ObjectCount(),
		TimingPoints:   chart.TimingPoints.Len(),
		MinBPM:         minBPM,
		MaxBPM:         maxBPM,
	}
	if n := len(chart.HitObjects.Times); n > 0 {
		s.Length = chart.HitObjects.Times[n-1] - chart.HitObjects.Times[0]
	}
	if chart.SoundBank != nil {
		s.Samples = chart.SoundBank.SampleCount()
	}
	return s
}
