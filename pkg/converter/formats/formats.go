package formats

import "github.com/james-see/chartconv/pkg/converter"

// All returns every codec sharing the given defaults, in the order their
// formats are offered
func All(defaults *converter.Defaults) []converter.Codec {
	return []converter.Codec{
		NewOsu(defaults),
		NewStepMania(defaults),
		NewQuaver(defaults),
		NewMIDI(defaults),
	}
}

// NewConverter creates a converter with every codec registered
func NewConverter(defaults *converter.Defaults) *converter.Converter {
	return converter.New(All(defaults)...)
}
