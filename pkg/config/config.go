// Package config loads chart defaults from YAML files
package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/james-see/chartconv/pkg/converter"
)

// Load reads defaults from a YAML file in fsys. Fields the file omits keep
// their built-in values.
func Load(fsys fs.FS, name string) (*converter.Defaults, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadFile reads defaults from a YAML file on disk. An empty path returns
// the built-in defaults.
func LoadFile(path string) (*converter.Defaults, error) {
	if path == "" {
		return converter.DefaultDefaults(), nil
	}
	return Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Decode reads defaults from YAML over the built-in ones
func Decode(r io.Reader) (*converter.Defaults, error) {
	defaults := converter.DefaultDefaults()
	if err := yaml.NewDecoder(r).Decode(defaults); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not decode: %w", err)
	}
	if defaults.KeyCount < 1 {
		return nil, fmt.Errorf("key_count must be at least 1, got %d", defaults.KeyCount)
	}
	return defaults, nil
}

// Write encodes defaults as YAML
func Write(w io.Writer, defaults *converter.Defaults) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(defaults); err != nil {
		return fmt.Errorf("could not encode: %w", err)
	}
	return enc.Close()
}
