// Package seed loads the optional yaml file holding the mood vocabulary and
// an initial rant corpus.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads a seed file from disk.
type Loader struct {
	filePath string
}

// NewLoader creates a seed loader.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the seed file. Unknown keys are rejected so typos
// do not silently drop data.
func (l *Loader) Load() (*File, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return &file, nil
}
