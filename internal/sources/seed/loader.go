package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Loader handles loading and parsing of a seed file
type Loader struct {
	filePath string
}

// NewLoader creates a new seed loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the seed file, then inlines every contentFile.
// Unknown keys are rejected so typos do not import silently.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	dir := filepath.Dir(l.filePath)
	for _, kind := range domain.Kinds {
		entries := file.entries(kind)
		for i := range entries {
			if err := resolveContent(dir, &entries[i]); err != nil {
				return nil, fmt.Errorf("%s %q: %w", kind, entries[i].Title, err)
			}
		}
	}

	return &file, nil
}

// resolveContent reads e.ContentFile into e.Content when no inline content
// is given.
func resolveContent(dir string, e *Entry) error {
	if e.Content != "" || e.ContentFile == "" {
		return nil
	}

	path := e.ContentFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}
	e.Content = string(data)
	return nil
}
