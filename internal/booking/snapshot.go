package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSnapshotter stores the registry as pretty-printed JSON, the shape
// the surrounding tooling already reads.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter creates a snapshotter writing to the given path.
func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

// Load reads the snapshot. A missing file is an empty registry, not an error.
func (s *FileSnapshotter) Load() (map[string]*Booking, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]*Booking{}, nil
		}
		return nil, fmt.Errorf("booking: read snapshot: %w", err)
	}
	var out map[string]*Booking
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("booking: decode snapshot: %w", err)
	}
	if out == nil {
		out = map[string]*Booking{}
	}
	return out, nil
}

// Save writes the snapshot atomically via a temp file rename.
func (s *FileSnapshotter) Save(bookings map[string]*Booking) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("booking: create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return fmt.Errorf("booking: encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("booking: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("booking: replace snapshot: %w", err)
	}
	return nil
}
