package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Store persists the set of already-processed question IDs as a flat JSON
// array of integers. Single-process use only; every save rewrites the file.
type Store struct {
	path string
}

// New creates a Store backed by the given file path
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted ID set. A missing file is not an error and
// yields an empty set.
func (s *Store) Load() (map[int]bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int]bool{}, nil
		}
		return nil, fmt.Errorf("reading checkpoint file: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parsing checkpoint file: %w", err)
	}

	processed := make(map[int]bool, len(ids))
	for _, id := range ids {
		processed[id] = true
	}
	return processed, nil
}

// Save adds an ID to the persisted set if absent and rewrites the file.
// The write goes to a temp file first and is renamed into place so a crash
// mid-save cannot truncate the store.
func (s *Store) Save(id int) error {
	data, err := os.ReadFile(s.path)
	ids := []int{}
	if err == nil {
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("parsing checkpoint file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading checkpoint file: %w", err)
	}

	if slices.Contains(ids, id) {
		return nil
	}
	ids = append(ids, id)

	out, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing checkpoint file: %w", err)
	}

	return nil
}
