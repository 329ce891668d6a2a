package store

import (
	"encoding/json"
	"os"

	"github.com/thatsimonsguy/greensat/internal/model"
)

// Store persists console preferences as a JSON file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*model.Prefs, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var prefs model.Prefs
	if err := json.NewDecoder(file).Decode(&prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Save writes through a temp file and renames it so a crash never leaves a
// half-written file behind.
func (s *Store) Save(prefs *model.Prefs) error {
	tmpPath := s.path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(prefs); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}
