package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/greensat/internal/model"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	s := New(path)

	_, err := s.Load()
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Save(&model.Prefs{Theme: model.ThemeLight, ChartMode: "air"}))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file renamed away")

	prefs, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, prefs.Theme)
	assert.Equal(t, "air", prefs.ChartMode)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{theme"), 0o644))

	_, err := New(path).Load()
	assert.Error(t, err)
}
