package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MoldQuote/internal/model"
)

func TestLoadLibraryCreatesPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib", "library.json")

	lib, err := LoadLibrary(path)
	require.NoError(t, err)

	presets := model.DefaultLibrary()
	assert.Len(t, lib.Materials, len(presets.Materials))
	assert.Len(t, lib.Machines, len(presets.Machines))

	_, err = os.Stat(path)
	require.NoError(t, err, "missing library should be written with presets")

	// The second load reads the file written by the first.
	again, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, lib.Materials[0].ID, again.Materials[0].ID)
}

func TestSaveAndLoadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")

	m := model.NewMachine("Shop press", "Acme")
	m.ClampingForceKN = model.Float(1200)
	lib := model.Library{Machines: []model.Machine{m}}
	require.NoError(t, SaveLibrary(path, lib))

	loaded, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Materials, "nil lists are normalized")
	require.Len(t, loaded.Machines, 1)
	assert.Equal(t, m, loaded.Machines[0])
}

func TestImportLibraryMergesByID(t *testing.T) {
	dir := t.TempDir()
	existing := model.DefaultLibrary()

	custom := model.NewMaterial("Recycled PP", "rPP", "PP")
	custom.IsPreset = true
	shared := existing.Materials[0]
	exported := model.Library{Materials: []model.Material{shared, custom}}
	path := filepath.Join(dir, "export.json")
	require.NoError(t, ExportLibrary(path, exported))

	merged, err := ImportLibrary(path, existing)
	require.NoError(t, err)
	assert.Len(t, merged.Materials, len(existing.Materials)+1)

	got := merged.FindMaterialByID(custom.ID)
	require.NotNil(t, got)
	assert.False(t, got.IsPreset, "imported entries are user entries")
}

func TestImportLibraryInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("[[["), 0644))

	existing := model.DefaultLibrary()
	merged, err := ImportLibrary(path, existing)
	assert.Error(t, err)
	assert.Len(t, merged.Materials, len(existing.Materials))
}
