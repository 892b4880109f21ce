package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// DefaultLibraryPath returns the default file path for the material and
// machine library. This is located at ~/.moldquote/library.json.
func DefaultLibraryPath() string {
	return filepath.Join(DefaultConfigDir(), "library.json")
}

// SaveLibrary writes the library to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveLibrary(path string, lib model.Library) error {
	return writeJSON(path, lib)
}

// LoadLibrary reads the library from the specified JSON file.
// If the file does not exist, it returns the preset library and saves it.
func LoadLibrary(path string) (model.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lib := model.DefaultLibrary()
			if saveErr := SaveLibrary(path, lib); saveErr != nil {
				return lib, saveErr
			}
			return lib, nil
		}
		return model.Library{}, err
	}
	var lib model.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return model.Library{}, err
	}
	if lib.Materials == nil {
		lib.Materials = []model.Material{}
	}
	if lib.Machines == nil {
		lib.Machines = []model.Machine{}
	}
	return lib, nil
}

// LoadOrCreateLibrary loads the library from the default path.
// If the file does not exist, it creates one with the presets.
func LoadOrCreateLibrary() (model.Library, string, error) {
	path := DefaultLibraryPath()
	lib, err := LoadLibrary(path)
	return lib, path, err
}

// ExportLibrary exports the library to a user-specified JSON file.
func ExportLibrary(path string, lib model.Library) error {
	return SaveLibrary(path, lib)
}

// ImportLibrary imports a library from a user-specified JSON file, merging it
// into existing. Entries whose IDs already exist are skipped. Imported
// entries are never treated as presets.
func ImportLibrary(path string, existing model.Library) (model.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Library
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	for i := range imported.Materials {
		imported.Materials[i].IsPreset = false
	}
	for i := range imported.Machines {
		imported.Machines[i].IsPreset = false
	}
	existing.Merge(imported)
	return existing, nil
}
