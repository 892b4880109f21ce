// Package project reads and writes RFQ project files and the desktop app's
// configuration, library, policy and backup files.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// FileExtension is the extension of saved RFQ projects.
const FileExtension = ".mqp"

// FileVersion is written into every project file.
const FileVersion = 1

// ErrUnsupportedVersion is returned for project files written by a newer release.
var ErrUnsupportedVersion = errors.New("unsupported project file version")

type projectFile struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Project model.Project `json:"project"`
}

// Save writes p to path, adding the project extension when missing. It
// returns the path written.
func Save(path string, p model.Project) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), FileExtension) {
		path += FileExtension
	}
	p.ModifiedAt = time.Now().UTC().Truncate(time.Second)
	file := projectFile{Version: FileVersion, SavedAt: p.ModifiedAt, Project: p}
	if err := writeJSON(path, file); err != nil {
		return "", fmt.Errorf("failed to save project: %w", err)
	}
	return path, nil
}

// Load reads a project file. Nil part and tool lists are normalized to empty.
func Load(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project file: %w", err)
	}
	var file projectFile
	if err := json.Unmarshal(data, &file); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project file: %w", err)
	}
	if file.Version == 0 {
		return model.Project{}, fmt.Errorf("invalid project file: missing version field")
	}
	if file.Version > FileVersion {
		return model.Project{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, file.Version)
	}

	p := file.Project
	if p.Parts == nil {
		p.Parts = []model.Part{}
	}
	if p.Tools == nil {
		p.Tools = []model.Tool{}
	}
	for i := range p.Tools {
		if p.Tools[i].Configurations == nil {
			p.Tools[i].Configurations = []model.ToolPartConfiguration{}
		}
	}
	if p.Status == "" {
		p.Status = model.StatusDraft
	}
	return p, nil
}
