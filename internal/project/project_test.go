package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MoldQuote/internal/model"
)

func TestSaveAndLoadProject(t *testing.T) {
	p := model.NewProject()
	p.Name = "Bracket RFQ"
	part := model.NewPart("Bracket")
	part.Geometry = model.BoxGeometry(120, 80, 60)
	part.PeakDemand = model.Int(300_000)
	tool := model.NewTool("T1")
	tool.Configurations = append(tool.Configurations, model.NewToolPartConfiguration(part.ID, 4))
	p.Parts = append(p.Parts, part)
	p.Tools = append(p.Tools, tool)

	path, err := Save(filepath.Join(t.TempDir(), "bracket"), p)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, FileExtension), "extension is added: %s", path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.ID, loaded.ID)
	assert.Equal(t, p.Parts, loaded.Parts)
	assert.Equal(t, p.Tools, loaded.Tools)
	assert.False(t, loaded.ModifiedAt.Before(p.ModifiedAt))
}

func TestSaveKeepsExistingExtension(t *testing.T) {
	path, err := Save(filepath.Join(t.TempDir(), "rfq.MQP"), model.NewProject())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "rfq.MQP"))
}

func TestLoadProjectNormalizesLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.mqp")
	data := `{"version":1,"project":{"id":"abc","name":"Old","tools":[{"id":"t","name":"T"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, p.Parts)
	require.Len(t, p.Tools, 1)
	assert.NotNil(t, p.Tools[0].Configurations)
	assert.Equal(t, model.StatusDraft, p.Status)
}

func TestLoadProjectRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"noversion.mqp": `{"project":{"id":"abc"}}`,
		"newer.mqp":     `{"version":99,"project":{"id":"abc"}}`,
		"broken.mqp":    `{"version":`,
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "newer.mqp"))
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	_, err = Load(filepath.Join(dir, "missing.mqp"))
	assert.Error(t, err)
}
