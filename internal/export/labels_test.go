package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

func TestCollectLabelInfos(t *testing.T) {
	p, _, evals := buildTestProject()

	labels := CollectLabelInfos(p, evals)
	require.Len(t, labels, 3)

	family := labels[0]
	assert.Equal(t, "Bracket RFQ", family.RFQ)
	assert.Equal(t, "Family tool", family.ToolName)
	assert.Equal(t, 4, family.Cavities)
	assert.Equal(t, []string{"2x Housing", "2x Cover"}, family.Parts)
	assert.Equal(t, "Engel victory 200", family.Machine)
	assert.InDelta(t, 1932.5, family.ClampKN, 0.01)
	assert.Equal(t, 400.0, family.WidthMM)
	assert.Equal(t, 480.0, family.HeightMM)

	empty := labels[2]
	assert.Equal(t, "Empty", empty.ToolName)
	assert.Equal(t, 1, empty.Cavities)
	assert.Empty(t, empty.Parts)
	assert.Empty(t, empty.Machine)
	assert.Zero(t, empty.ClampKN)
}

func TestCollectLabelInfos_LegacyPart(t *testing.T) {
	part := model.NewPart("Knob")
	tool := model.NewTool("Legacy")
	tool.Cavities = 8
	tool.LegacyPartID = part.ID

	p := model.NewProject()
	p.Parts = []model.Part{part}
	p.Tools = []model.Tool{tool}

	labels := CollectLabelInfos(p, []engine.ToolEvaluation{{Tool: tool}})
	require.Len(t, labels, 1)
	assert.Equal(t, []string{"8x Knob"}, labels[0].Parts)
}

func TestExportLabels_CreatesFile(t *testing.T) {
	p, _, evals := buildTestProject()
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, p, evals); err != nil {
		t.Fatalf("ExportLabels failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file not found: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

func TestExportLabels_NoTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, model.NewProject(), nil); err == nil {
		t.Error("expected error for project without tools")
	}
}

func TestExportLabels_ManyTools(t *testing.T) {
	p := model.NewProject()
	var evals []engine.ToolEvaluation
	// More than one page of labels
	for i := 0; i < 35; i++ {
		tool := model.NewTool(fmt.Sprintf("Tool %02d with a rather long descriptive name", i))
		p.Tools = append(p.Tools, tool)
		evals = append(evals, engine.ToolEvaluation{Tool: tool})
	}
	path := filepath.Join(t.TempDir(), "labels.pdf")

	require.NoError(t, ExportLabels(path, p, evals))
}
