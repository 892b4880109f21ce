package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

func TestExportLayoutDXF(t *testing.T) {
	lib := model.DefaultLibrary()
	machine := lib.FindMachineByName("Engel victory 200")
	path := filepath.Join(t.TempDir(), "layout.dxf")

	err := ExportLayoutDXF(path, *machine, engine.ToolDimensions{WidthMM: 400, HeightMM: 480, LengthMM: 320})
	require.NoError(t, err)

	d, err := dxf.Open(path)
	require.NoError(t, err)

	lines, circles := 0, 0
	for _, e := range d.Entities() {
		switch e.(type) {
		case *entity.Line:
			lines++
		case *entity.Circle:
			circles++
		}
	}
	// platen, tie-bar clearance and tool outlines
	assert.Equal(t, 12, lines)
	assert.Equal(t, 4, circles)
}

func TestExportLayoutDXF_NoTieBars(t *testing.T) {
	machine := model.NewMachine("Bare", "")
	path := filepath.Join(t.TempDir(), "layout.dxf")

	require.NoError(t, ExportLayoutDXF(path, machine, engine.ToolDimensions{WidthMM: 300, HeightMM: 200}))

	d, err := dxf.Open(path)
	require.NoError(t, err)
	lines := 0
	for _, e := range d.Entities() {
		if _, ok := e.(*entity.Line); ok {
			lines++
		}
	}
	assert.Equal(t, 8, lines)
}

func TestExportLayoutDXF_UnknownDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.dxf")
	err := ExportLayoutDXF(path, model.NewMachine("M", ""), engine.ToolDimensions{})
	assert.Error(t, err)
}
