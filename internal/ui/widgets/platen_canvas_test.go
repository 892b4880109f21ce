package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/export"
	"github.com/piwi3910/MoldQuote/internal/model"
)

func testLayout() export.Layout {
	m := model.NewMachine("Test 100t", "Acme")
	m.PlatenWidthMM = model.Float(600)
	m.PlatenHeightMM = model.Float(600)
	m.TieBarSpacingHMM = model.Float(400)
	m.TieBarSpacingVMM = model.Float(400)
	return export.NewLayout(m, engine.ToolDimensions{WidthMM: 300, HeightMM: 200, LengthMM: 250})
}

func TestPlatenCanvasScaleFitsBounds(t *testing.T) {
	pc := NewPlatenCanvas(testLayout(), "", 300, 150)
	b := pc.layout.Bounds()
	scale := pc.scale()
	assert.LessOrEqual(t, float32(b.W)*scale, float32(300.001))
	assert.LessOrEqual(t, float32(b.H)*scale, float32(150.001))
}

func TestPlatenCanvasScaleEmptyLayout(t *testing.T) {
	pc := &PlatenCanvas{maxWidth: 100, maxHeight: 100}
	if got := pc.scale(); got != 1 {
		t.Errorf("expected scale 1 for empty layout, got %v", got)
	}
}

func TestPlatenCanvasRendererObjects(t *testing.T) {
	pc := NewPlatenCanvas(testLayout(), "Test 100t", 400, 400)
	r := newPlatenCanvasRenderer(pc)
	// platen, clearance, 4 tie-bars, tool, dims, caption
	assert.Len(t, r.Objects(), 9)
}
