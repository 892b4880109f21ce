package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

// DXF layer names of the machine layout.
const (
	LayerPlaten    = "PLATEN"
	LayerClearance = "TIEBAR_CLEARANCE"
	LayerTieBars   = "TIEBARS"
	LayerTool      = "TOOL"
	LayerText      = "ANNOTATION"
)

// ExportLayoutDXF writes the platen front view of machine with a tool of
// the given dimensions centred on it, in mm with the origin at the platen
// centre.
func ExportLayoutDXF(path string, machine model.Machine, tool engine.ToolDimensions) error {
	if tool.WidthMM <= 0 || tool.HeightMM <= 0 {
		return fmt.Errorf("tool dimensions unknown")
	}
	l := NewLayout(machine, tool)

	d := dxf.NewDrawing()
	toolColor := color.Green
	if !l.ToolClearsTieBars() {
		toolColor = color.Red
	}
	layers := []struct {
		name  string
		color color.ColorNumber
	}{
		{LayerPlaten, color.White},
		{LayerClearance, color.Cyan},
		{LayerTieBars, color.Blue},
		{LayerTool, toolColor},
		{LayerText, color.Yellow},
	}
	for _, layer := range layers {
		if _, err := d.AddLayer(layer.name, layer.color, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", layer.name, err)
		}
	}

	if err := drawRect(d, LayerPlaten, l.Platen); err != nil {
		return err
	}
	if l.HasTieBars {
		if err := drawRect(d, LayerClearance, l.Clearance); err != nil {
			return err
		}
		if err := d.ChangeLayer(LayerTieBars); err != nil {
			return err
		}
		for _, c := range l.TieBars {
			if _, err := d.Circle(c.X, c.Y, 0, c.R); err != nil {
				return fmt.Errorf("failed to draw tie-bar: %w", err)
			}
		}
	}
	if err := drawRect(d, LayerTool, l.Tool); err != nil {
		return err
	}

	if err := d.ChangeLayer(LayerText); err != nil {
		return err
	}
	textHeight := l.Platen.H / 40
	notes := []string{
		fmt.Sprintf("%s  platen %.0f x %.0f", machine.Name, l.Platen.W, l.Platen.H),
		fmt.Sprintf("tool %.0f x %.0f x %.0f", tool.WidthMM, tool.HeightMM, tool.LengthMM),
	}
	for i, note := range notes {
		y := l.Platen.Y - float64(i+2)*textHeight*1.5
		if _, err := d.Text(note, l.Platen.X, y, 0, textHeight); err != nil {
			return fmt.Errorf("failed to write annotation: %w", err)
		}
	}

	return d.SaveAs(path)
}

// drawRect draws r as four lines on layer.
func drawRect(d *drawing.Drawing, layer string, r Rect) error {
	if err := d.ChangeLayer(layer); err != nil {
		return err
	}
	corners := [][2]float64{
		{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H},
	}
	for i, a := range corners {
		b := corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return fmt.Errorf("failed to draw %s: %w", layer, err)
		}
	}
	return nil
}
