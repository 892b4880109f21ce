package widgets

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/MoldQuote/internal/export"
)

var (
	platenColor    = color.NRGBA{R: 176, G: 184, B: 194, A: 255}
	clearanceColor = color.NRGBA{R: 222, G: 227, B: 233, A: 255}
	tieBarColor    = color.NRGBA{R: 90, G: 96, B: 104, A: 255}
	toolFitColor   = color.NRGBA{R: 76, G: 175, B: 80, A: 200}
	toolClashColor = color.NRGBA{R: 244, G: 67, B: 54, A: 200}
	outlineColor   = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
)

// PlatenCanvas draws the front view of a moving platen with the tool mounted
// on it, scaled to fit within the given bounds.
type PlatenCanvas struct {
	widget.BaseWidget
	layout    export.Layout
	caption   string
	maxWidth  float32
	maxHeight float32
}

// NewPlatenCanvas creates a platen view of l. The caption is drawn in the
// top-left corner.
func NewPlatenCanvas(l export.Layout, caption string, maxW, maxH float32) *PlatenCanvas {
	pc := &PlatenCanvas{
		layout:    l,
		caption:   caption,
		maxWidth:  maxW,
		maxHeight: maxH,
	}
	pc.ExtendBaseWidget(pc)
	return pc
}

// SetLayout replaces the drawn layout.
func (pc *PlatenCanvas) SetLayout(l export.Layout, caption string) {
	pc.layout = l
	pc.caption = caption
	pc.Refresh()
}

func (pc *PlatenCanvas) CreateRenderer() fyne.WidgetRenderer {
	return newPlatenCanvasRenderer(pc)
}

// scale returns the mm-to-pixel factor that fits the layout bounds.
func (pc *PlatenCanvas) scale() float32 {
	b := pc.layout.Bounds()
	if b.W <= 0 || b.H <= 0 {
		return 1
	}
	scale := pc.maxWidth / float32(b.W)
	if sy := pc.maxHeight / float32(b.H); sy < scale {
		scale = sy
	}
	return scale
}

type platenCanvasRenderer struct {
	pc      *PlatenCanvas
	objects []fyne.CanvasObject
}

func newPlatenCanvasRenderer(pc *PlatenCanvas) *platenCanvasRenderer {
	r := &platenCanvasRenderer{pc: pc}
	r.rebuild()
	return r
}

func (r *platenCanvasRenderer) rebuild() {
	r.objects = nil

	l := r.pc.layout
	b := l.Bounds()
	scale := r.pc.scale()

	// Layout Y points up, canvas Y points down.
	toCanvas := func(rect export.Rect) (fyne.Position, fyne.Size) {
		x := float32(rect.X-b.X) * scale
		y := float32(b.Y+b.H-(rect.Y+rect.H)) * scale
		return fyne.NewPos(x, y), fyne.NewSize(float32(rect.W)*scale, float32(rect.H)*scale)
	}

	addRect := func(rect export.Rect, fill color.Color, stroke float32) {
		pos, size := toCanvas(rect)
		cr := canvas.NewRectangle(fill)
		if stroke > 0 {
			cr.StrokeColor = outlineColor
			cr.StrokeWidth = stroke
		}
		cr.Resize(size)
		cr.Move(pos)
		r.objects = append(r.objects, cr)
	}

	addRect(l.Platen, platenColor, 2)
	if l.HasTieBars {
		addRect(l.Clearance, clearanceColor, 0)
		for _, tb := range l.TieBars {
			c := canvas.NewCircle(tieBarColor)
			pos, size := toCanvas(export.Rect{X: tb.X - tb.R, Y: tb.Y - tb.R, W: 2 * tb.R, H: 2 * tb.R})
			c.Resize(size)
			c.Move(pos)
			r.objects = append(r.objects, c)
		}
	}

	toolColor := toolFitColor
	if !l.ToolClearsTieBars() {
		toolColor = toolClashColor
	}
	addRect(l.Tool, toolColor, 1)

	pos, size := toCanvas(l.Tool)
	if size.Width > 60 && size.Height > 16 {
		dims := canvas.NewText(fmt.Sprintf("%.0f x %.0f", l.Tool.W, l.Tool.H), color.Black)
		dims.TextSize = 10
		dims.Move(fyne.NewPos(pos.X+3, pos.Y+2))
		r.objects = append(r.objects, dims)
	}

	if r.pc.caption != "" {
		caption := canvas.NewText(r.pc.caption, outlineColor)
		caption.TextSize = 11
		caption.TextStyle = fyne.TextStyle{Bold: true}
		caption.Move(fyne.NewPos(4, 2))
		r.objects = append(r.objects, caption)
	}
}

func (r *platenCanvasRenderer) Layout(size fyne.Size) {}

func (r *platenCanvasRenderer) MinSize() fyne.Size {
	b := r.pc.layout.Bounds()
	scale := r.pc.scale()
	return fyne.NewSize(float32(b.W)*scale, float32(b.H)*scale)
}

func (r *platenCanvasRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.pc)
}

func (r *platenCanvasRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *platenCanvasRenderer) Destroy() {}
