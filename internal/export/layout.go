package export

import (
	"math"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

// Rect is an axis-aligned rectangle in mm. X and Y are its lower-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Circle is a circle in mm.
type Circle struct {
	X, Y, R float64
}

// Layout is the front view of a machine's moving platen with a tool mounted
// on it. The origin is the platen centre, Y points up.
type Layout struct {
	Platen     Rect
	Clearance  Rect // free space between the tie-bars
	TieBars    []Circle
	Tool       Rect
	HasPlaten  bool // false when the platen was derived from the tool
	HasTieBars bool
}

// NewLayout builds the platen view of machine with a tool of the given
// dimensions centred on it. Missing machine figures are derived from what is
// known so the drawing stays readable.
func NewLayout(machine model.Machine, tool engine.ToolDimensions) Layout {
	l := Layout{Tool: centered(tool.WidthMM, tool.HeightMM)}

	tbH, okH := model.Positive(machine.TieBarSpacingHMM)
	tbV, okV := model.Positive(machine.TieBarSpacingVMM)
	l.HasTieBars = okH && okV

	pw, okW := model.Positive(machine.PlatenWidthMM)
	ph, okP := model.Positive(machine.PlatenHeightMM)
	l.HasPlaten = okW && okP

	if l.HasTieBars {
		l.Clearance = centered(tbH, tbV)
		r := tieBarRadius(tbH, tbV)
		for _, sx := range []float64{-1, 1} {
			for _, sy := range []float64{-1, 1} {
				l.TieBars = append(l.TieBars, Circle{X: sx * (tbH/2 + r), Y: sy * (tbV/2 + r), R: r})
			}
		}
	}

	switch {
	case l.HasPlaten:
		l.Platen = centered(pw, ph)
	case l.HasTieBars:
		r := tieBarRadius(tbH, tbV)
		l.Platen = centered(tbH+6*r, tbV+6*r)
	default:
		l.Platen = centered(tool.WidthMM*1.3, tool.HeightMM*1.3)
	}
	return l
}

// Bounds returns the rectangle enclosing every element of the layout.
func (l Layout) Bounds() Rect {
	minX, minY := math.Min(l.Platen.X, l.Tool.X), math.Min(l.Platen.Y, l.Tool.Y)
	maxX := math.Max(l.Platen.X+l.Platen.W, l.Tool.X+l.Tool.W)
	maxY := math.Max(l.Platen.Y+l.Platen.H, l.Tool.Y+l.Tool.H)
	for _, c := range l.TieBars {
		minX, minY = math.Min(minX, c.X-c.R), math.Min(minY, c.Y-c.R)
		maxX, maxY = math.Max(maxX, c.X+c.R), math.Max(maxY, c.Y+c.R)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// ToolClearsTieBars reports whether the tool fits between the tie-bars.
// Without tie-bar data it reports true.
func (l Layout) ToolClearsTieBars() bool {
	if !l.HasTieBars {
		return true
	}
	return l.Tool.W <= l.Clearance.W && l.Tool.H <= l.Clearance.H
}

func centered(w, h float64) Rect {
	return Rect{X: -w / 2, Y: -h / 2, W: w, H: h}
}

// tieBarRadius approximates the bar radius from the clear spacing. Catalogue
// machines run bars of roughly a sixth of the smaller spacing in diameter.
func tieBarRadius(h, v float64) float64 {
	return math.Round(math.Min(h, v) / 12)
}
