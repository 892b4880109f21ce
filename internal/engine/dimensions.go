package engine

import "math"

// CavityLayout selects how cavities are arranged on the mold plate.
type CavityLayout string

const (
	LayoutLinear CavityLayout = "linear"
	LayoutSquare CavityLayout = "square"
	LayoutGrid   CavityLayout = "grid"
)

// ToolDimensions is an estimated mold size in whole mm.
type ToolDimensions struct {
	WidthMM  float64 `json:"tool_width_mm"`
	HeightMM float64 `json:"tool_height_mm"`
	LengthMM float64 `json:"tool_length_mm"` // stack height
	Columns  int     `json:"columns"`
	Rows     int     `json:"rows"`
}

// Mold structure allowances.
const (
	minMarginMM    = 80.0
	marginShare    = 0.3
	stackDepthMult = 3.0
	stackPlatesMM  = 200.0
)

// EstimateToolDimensions sizes a mold around cavities impressions of a
// length × width × depth mm part. Two cavities are always laid out linearly
// and four always as two columns.
func EstimateToolDimensions(lengthMM, widthMM, depthMM float64, cavities int, layout CavityLayout) ToolDimensions {
	if cavities < 1 {
		cavities = 1
	}
	margin := math.Max(minMarginMM, math.Min(lengthMM, widthMM)*marginShare)

	var cols, rows int
	switch {
	case cavities == 1:
		cols, rows = 1, 1
	case layout == LayoutLinear || cavities == 2:
		cols, rows = cavities, 1
	case layout == LayoutSquare || cavities == 4:
		cols = 2
		rows = (cavities + 1) / 2
	default:
		cols = int(math.Sqrt(float64(cavities))) + 1
		rows = (cavities + cols - 1) / cols
	}

	return ToolDimensions{
		WidthMM:  math.Round(widthMM*float64(cols) + margin*float64(cols+1)),
		HeightMM: math.Round(lengthMM*float64(rows) + margin*float64(rows+1)),
		LengthMM: math.Round(depthMM*stackDepthMult + stackPlatesMM),
		Columns:  cols,
		Rows:     rows,
	}
}
