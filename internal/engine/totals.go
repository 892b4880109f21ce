package engine

import "github.com/piwi3910/MoldQuote/internal/model"

// PartTotals is one part's share of a tool's cavities and mechanisms.
type PartTotals struct {
	PartName string `json:"part_name"`
	Cavities int    `json:"cavities"`
	Lifters  int    `json:"lifters"`
	Sliders  int    `json:"sliders"`
}

// ToolTotalsResult sums cavities, lifters and sliders over a tool.
type ToolTotalsResult struct {
	TotalCavities int          `json:"total_cavities"`
	TotalLifters  int          `json:"total_lifters"`
	TotalSliders  int          `json:"total_sliders"`
	Breakdown     []PartTotals `json:"breakdown"`
	Legacy        bool         `json:"legacy"` // totals taken from tool-level scalars
}

// ToolTotals sums every configuration of rt unconditionally, alternatives
// included. A tool without configurations reports its legacy scalars. Use
// FilterConfigGroup first for the totals of one active configuration.
func ToolTotals(rt model.ResolvedTool) ToolTotalsResult {
	if !rt.Tool.IsDefined() {
		return ToolTotalsResult{
			TotalCavities: rt.Tool.Cavities,
			TotalLifters:  rt.Tool.LiftersCount,
			TotalSliders:  rt.Tool.SlidersCount,
			Legacy:        true,
		}
	}
	var res ToolTotalsResult
	for _, a := range rt.Assignments {
		res.TotalCavities += a.Config.Cavities
		res.TotalLifters += a.Config.LiftersCount
		res.TotalSliders += a.Config.SlidersCount
		res.Breakdown = append(res.Breakdown, PartTotals{
			PartName: a.Part.Name,
			Cavities: a.Config.Cavities,
			Lifters:  a.Config.LiftersCount,
			Sliders:  a.Config.SlidersCount,
		})
	}
	return res
}

// FilterConfigGroup keeps the base configurations (nil group) and those of
// the selected alternative group.
func FilterConfigGroup(assignments []model.Assignment, group int) []model.Assignment {
	var out []model.Assignment
	for _, a := range assignments {
		if a.Config.GroupID == nil || *a.Config.GroupID == group {
			out = append(out, a)
		}
	}
	return out
}

// WithConfigGroup returns a copy of rt restricted to one alternative group.
func WithConfigGroup(rt model.ResolvedTool, group int) model.ResolvedTool {
	out := rt
	out.Assignments = FilterConfigGroup(rt.Assignments, group)
	configs := make([]model.ToolPartConfiguration, 0, len(out.Assignments))
	for _, a := range out.Assignments {
		configs = append(configs, a.Config)
	}
	out.Tool.Configurations = configs
	return out
}

// effectiveAssignments returns the configurations of rt, or a single
// assignment built from the legacy part and tool-level cavities.
func effectiveAssignments(rt model.ResolvedTool) []model.Assignment {
	if rt.Tool.IsDefined() || rt.LegacyPart == nil {
		return rt.Assignments
	}
	return []model.Assignment{{
		Config: model.ToolPartConfiguration{
			PartID:       rt.LegacyPart.ID,
			Cavities:     rt.Tool.Cavities,
			LiftersCount: rt.Tool.LiftersCount,
			SlidersCount: rt.Tool.SlidersCount,
		},
		Part: *rt.LegacyPart,
	}}
}
