package engine

import (
	"github.com/piwi3910/MoldQuote/internal/model"
)

// ToolEvaluation is the report of one project tool on its assigned machine.
// Err is set instead of Report when the tool cannot be evaluated.
type ToolEvaluation struct {
	Tool    model.Tool     `json:"tool"`
	Machine *model.Machine `json:"machine,omitempty"`
	Report  *ToolReport    `json:"report,omitempty"`
	Err     error          `json:"-"`
	Error   string         `json:"error,omitempty"`
}

// EvaluateProject evaluates every tool of p on the machine it is assigned to
// in lib, or without a machine when none is assigned. Results keep the tool
// order of the project.
func EvaluateProject(p model.Project, lib model.Library, policy model.Policy) []ToolEvaluation {
	evals := make([]ToolEvaluation, 0, len(p.Tools))
	for _, tool := range p.Tools {
		ev := ToolEvaluation{Tool: tool}
		if tool.MachineID != "" {
			if m := lib.FindMachineByID(tool.MachineID); m != nil {
				machine := *m
				ev.Machine = &machine
			}
		}

		rt, err := p.ResolveTool(tool.ID, lib)
		if err == nil {
			var report ToolReport
			report, err = Evaluate(rt, ev.Machine, policy)
			if err == nil {
				ev.Report = &report
			}
		}
		if err != nil {
			ev.Err = err
			ev.Error = err.Error()
		}
		evals = append(evals, ev)
	}
	return evals
}

// FindPartTool returns the first evaluation whose tool produces partID.
func FindPartTool(evals []ToolEvaluation, partID string) *ToolEvaluation {
	for i := range evals {
		t := evals[i].Tool
		if t.LegacyPartID == partID && len(t.Configurations) == 0 {
			return &evals[i]
		}
		for _, c := range t.Configurations {
			if c.PartID == partID {
				return &evals[i]
			}
		}
	}
	return nil
}
