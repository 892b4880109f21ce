package engine

import (
	"fmt"
	"sort"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// MachineComparison holds the evaluation of one tool on one candidate machine.
type MachineComparison struct {
	MachineID       string     `json:"machine_id"`
	MachineName     string     `json:"machine_name"`
	Fits            bool       `json:"fits"`
	IssueCount      int        `json:"issue_count"`
	WarningCount    int        `json:"warning_count"`
	ClampCapacityKN float64    `json:"clamp_capacity_kn"` // 0 when unknown
	Report          ToolReport `json:"report"`
}

// CompareMachines evaluates rt on every machine and orders the results:
// machines the tool fits first, then fewer warnings, then the smallest
// clamping capacity. Machines without a known capacity sort last within
// their group.
func CompareMachines(rt model.ResolvedTool, machines []model.Machine, policy model.Policy) ([]MachineComparison, error) {
	results := make([]MachineComparison, 0, len(machines))

	for i := range machines {
		m := machines[i]
		report, err := Evaluate(rt, &m, policy)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s on %s: %w", rt.Tool.Name, m.Name, err)
		}
		capacity, _ := model.Positive(m.ClampingForceKN)
		results = append(results, MachineComparison{
			MachineID:       m.ID,
			MachineName:     m.Name,
			Fits:            report.Fits(),
			IssueCount:      len(report.Fit.Issues),
			WarningCount:    len(report.Warnings),
			ClampCapacityKN: capacity,
			Report:          report,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Fits != b.Fits {
			return a.Fits
		}
		if a.WarningCount != b.WarningCount {
			return a.WarningCount < b.WarningCount
		}
		if (a.ClampCapacityKN == 0) != (b.ClampCapacityKN == 0) {
			return b.ClampCapacityKN == 0
		}
		return a.ClampCapacityKN < b.ClampCapacityKN
	})
	return results, nil
}
