package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// CavityRate is the per-cavity shot count of one part in a family tool.
type CavityRate struct {
	PartName       string  `json:"part_name"`
	Demand         int     `json:"demand"`
	Cavities       int     `json:"cavities"`
	ShotsPerCavity float64 `json:"shots_per_cavity"`
}

// DemandBasis names the demand figure the imbalance was computed from.
type DemandBasis string

const (
	BasisLifetime DemandBasis = "lifetime"
	BasisYearly   DemandBasis = "yearly"
)

// ImbalanceResult reports whether the parts of a family tool need different
// shot counts, which requires shutting off cavities.
type ImbalanceResult struct {
	Balanced         bool         `json:"balanced"`
	Checked          bool         `json:"checked"` // false when fewer than two parts had data
	Basis            DemandBasis  `json:"basis,omitempty"`
	ImbalancePercent float64      `json:"imbalance_percent"`
	NeedsShutoff     bool         `json:"needs_shutoff"`
	Details          []CavityRate `json:"details"` // ordered by part name
	Message          string       `json:"message"`
}

// imbalanceBasis picks lifetime totals when every part of rt has one, else
// yearly figures. The two are never mixed within one tool.
func imbalanceBasis(rt model.ResolvedTool) DemandBasis {
	for _, a := range rt.Assignments {
		if total, ok := a.Part.TotalDemand(); !ok || total <= 0 {
			return BasisYearly
		}
	}
	return BasisLifetime
}

// DetectImbalance compares demand / cavities across the parts of rt. Demand
// is each part's lifetime total when all parts carry one, otherwise its peak
// yearly demand or largest yearly volume. Fewer than two parts with demand
// and cavities reports balanced.
func DetectImbalance(rt model.ResolvedTool, policy model.DemandPolicy) ImbalanceResult {
	res := ImbalanceResult{Balanced: true}
	if len(rt.Assignments) < 2 {
		return res
	}

	basis := imbalanceBasis(rt)
	for _, a := range rt.Assignments {
		demandOf := a.Part.YearlyDemand
		if basis == BasisLifetime {
			demandOf = a.Part.TotalDemand
		}
		demand, ok := demandOf()
		if !ok || demand <= 0 || a.Config.Cavities <= 0 {
			continue
		}
		res.Details = append(res.Details, CavityRate{
			PartName:       a.Part.Name,
			Demand:         demand,
			Cavities:       a.Config.Cavities,
			ShotsPerCavity: float64(demand) / float64(a.Config.Cavities),
		})
	}
	sort.SliceStable(res.Details, func(i, j int) bool {
		return res.Details[i].PartName < res.Details[j].PartName
	})
	if len(res.Details) < 2 {
		return res
	}

	lo, hi := res.Details[0].ShotsPerCavity, res.Details[0].ShotsPerCavity
	for _, d := range res.Details[1:] {
		lo = min(lo, d.ShotsPerCavity)
		hi = max(hi, d.ShotsPerCavity)
	}
	imbalance := (hi - lo) / lo * 100

	res.Checked = true
	res.Basis = basis
	res.ImbalancePercent = round(imbalance, 1)
	res.NeedsShutoff = imbalance > policy.ImbalanceThresholdP
	res.Balanced = !res.NeedsShutoff
	if res.NeedsShutoff {
		var b strings.Builder
		fmt.Fprintf(&b, "CAVITY IMBALANCE DETECTED (%.1f%%)\n", imbalance)
		b.WriteString("Tool needs cavity shutoff capability\n")
		if basis == BasisLifetime {
			b.WriteString("Shots per cavity over runtime:")
		} else {
			b.WriteString("Shots per cavity per year:")
		}
		for _, d := range res.Details {
			fmt.Fprintf(&b, "\n  %s: %.0f", d.PartName, d.ShotsPerCavity)
		}
		res.Message = b.String()
	} else {
		res.Message = fmt.Sprintf("Cavities balanced (%.1f%% spread)", imbalance)
	}
	return res
}
