package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// DemandCheckResult is the outcome of fitting an annual demand onto one machine.
type DemandCheckResult struct {
	Feasible           bool     `json:"feasible"`
	PartsPerHour       float64  `json:"parts_per_hour"`
	HoursPerYear       float64  `json:"machine_hours_per_year"`
	HoursPerWeek       float64  `json:"machine_hours_per_week"`
	UtilizationPercent float64  `json:"utilization_percent"`
	Issues             []string `json:"issues"`
	Warnings           []string `json:"warnings"`
}

func (r DemandCheckResult) String() string {
	switch {
	case r.Feasible && len(r.Warnings) == 0:
		return fmt.Sprintf("Demand feasible: %.1f hrs/week (%.0f%% utilization)", r.HoursPerWeek, r.UtilizationPercent)
	case r.Feasible:
		return "Demand feasible with warnings: " + strings.Join(r.Warnings, "; ")
	default:
		return "Demand NOT feasible: " + strings.Join(r.Issues, "; ")
	}
}

// CheckDemand decides whether annualDemand pieces can be molded on one
// machine at the given cycle time and cavity count. A non-positive cycle time
// or cavity count fails with ErrInvalidDimension; infeasibility is a result.
func CheckDemand(annualDemand int, cycleTimeS float64, cavities int, policy model.DemandPolicy) (DemandCheckResult, error) {
	if cycleTimeS <= 0 {
		return DemandCheckResult{}, inputErr(ErrInvalidDimension, "cycle_time_s", cycleTimeS)
	}
	if cavities <= 0 {
		return DemandCheckResult{}, inputErr(ErrInvalidDimension, "cavities", float64(cavities))
	}

	partsPerHour := PartsPerHour(cycleTimeS, cavities) * policy.Efficiency
	hoursAvailable := policy.HoursPerWeek * policy.WeeksPerYear
	hoursPerYear := float64(annualDemand) / partsPerHour
	hoursPerWeek := hoursPerYear / policy.WeeksPerYear
	utilization := hoursPerYear / hoursAvailable * 100

	res := DemandCheckResult{
		PartsPerHour:       round(partsPerHour, 1),
		HoursPerYear:       AnnualMachineHours(annualDemand, cycleTimeS, cavities, policy.Efficiency),
		HoursPerWeek:       round(hoursPerWeek, 1),
		UtilizationPercent: round(utilization, 1),
		Issues:             []string{},
		Warnings:           []string{},
	}

	switch {
	case hoursPerWeek > policy.HoursPerWeek:
		res.Issues = append(res.Issues, fmt.Sprintf("Need %.1f hrs/week but only %.0f hrs available", hoursPerWeek, policy.HoursPerWeek))
	case utilization > policy.InfeasiblePercent:
		res.Issues = append(res.Issues, fmt.Sprintf("Utilization too high (%.0f%%) - no buffer for issues", utilization))
	case utilization > policy.HighPercent:
		res.Warnings = append(res.Warnings, fmt.Sprintf("High utilization (%.0f%%) - limited buffer", utilization))
	case utilization < policy.LowPercent:
		res.Warnings = append(res.Warnings, fmt.Sprintf("Low utilization (%.0f%%) - consider combining with other parts", utilization))
	}

	if cycleTimeS < policy.MinPlausibleCycleS {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Very short cycle time (%gs) - verify this is realistic", cycleTimeS))
	}
	if cycleTimeS > policy.MaxPlausibleCycleS {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Long cycle time (%gs) - consider process optimization", cycleTimeS))
	}

	res.Feasible = len(res.Issues) == 0
	return res, nil
}

// RecommendCavities returns the cavity count that runs annualDemand at the
// policy target utilization, between 1 and the policy maximum. A non-positive
// cycle time returns 1.
func RecommendCavities(annualDemand int, cycleTimeS float64, policy model.DemandPolicy) int {
	if cycleTimeS <= 0 {
		return 1
	}
	targetHours := policy.HoursPerWeek * policy.WeeksPerYear * policy.TargetUtilization
	perCavityPerYear := 3600 / cycleTimeS * targetHours * policy.Efficiency
	if perCavityPerYear <= 0 {
		return 1
	}
	n := int(math.Floor(float64(annualDemand)/perCavityPerYear + 0.5))
	if n < 1 {
		return 1
	}
	if n > policy.MaxCavities {
		return policy.MaxCavities
	}
	return n
}
