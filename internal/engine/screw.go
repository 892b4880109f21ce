package engine

import (
	"fmt"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// ScrewStatus classifies a stroke/diameter ratio.
type ScrewStatus string

const (
	ScrewOptimal    ScrewStatus = "OPTIMAL"
	ScrewAcceptable ScrewStatus = "ACCEPTABLE"
	ScrewOutOfRange ScrewStatus = "OUT OF RANGE"
)

// ScrewRatioResult is the injection unit stroke/diameter check.
type ScrewRatioResult struct {
	Ratio        float64     `json:"ratio"` // rounded to 2 decimals
	Status       ScrewStatus `json:"status"`
	IsOptimal    bool        `json:"is_optimal"`
	IsAcceptable bool        `json:"is_acceptable"`
	Message      string      `json:"message"`
}

// CheckScrewRatio classifies stroke/diameter against the inclusive policy
// bands. Classification uses the exact ratio. A non-positive diameter fails
// with ErrInvalidDiameter.
func CheckScrewRatio(strokeMM, diameterMM float64, policy model.ScrewPolicy) (ScrewRatioResult, error) {
	if diameterMM <= 0 {
		return ScrewRatioResult{}, inputErr(ErrInvalidDiameter, "screw_diameter_mm", diameterMM)
	}
	ratio := strokeMM / diameterMM

	res := ScrewRatioResult{Ratio: round(ratio, 2)}
	switch {
	case ratio >= policy.OptimalMin && ratio <= policy.OptimalMax:
		res.Status, res.IsOptimal, res.IsAcceptable = ScrewOptimal, true, true
	case ratio >= policy.AcceptableMin && ratio <= policy.AcceptableMax:
		res.Status, res.IsAcceptable = ScrewAcceptable, true
	default:
		res.Status = ScrewOutOfRange
	}
	res.Message = fmt.Sprintf("%s: Screw ratio %.2f (stroke %gmm / diameter %gmm)", res.Status, ratio, strokeMM, diameterMM)
	return res, nil
}

// CheckMachineScrew runs CheckScrewRatio on a machine's injection unit. It
// fails with ErrMissingInput when the machine lacks stroke or diameter data.
func CheckMachineScrew(m model.Machine, policy model.ScrewPolicy) (ScrewRatioResult, error) {
	if m.MaxInjectionStrokeMM == nil {
		return ScrewRatioResult{}, inputErr(ErrMissingInput, "max_injection_stroke_mm", 0)
	}
	if m.ScrewDiameterMM == nil {
		return ScrewRatioResult{}, inputErr(ErrMissingInput, "screw_diameter_mm", 0)
	}
	return CheckScrewRatio(*m.MaxInjectionStrokeMM, *m.ScrewDiameterMM, policy)
}
