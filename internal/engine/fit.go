package engine

import (
	"fmt"
	"strings"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// FitInput holds the tool-side figures checked against a machine. Nil fields
// skip the checks that need them.
type FitInput struct {
	ToolWidthMM         *float64 `json:"tool_width_mm,omitempty"`
	ToolHeightMM        *float64 `json:"tool_height_mm,omitempty"`
	ToolLengthMM        *float64 `json:"tool_length_mm,omitempty"` // stack height
	RequiredClampKN     *float64 `json:"required_clamping_kn,omitempty"`
	RequiredShotWeightG *float64 `json:"required_shot_weight_g,omitempty"`
}

// MachineFitResult lists what prevents a tool from running on a machine.
// The tool fits when Issues is empty; warnings never block a fit.
type MachineFitResult struct {
	Fits     bool     `json:"fits"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// HasWarnings reports whether any warning was raised.
func (r MachineFitResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r MachineFitResult) String() string {
	switch {
	case r.Fits && !r.HasWarnings():
		return "Tool fits machine"
	case r.Fits:
		return "Tool fits with warnings: " + strings.Join(r.Warnings, "; ")
	default:
		return "Tool does NOT fit: " + strings.Join(r.Issues, "; ")
	}
}

// CheckMachineFit runs the platen, tie-bar, mold height, clamping and shot
// weight checks. Each check runs only when both sides of it are known.
func CheckMachineFit(in FitInput, m model.Machine, policy model.FitPolicy) MachineFitResult {
	res := MachineFitResult{Issues: []string{}, Warnings: []string{}}
	issue := func(format string, args ...any) { res.Issues = append(res.Issues, fmt.Sprintf(format, args...)) }
	warn := func(format string, args ...any) { res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...)) }

	width, hasWidth := model.Positive(in.ToolWidthMM)
	height, hasHeight := model.Positive(in.ToolHeightMM)

	// Platen
	if platen, ok := model.Positive(m.PlatenWidthMM); ok && hasWidth {
		if width > platen {
			issue("Tool width (%gmm) exceeds platen width (%gmm)", width, platen)
		} else if width > platen*policy.PlatenWarningFraction {
			warn("Tool width (%gmm) very close to platen width (%gmm)", width, platen)
		}
	}
	if platen, ok := model.Positive(m.PlatenHeightMM); ok && hasHeight {
		if height > platen {
			issue("Tool height (%gmm) exceeds platen height (%gmm)", height, platen)
		} else if height > platen*policy.PlatenWarningFraction {
			warn("Tool height (%gmm) very close to platen height (%gmm)", height, platen)
		}
	}

	// Tie-bars
	if spacing, ok := model.Positive(m.TieBarSpacingHMM); ok && hasWidth && width > spacing {
		issue("Tool width (%gmm) exceeds tie-bar spacing (%gmm)", width, spacing)
	}
	if spacing, ok := model.Positive(m.TieBarSpacingVMM); ok && hasHeight && height > spacing {
		issue("Tool height (%gmm) exceeds vertical tie-bar spacing (%gmm)", height, spacing)
	}

	// Mold height
	if length, ok := model.Positive(in.ToolLengthMM); ok {
		if maxH, ok := model.Positive(m.MaxMoldHeightMM); ok && length > maxH {
			issue("Mold height (%gmm) exceeds machine max (%gmm)", length, maxH)
		}
		if minH, ok := model.Positive(m.MinMoldHeightMM); ok && length < minH {
			issue("Mold height (%gmm) below machine min (%gmm)", length, minH)
		}
	}

	// Clamping force
	if required, ok := model.Positive(in.RequiredClampKN); ok {
		if capacity, ok := model.Positive(m.ClampingForceKN); ok {
			u := required / capacity
			switch {
			case u > policy.ClampIssueFraction:
				issue("Required clamping (%gkN) exceeds machine capacity (%gkN)", required, capacity)
			case u > policy.ClampHighFraction:
				warn("High clamping utilization (%.0f%%) - consider larger machine", u*100)
			case u < policy.ClampLowFraction:
				warn("Low clamping utilization (%.0f%%) - machine may be oversized", u*100)
			}
		}
	}

	// Shot weight
	if required, ok := model.Positive(in.RequiredShotWeightG); ok {
		if capacity, ok := model.Positive(m.ShotWeightG); ok {
			u := required / capacity
			switch {
			case u > policy.ShotIssueFraction:
				issue("Required shot (%gg) exceeds %.0f%% of machine capacity (%gg)", required, policy.ShotIssueFraction*100, capacity)
			case u > policy.ShotWarningFraction:
				warn("High shot weight utilization (%.0f%%)", u*100)
			}
		}
	}

	res.Fits = len(res.Issues) == 0
	return res
}
