package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// PartCheck is the plausibility review of one part's data.
type PartCheck struct {
	PartName string            `json:"part_name"`
	Weight   WeightConsistency `json:"weight"`
	Warnings []string          `json:"warnings"`
}

// CheckPart reviews a part's data against policy: weight against
// volume × density, wall thickness, projected area against volume, and the
// geometry itself. density may be nil when the material is unknown.
func CheckPart(p model.Part, density *float64, policy model.Policy) PartCheck {
	res := PartCheck{
		PartName: p.Name,
		Weight:   CheckWeightConsistency(p.WeightG, p.VolumeCM3, density, policy.Shot.WeightTolerancePercent),
		Warnings: []string{},
	}
	if res.Weight.Checked && !res.Weight.Consistent {
		res.Warnings = append(res.Warnings, res.Weight.Message)
	}

	limits := policy.Part
	if wall, ok := model.Positive(p.WallThicknessMM); ok {
		if wall < limits.MinWallMM {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Wall thickness (%gmm) very thin - verify this is correct", wall))
		} else if wall > limits.MaxWallMM {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Wall thickness (%gmm) unusually thick - consider sink marks", wall))
		}
	}

	if v, hasV := model.Positive(p.VolumeCM3); hasV {
		if area, ok := PartArea(p); ok {
			expected := math.Pow(v, 0.67) * limits.FlatAreaFactor
			if area > expected*limits.AreaVolumeLimit {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"Projected area (%gcm²) seems large for volume (%gcm³)", area, v))
			}
		}
	}

	if ok, msg := ValidateGeometry(p.Geometry); !ok {
		res.Warnings = append(res.Warnings, msg)
	}
	return res
}

// ValidatePart returns the plausibility warnings of CheckPart.
func ValidatePart(p model.Part, density *float64, policy model.Policy) []string {
	return CheckPart(p, density, policy).Warnings
}
