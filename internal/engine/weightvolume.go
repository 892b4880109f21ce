package engine

import (
	"fmt"
	"math"
)

// VolumeFromWeight returns weight/density in cm³, rounded to 2 decimals.
// It reports false when density or weight is not positive.
func VolumeFromWeight(weightG, densityGCM3 float64) (float64, bool) {
	if weightG <= 0 || densityGCM3 <= 0 {
		return 0, false
	}
	return round(weightG/densityGCM3, 2), true
}

// WeightFromVolume returns volume×density in g, rounded to 2 decimals.
// It reports false when density or volume is not positive.
func WeightFromVolume(volumeCM3, densityGCM3 float64) (float64, bool) {
	if volumeCM3 <= 0 || densityGCM3 <= 0 {
		return 0, false
	}
	return round(volumeCM3*densityGCM3, 2), true
}

// WeightConsistency is the outcome of comparing a part's weight with the
// weight implied by its volume and material density.
type WeightConsistency struct {
	Consistent       bool    `json:"consistent"`
	Checked          bool    `json:"checked"` // false when data was insufficient
	DeviationPercent float64 `json:"deviation_percent"`
	ExpectedWeightG  float64 `json:"expected_weight_g"`
	Message          string  `json:"message"`
}

// CheckWeightConsistency compares weight against volume×density. Missing
// weight, volume or density is reported as consistent but unchecked.
func CheckWeightConsistency(weightG, volumeCM3, densityGCM3 *float64, tolerancePercent float64) WeightConsistency {
	if weightG == nil || volumeCM3 == nil || densityGCM3 == nil || *densityGCM3 <= 0 || *weightG == 0 || *volumeCM3 == 0 {
		return WeightConsistency{Consistent: true, Message: "Insufficient data for validation"}
	}
	w, v, d := *weightG, *volumeCM3, *densityGCM3
	if w < 0 || v < 0 {
		return WeightConsistency{Checked: true, Message: "Weight and volume must be positive"}
	}

	expected, ok := WeightFromVolume(v, d)
	if !ok || expected == 0 {
		return WeightConsistency{Consistent: true, Message: "Insufficient data for validation"}
	}
	deviation := math.Abs(w-expected) / expected * 100
	res := WeightConsistency{
		Consistent:       deviation <= tolerancePercent,
		Checked:          true,
		DeviationPercent: round(deviation, 1),
		ExpectedWeightG:  expected,
	}
	if !res.Consistent {
		res.Message = fmt.Sprintf(
			"Weight (%gg) and volume (%gcm³) don't match material density (%gg/cm³). Expected %gg (deviation: %.0f%%). Check if values are correct.",
			w, v, d, expected, deviation)
	}
	return res
}
