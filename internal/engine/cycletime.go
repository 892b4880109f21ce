package engine

import (
	"math"
	"strings"
)

// Cooling factors per material family, relative to ABS.
var materialCoolingFactors = map[string]float64{
	"PP":   1.2,
	"PE":   1.3,
	"PA":   1.4,
	"POM":  1.3,
	"ABS":  1.0,
	"PS":   0.9,
	"PC":   1.1,
	"PMMA": 1.0,
	"PBT":  1.2,
	"TPU":  1.3,
}

// Fixed cycle phases in seconds.
const (
	moldOpenCloseS = 2.0
	ejectionS      = 0.5
	sprueRemovalS  = 0.5
	defaultInjectS = 1.5
	minInjectS     = 0.5
	injectionRate  = 20.0 // cm³/s
	packingShare   = 0.3  // of cooling time
)

// CoolingFactor returns the cooling factor of a material family. Grade
// suffixes after a dash are ignored, so "PP-T20" reads as PP. Unknown
// families return 1.
func CoolingFactor(family string) float64 {
	key := strings.ToUpper(strings.TrimSpace(family))
	if i := strings.Index(key, "-"); i >= 0 {
		key = key[:i]
	}
	if f, ok := materialCoolingFactors[key]; ok {
		return f
	}
	return 1.0
}

// EstimateCycleTime returns a rough cycle time in seconds, rounded to 0.1 s.
// volumeCM3 may be nil; a hot runner saves the sprue removal time.
func EstimateCycleTime(wallThicknessMM float64, family string, volumeCM3 *float64, hotRunner bool) float64 {
	cooling := math.Pow(wallThicknessMM, 1.8) * CoolingFactor(family) * 2
	injection := defaultInjectS
	if volumeCM3 != nil && *volumeCM3 > 0 {
		injection = math.Max(minInjectS, *volumeCM3/injectionRate)
	}
	packing := cooling * packingShare
	runner := sprueRemovalS
	if hotRunner {
		runner = 0
	}
	return round(injection+packing+cooling+moldOpenCloseS+ejectionS+runner, 1)
}

// ShotsPerHour returns 3600/cycle, or 0 for a non-positive cycle time.
func ShotsPerHour(cycleTimeS float64) float64 {
	if cycleTimeS <= 0 {
		return 0
	}
	return 3600 / cycleTimeS
}

// PartsPerHour returns shots per hour times cavities.
func PartsPerHour(cycleTimeS float64, cavities int) float64 {
	return ShotsPerHour(cycleTimeS) * float64(cavities)
}

// AnnualMachineHours returns the machine hours per year needed for
// annualDemand, rounded to 0.1 h. Invalid input returns 0.
func AnnualMachineHours(annualDemand int, cycleTimeS float64, cavities int, efficiency float64) float64 {
	if cycleTimeS <= 0 || cavities <= 0 || efficiency <= 0 {
		return 0
	}
	effective := PartsPerHour(cycleTimeS, cavities) * efficiency
	return round(float64(annualDemand)/effective, 1)
}
