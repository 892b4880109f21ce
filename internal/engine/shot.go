package engine

import (
	"fmt"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// PartShare is one part's contribution to a shot.
type PartShare struct {
	PartName string  `json:"part_name"`
	Cavities int     `json:"cavities"`
	Amount   float64 `json:"amount"` // cm³ for volume, g for weight
}

// ShotVolumeResult is the material volume injected per cycle.
type ShotVolumeResult struct {
	TotalCM3       float64     `json:"total_cm3"`
	PartsCM3       float64     `json:"parts_cm3"`
	RunnerCM3      float64     `json:"runner_cm3"`
	RunnerPercent  float64     `json:"runner_percent"`
	PartsBreakdown []PartShare `json:"parts_breakdown"`
	Skipped        []string    `json:"skipped,omitempty"` // parts without volume data
}

// ShotVolume sums volume × cavities over the assignments and adds the runner
// share. Assignments whose part has no volume are skipped and listed.
func ShotVolume(assignments []model.Assignment, runnerPercent float64) ShotVolumeResult {
	res := ShotVolumeResult{RunnerPercent: runnerPercent}
	var parts float64
	for _, a := range assignments {
		vol, ok := model.Positive(a.Part.VolumeCM3)
		if !ok {
			res.Skipped = append(res.Skipped, a.Part.Name)
			continue
		}
		v := vol * float64(a.Config.Cavities)
		parts += v
		res.PartsBreakdown = append(res.PartsBreakdown, PartShare{
			PartName: a.Part.Name,
			Cavities: a.Config.Cavities,
			Amount:   v,
		})
	}
	runner := parts * runnerPercent / 100
	res.PartsCM3 = round(parts, 2)
	res.RunnerCM3 = round(runner, 2)
	res.TotalCM3 = round(parts+runner, 2)
	return res
}

// ShotWeightResult is the material weight injected per cycle.
type ShotWeightResult struct {
	TotalG         float64     `json:"total_g"`
	PartsG         float64     `json:"parts_g"`
	RunnerG        float64     `json:"runner_g"`
	PartsBreakdown []PartShare `json:"parts_breakdown"`
	Skipped        []string    `json:"skipped,omitempty"`
}

// ShotWeight sums weight × cavities over the assignments plus the runner share.
// A part without weight falls back to volume × density of material.
func ShotWeight(assignments []model.Assignment, material *model.Material, runnerPercent float64) ShotWeightResult {
	var density float64
	if material != nil {
		density, _ = material.Density()
	}
	var res ShotWeightResult
	var parts float64
	for _, a := range assignments {
		w, ok := model.Positive(a.Part.WeightG)
		if !ok {
			if vol, hasVol := model.Positive(a.Part.VolumeCM3); hasVol {
				w, ok = WeightFromVolume(vol, density)
			}
		}
		if !ok {
			res.Skipped = append(res.Skipped, a.Part.Name)
			continue
		}
		total := w * float64(a.Config.Cavities)
		parts += total
		res.PartsBreakdown = append(res.PartsBreakdown, PartShare{
			PartName: a.Part.Name,
			Cavities: a.Config.Cavities,
			Amount:   total,
		})
	}
	runner := parts * runnerPercent / 100
	res.PartsG = round(parts, 2)
	res.RunnerG = round(runner, 2)
	res.TotalG = round(parts+runner, 2)
	return res
}

// BarrelStatus classifies barrel usage.
type BarrelStatus string

const (
	BarrelOK       BarrelStatus = "OK"
	BarrelWarning  BarrelStatus = "WARNING"
	BarrelCritical BarrelStatus = "CRITICAL"
	BarrelNoData   BarrelStatus = "NO DATA"
)

// BarrelUsageResult is the share of barrel capacity one shot consumes.
type BarrelUsageResult struct {
	Percent    float64      `json:"percent"`
	Status     BarrelStatus `json:"status"`
	IsWarning  bool         `json:"is_warning"`
	IsCritical bool         `json:"is_critical"`
	Message    string       `json:"message"`
}

// HasData reports whether a barrel volume was available.
func (r BarrelUsageResult) HasData() bool {
	return r.Status != BarrelNoData
}

// BarrelUsage compares a shot volume with the machine barrel volume. An
// absent or non-positive barrel volume yields BarrelNoData, never OK.
func BarrelUsage(shotCM3 float64, barrelCM3 *float64, policy model.ShotPolicy) BarrelUsageResult {
	barrel, ok := model.Positive(barrelCM3)
	if !ok {
		return BarrelUsageResult{Status: BarrelNoData, Message: "No barrel volume data available"}
	}
	usage := shotCM3 / barrel * 100
	res := BarrelUsageResult{Percent: round(usage, 1), Status: BarrelOK}
	switch {
	case usage >= policy.BarrelCriticalPercent:
		res.Status, res.IsWarning, res.IsCritical = BarrelCritical, true, true
	case usage >= policy.BarrelWarningPercent:
		res.Status, res.IsWarning = BarrelWarning, true
	}
	res.Message = fmt.Sprintf("%s: %.1f%% barrel usage (%.1fcm³ of %.1fcm³)", res.Status, usage, shotCM3, barrel)
	return res
}
