package engine

import (
	"fmt"
	"strings"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// kNPerBarCM2 converts bar × cm² to kN.
const kNPerBarCM2 = 0.01

// PressureSource records where the specific pressure of a calculation came from.
type PressureSource string

const (
	PressureManual      PressureSource = "manual_override"
	PressureMaterialAvg PressureSource = "material_avg"
	PressureMaterialMax PressureSource = "material_max"
)

// ClampingForce returns the clamping force in kN for cavities impressions of
// areaCM2 at pressureBar, with the given safety factor, rounded to 0.1 kN.
func ClampingForce(areaCM2, pressureBar float64, cavities int, safetyFactor float64) float64 {
	return round(areaCM2*pressureBar*float64(cavities)*kNPerBarCM2*safetyFactor, 1)
}

// ResolvePressure picks the specific pressure for a clamping calculation: a
// positive manual override, else the material max when useMax is set and the
// material has one, else the material average. Without any of them it fails
// with ErrNoPressureData.
func ResolvePressure(material *model.Material, override *float64, useMax bool) (float64, PressureSource, error) {
	if p, ok := model.Positive(override); ok {
		return p, PressureManual, nil
	}
	if material != nil {
		if useMax {
			if p, ok := model.Positive(material.PressureMaxBar); ok {
				return p, PressureMaterialMax, nil
			}
		}
		if p, ok := material.AvgPressure(); ok {
			return p, PressureMaterialAvg, nil
		}
	}
	return 0, "", ErrNoPressureData
}

// PartForce is the clamping force contribution of one part configuration.
type PartForce struct {
	PartName string  `json:"part_name"`
	AreaCM2  float64 `json:"area_cm2"`
	Cavities int     `json:"cavities"`
	ForceKN  float64 `json:"force_kn"`
}

// ClampingForceResult is the required clamping force of a tool.
type ClampingForceResult struct {
	ForceKN        float64        `json:"force_kn"`
	PressureBar    float64        `json:"pressure_bar"`
	PressureSource PressureSource `json:"pressure_source"`
	SafetyFactor   float64        `json:"safety_factor"`
	Breakdown      []PartForce    `json:"breakdown"`
	Skipped        []string       `json:"skipped,omitempty"` // parts without a resolvable area
	Notes          string         `json:"notes"`
}

// ToolClampingForce sums the clamping force of every part configuration of rt.
// A tool without configurations uses its legacy part area times the legacy
// cavity count; with neither it fails with ErrUndefinedTool.
func ToolClampingForce(rt model.ResolvedTool, policy model.ClampingPolicy) (ClampingForceResult, error) {
	type term struct {
		part     model.Part
		cavities int
	}
	var terms []term
	if rt.Tool.IsDefined() {
		for _, a := range rt.Assignments {
			terms = append(terms, term{a.Part, a.Config.Cavities})
		}
	} else if rt.LegacyPart != nil {
		if _, ok := PartArea(*rt.LegacyPart); ok {
			terms = append(terms, term{*rt.LegacyPart, rt.Tool.Cavities})
		}
	}
	if len(terms) == 0 {
		return ClampingForceResult{}, ErrUndefinedTool
	}

	pressure, source, err := ResolvePressure(rt.Material, rt.Tool.ManualPressureBar, rt.Tool.UseMaxPressure)
	if err != nil {
		return ClampingForceResult{}, err
	}

	res := ClampingForceResult{
		PressureBar:    pressure,
		PressureSource: source,
		SafetyFactor:   policy.SafetyFactor,
	}
	var total float64
	for _, t := range terms {
		area, ok := PartArea(t.part)
		if !ok {
			res.Skipped = append(res.Skipped, t.part.Name)
			continue
		}
		f := ClampingForce(area, pressure, t.cavities, policy.SafetyFactor)
		total += f
		res.Breakdown = append(res.Breakdown, PartForce{
			PartName: t.part.Name,
			AreaCM2:  area,
			Cavities: t.cavities,
			ForceKN:  f,
		})
	}
	if len(res.Breakdown) == 0 {
		return ClampingForceResult{}, fmt.Errorf("no part of tool %q has a projected area: %w", rt.Tool.Name, ErrMissingInput)
	}
	res.ForceKN = round(total, 1)
	res.Notes = clampingNotes(res, rt.Material)
	return res, nil
}

func clampingNotes(res ClampingForceResult, material *model.Material) string {
	var b strings.Builder
	switch res.PressureSource {
	case PressureManual:
		fmt.Fprintf(&b, "Pressure source: manual override (%g bar)", res.PressureBar)
	case PressureMaterialMax:
		fmt.Fprintf(&b, "Pressure source: material max (%g bar)", res.PressureBar)
	default:
		fmt.Fprintf(&b, "Pressure source: material avg (%s-%s bar)",
			optional(material.PressureMinBar), optional(material.PressureMaxBar))
	}
	for _, pf := range res.Breakdown {
		fmt.Fprintf(&b, "\n%s (%dx): %g kN", pf.PartName, pf.Cavities, pf.ForceKN)
	}
	for _, name := range res.Skipped {
		fmt.Fprintf(&b, "\n%s: skipped, no projected area", name)
	}
	return b.String()
}

func optional(p *float64) string {
	if p == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *p)
}

// EstimateInjectionPressure returns a rough injection pressure in bar from
// the flow length to wall thickness ratio. Walls thinner than the policy
// threshold scale the pressure up; the result is capped at the policy max and
// rounded to whole bar. A non-positive wall thickness returns the base pressure.
func EstimateInjectionPressure(wallThicknessMM, flowLengthMM float64, policy model.ClampingPolicy) float64 {
	base := policy.BaseInjectionPressure
	if wallThicknessMM <= 0 {
		return base
	}
	flowRatio := flowLengthMM / wallThicknessMM
	thicknessFactor := 1.0
	if wallThicknessMM < policy.ThinWallThresholdMM {
		thicknessFactor = policy.ThinWallThresholdMM / wallThicknessMM
	}
	pressure := base * (1 + flowRatio/100) * thicknessFactor
	if pressure > policy.MaxInjectionPressure {
		pressure = policy.MaxInjectionPressure
	}
	return round(pressure, 0)
}

// MachineSizeRecommendation is the smallest standard machine that runs a
// clamping force at or below the target utilization.
type MachineSizeRecommendation struct {
	RequiredTonnes float64 `json:"required_tonnes"`
	SizeTonnes     float64 `json:"size_tonnes"` // 0 when no standard size fits
	Special        bool    `json:"special"`
	Label          string  `json:"label"`
}

// RecommendMachineSize walks the policy ladder for the first size whose
// target share covers forceKN/10 tonnes.
func RecommendMachineSize(forceKN float64, policy model.ClampingPolicy) MachineSizeRecommendation {
	tonnes := forceKN / 10
	rec := MachineSizeRecommendation{RequiredTonnes: round(tonnes, 1)}
	for _, size := range policy.MachineSizesTonnes {
		if tonnes <= size*policy.SizeTargetUtilization {
			rec.SizeTonnes = size
			rec.Label = fmt.Sprintf("%gt", size)
			return rec
		}
	}
	rec.Special = true
	if n := len(policy.MachineSizesTonnes); n > 0 {
		rec.Label = fmt.Sprintf(">%gt (special machine required)", policy.MachineSizesTonnes[n-1])
	} else {
		rec.Label = "special machine required"
	}
	return rec
}
