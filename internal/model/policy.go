package model

import (
	"errors"
	"fmt"
)

// ClampingPolicy holds the clamping force and injection pressure parameters.
type ClampingPolicy struct {
	SafetyFactor          float64   `json:"safety_factor"`
	BaseInjectionPressure float64   `json:"base_injection_pressure_bar"`
	MaxInjectionPressure  float64   `json:"max_injection_pressure_bar"`
	ThinWallThresholdMM   float64   `json:"thin_wall_threshold_mm"`
	MachineSizesTonnes    []float64 `json:"machine_sizes_tonnes"` // ascending
	SizeTargetUtilization float64   `json:"size_target_utilization"`
}

// ShotPolicy holds the shot volume and barrel usage thresholds.
type ShotPolicy struct {
	RunnerPercent          float64 `json:"runner_percent"`
	BarrelWarningPercent   float64 `json:"barrel_warning_percent"`
	BarrelCriticalPercent  float64 `json:"barrel_critical_percent"`
	WeightTolerancePercent float64 `json:"weight_tolerance_percent"`
}

// PartPolicy holds the plausibility limits applied to part data.
type PartPolicy struct {
	MinWallMM float64 `json:"min_wall_mm"`
	MaxWallMM float64 `json:"max_wall_mm"`
	// A part's projected area is implausible above
	// volume^0.67 × FlatAreaFactor × AreaVolumeLimit.
	FlatAreaFactor  float64 `json:"flat_area_factor"`
	AreaVolumeLimit float64 `json:"area_volume_limit"`
}

// ScrewPolicy holds the inclusive stroke/diameter ratio bands.
type ScrewPolicy struct {
	OptimalMin    float64 `json:"optimal_min"`
	OptimalMax    float64 `json:"optimal_max"`
	AcceptableMin float64 `json:"acceptable_min"`
	AcceptableMax float64 `json:"acceptable_max"`
}

// DemandPolicy holds the production capacity assumptions and utilization bands.
type DemandPolicy struct {
	HoursPerWeek        float64 `json:"hours_per_week"`
	WeeksPerYear        float64 `json:"weeks_per_year"`
	Efficiency          float64 `json:"efficiency"` // OEE, 0-1
	InfeasiblePercent   float64 `json:"infeasible_utilization_percent"`
	HighPercent         float64 `json:"high_utilization_percent"`
	LowPercent          float64 `json:"low_utilization_percent"`
	MinPlausibleCycleS  float64 `json:"min_plausible_cycle_s"`
	MaxPlausibleCycleS  float64 `json:"max_plausible_cycle_s"`
	TargetUtilization   float64 `json:"target_utilization"` // 0-1, for cavity recommendation
	MaxCavities         int     `json:"max_cavities"`
	ImbalanceThresholdP float64 `json:"imbalance_threshold_percent"`
}

// FitPolicy holds the machine fit thresholds, as fractions of machine capacity.
type FitPolicy struct {
	PlatenWarningFraction float64 `json:"platen_warning_fraction"`
	ClampIssueFraction    float64 `json:"clamp_issue_fraction"`
	ClampHighFraction     float64 `json:"clamp_high_fraction"`
	ClampLowFraction      float64 `json:"clamp_low_fraction"`
	ShotIssueFraction     float64 `json:"shot_issue_fraction"`
	ShotWarningFraction   float64 `json:"shot_warning_fraction"`
}

// Policy groups every threshold and default used by the feasibility engine.
type Policy struct {
	Clamping ClampingPolicy `json:"clamping"`
	Shot     ShotPolicy     `json:"shot"`
	Part     PartPolicy     `json:"part"`
	Screw    ScrewPolicy    `json:"screw"`
	Demand   DemandPolicy   `json:"demand"`
	Fit      FitPolicy      `json:"fit"`
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Clamping: ClampingPolicy{
			SafetyFactor:          1.2,
			BaseInjectionPressure: 500,
			MaxInjectionPressure:  2500,
			ThinWallThresholdMM:   2.0,
			MachineSizesTonnes:    []float64{50, 80, 100, 130, 160, 200, 250, 320, 400, 500, 650, 800, 1000, 1300, 1600, 2000},
			SizeTargetUtilization: 0.8,
		},
		Shot: ShotPolicy{
			RunnerPercent:          15,
			BarrelWarningPercent:   70,
			BarrelCriticalPercent:  85,
			WeightTolerancePercent: 20,
		},
		Part: PartPolicy{
			MinWallMM:       0.5,
			MaxWallMM:       10,
			FlatAreaFactor:  2,
			AreaVolumeLimit: 10,
		},
		Screw: ScrewPolicy{
			OptimalMin:    1.0,
			OptimalMax:    2.8,
			AcceptableMin: 0.5,
			AcceptableMax: 3.5,
		},
		Demand: DemandPolicy{
			HoursPerWeek:        120,
			WeeksPerYear:        50,
			Efficiency:          0.85,
			InfeasiblePercent:   95,
			HighPercent:         85,
			LowPercent:          30,
			MinPlausibleCycleS:  3,
			MaxPlausibleCycleS:  120,
			TargetUtilization:   0.7,
			MaxCavities:         16,
			ImbalanceThresholdP: 1.0,
		},
		Fit: FitPolicy{
			PlatenWarningFraction: 0.95,
			ClampIssueFraction:    1.0,
			ClampHighFraction:     0.9,
			ClampLowFraction:      0.3,
			ShotIssueFraction:     0.8,
			ShotWarningFraction:   0.7,
		},
	}
}

// Validate rejects inverted bands, empty or unsorted ladders and non-positive factors.
func (p Policy) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %g", name, v))
		}
	}
	ordered := func(name string, lo, hi float64) {
		if lo > hi {
			errs = append(errs, fmt.Errorf("%s: lower bound %g exceeds upper bound %g", name, lo, hi))
		}
	}

	c := p.Clamping
	positive("clamping.safety_factor", c.SafetyFactor)
	positive("clamping.base_injection_pressure_bar", c.BaseInjectionPressure)
	positive("clamping.max_injection_pressure_bar", c.MaxInjectionPressure)
	positive("clamping.thin_wall_threshold_mm", c.ThinWallThresholdMM)
	positive("clamping.size_target_utilization", c.SizeTargetUtilization)
	ordered("clamping injection pressure", c.BaseInjectionPressure, c.MaxInjectionPressure)
	if len(c.MachineSizesTonnes) == 0 {
		errs = append(errs, errors.New("clamping.machine_sizes_tonnes must not be empty"))
	}
	for i, size := range c.MachineSizesTonnes {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("clamping.machine_sizes_tonnes[%d] must be positive, got %g", i, size))
		}
		if i > 0 && size <= c.MachineSizesTonnes[i-1] {
			errs = append(errs, fmt.Errorf("clamping.machine_sizes_tonnes must be strictly ascending at index %d", i))
		}
	}

	s := p.Shot
	if s.RunnerPercent < 0 {
		errs = append(errs, fmt.Errorf("shot.runner_percent must not be negative, got %g", s.RunnerPercent))
	}
	positive("shot.barrel_warning_percent", s.BarrelWarningPercent)
	positive("shot.weight_tolerance_percent", s.WeightTolerancePercent)
	ordered("shot barrel band", s.BarrelWarningPercent, s.BarrelCriticalPercent)

	pp := p.Part
	positive("part.min_wall_mm", pp.MinWallMM)
	positive("part.flat_area_factor", pp.FlatAreaFactor)
	positive("part.area_volume_limit", pp.AreaVolumeLimit)
	ordered("part wall band", pp.MinWallMM, pp.MaxWallMM)

	sc := p.Screw
	positive("screw.acceptable_min", sc.AcceptableMin)
	ordered("screw optimal band", sc.OptimalMin, sc.OptimalMax)
	ordered("screw acceptable band", sc.AcceptableMin, sc.AcceptableMax)
	if sc.OptimalMin < sc.AcceptableMin || sc.OptimalMax > sc.AcceptableMax {
		errs = append(errs, errors.New("screw optimal band must lie within the acceptable band"))
	}

	d := p.Demand
	positive("demand.hours_per_week", d.HoursPerWeek)
	positive("demand.weeks_per_year", d.WeeksPerYear)
	positive("demand.efficiency", d.Efficiency)
	positive("demand.target_utilization", d.TargetUtilization)
	positive("demand.min_plausible_cycle_s", d.MinPlausibleCycleS)
	if d.MaxCavities < 1 {
		errs = append(errs, fmt.Errorf("demand.max_cavities must be at least 1, got %d", d.MaxCavities))
	}
	if d.ImbalanceThresholdP < 0 {
		errs = append(errs, fmt.Errorf("demand.imbalance_threshold_percent must not be negative, got %g", d.ImbalanceThresholdP))
	}
	ordered("demand utilization band", d.LowPercent, d.HighPercent)
	ordered("demand high/infeasible band", d.HighPercent, d.InfeasiblePercent)
	ordered("demand plausible cycle band", d.MinPlausibleCycleS, d.MaxPlausibleCycleS)

	f := p.Fit
	positive("fit.platen_warning_fraction", f.PlatenWarningFraction)
	positive("fit.clamp_issue_fraction", f.ClampIssueFraction)
	positive("fit.shot_issue_fraction", f.ShotIssueFraction)
	ordered("fit clamp band", f.ClampLowFraction, f.ClampHighFraction)
	ordered("fit clamp high/issue band", f.ClampHighFraction, f.ClampIssueFraction)
	ordered("fit shot band", f.ShotWarningFraction, f.ShotIssueFraction)

	return errors.Join(errs...)
}
