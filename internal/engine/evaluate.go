package engine

import (
	"errors"
	"fmt"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// PartDemand is the demand check of one part on its own cavities.
type PartDemand struct {
	PartName            string             `json:"part_name"`
	AnnualDemand        int                `json:"annual_demand"`
	Cavities            int                `json:"cavities"`
	Check               *DemandCheckResult `json:"check,omitempty"`
	RecommendedCavities int                `json:"recommended_cavities"`
}

// ToolReport collects every check of one tool on one machine.
type ToolReport struct {
	ToolID      string `json:"tool_id"`
	ToolName    string `json:"tool_name"`
	MachineID   string `json:"machine_id,omitempty"`
	MachineName string `json:"machine_name,omitempty"`

	Totals        ToolTotalsResult     `json:"totals"`
	PartChecks    []PartCheck          `json:"part_checks"`
	Clamping      *ClampingForceResult `json:"clamping,omitempty"`
	ClampingError string               `json:"clamping_error,omitempty"`

	InjectionPressureBar *float64                   `json:"injection_pressure_bar,omitempty"`
	MachineSize          *MachineSizeRecommendation `json:"machine_size,omitempty"`

	ShotVolume ShotVolumeResult   `json:"shot_volume"`
	ShotWeight ShotWeightResult   `json:"shot_weight"`
	Barrel     *BarrelUsageResult `json:"barrel,omitempty"`
	Screw      *ScrewRatioResult  `json:"screw,omitempty"`

	CycleTimeS         *float64        `json:"cycle_time_s,omitempty"`
	CycleTimeEstimated bool            `json:"cycle_time_estimated"`
	Demand             []PartDemand    `json:"demand"`
	Imbalance          ImbalanceResult `json:"imbalance"`

	Dimensions          *ToolDimensions   `json:"dimensions,omitempty"`
	DimensionsEstimated bool              `json:"dimensions_estimated"`
	Fit                 *MachineFitResult `json:"fit,omitempty"`

	Warnings []string `json:"warnings"`
}

// Fits reports whether a machine was checked and the tool fits it.
func (r ToolReport) Fits() bool {
	return r.Fit != nil && r.Fit.Fits
}

// Feasible reports whether every part demand check passed.
func (r ToolReport) Feasible() bool {
	for _, d := range r.Demand {
		if d.Check != nil && !d.Check.Feasible {
			return false
		}
	}
	return true
}

// Evaluate runs every feasibility check of rt against machine, which may be
// nil to skip the machine-dependent checks. Missing data never fails the
// evaluation; it omits the affected checks and adds a warning. Only a tool
// without any part fails, with ErrUndefinedTool.
func Evaluate(rt model.ResolvedTool, machine *model.Machine, policy model.Policy) (ToolReport, error) {
	assignments := effectiveAssignments(rt)
	if len(assignments) == 0 {
		return ToolReport{}, ErrUndefinedTool
	}

	r := ToolReport{
		ToolID:     rt.Tool.ID,
		ToolName:   rt.Tool.Name,
		Totals:     ToolTotals(rt),
		PartChecks: []PartCheck{},
		Demand:     []PartDemand{},
		Warnings:   []string{},
	}
	warn := func(format string, args ...any) { r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...)) }
	if machine != nil {
		r.MachineID = machine.ID
		r.MachineName = machine.Name
	}

	var density *float64
	if rt.Material != nil {
		density = rt.Material.DensityGCM3
	} else {
		warn("No material assigned")
	}
	for _, a := range assignments {
		check := CheckPart(a.Part, density, policy)
		r.PartChecks = append(r.PartChecks, check)
		for _, w := range check.Warnings {
			warn("%s: %s", a.Part.Name, w)
		}
	}

	// Clamping and injection pressure
	clamp, err := ToolClampingForce(rt, policy.Clamping)
	switch {
	case err == nil:
		r.Clamping = &clamp
		size := RecommendMachineSize(clamp.ForceKN, policy.Clamping)
		r.MachineSize = &size
		for _, name := range clamp.Skipped {
			warn("%s: no projected area, excluded from clamping force", name)
		}
	case errors.Is(err, ErrNoPressureData), errors.Is(err, ErrMissingInput), errors.Is(err, ErrUndefinedTool):
		r.ClampingError = err.Error()
		warn("Clamping force not computed: %v", err)
	default:
		return ToolReport{}, fmt.Errorf("failed to compute clamping force: %w", err)
	}
	r.InjectionPressureBar = maxInjectionPressure(assignments, policy.Clamping)
	if r.InjectionPressureBar != nil && machine != nil {
		if capacity, ok := model.Positive(machine.InjectionPressureBar); ok && *r.InjectionPressureBar > capacity {
			warn("Estimated injection pressure (%g bar) exceeds machine capacity (%g bar)", *r.InjectionPressureBar, capacity)
		}
	}

	// Shot
	r.ShotVolume = ShotVolume(assignments, policy.Shot.RunnerPercent)
	for _, name := range r.ShotVolume.Skipped {
		warn("%s: no volume data, excluded from shot volume", name)
	}
	r.ShotWeight = ShotWeight(assignments, rt.Material, policy.Shot.RunnerPercent)

	// Cycle time and demand
	r.CycleTimeS, r.CycleTimeEstimated = cycleTime(rt, assignments)
	if r.CycleTimeS == nil {
		warn("No cycle time and no wall thickness to estimate one; demand checks skipped")
	}
	for _, a := range assignments {
		demand, ok := a.Part.YearlyDemand()
		if !ok {
			continue
		}
		pd := PartDemand{PartName: a.Part.Name, AnnualDemand: demand, Cavities: a.Config.Cavities}
		if r.CycleTimeS != nil {
			pd.RecommendedCavities = RecommendCavities(demand, *r.CycleTimeS, policy.Demand)
			check, err := CheckDemand(demand, *r.CycleTimeS, a.Config.Cavities, policy.Demand)
			if err != nil {
				warn("%s: demand check skipped: %v", a.Part.Name, err)
			} else {
				pd.Check = &check
				for _, w := range check.Warnings {
					warn("%s: %s", a.Part.Name, w)
				}
			}
		}
		r.Demand = append(r.Demand, pd)
	}
	r.Imbalance = DetectImbalance(rt, policy.Demand)
	if r.Imbalance.NeedsShutoff {
		warn("Cavity imbalance %.1f%%: tool needs cavity shutoff capability", r.Imbalance.ImbalancePercent)
	}

	// Dimensions
	if dims, estimated := toolDimensions(rt, assignments); dims != nil {
		r.Dimensions, r.DimensionsEstimated = dims, estimated
	}

	if machine == nil {
		return r, nil
	}

	// Machine dependent checks
	if r.ShotVolume.PartsCM3 > 0 {
		barrel := BarrelUsage(r.ShotVolume.TotalCM3, machine.BarrelVolumeCM3, policy.Shot)
		r.Barrel = &barrel
		if barrel.IsWarning {
			warn("%s", barrel.Message)
		}
	}
	if screw, err := CheckMachineScrew(*machine, policy.Screw); err == nil {
		r.Screw = &screw
		if !screw.IsOptimal {
			warn("%s", screw.Message)
		}
	}

	in := FitInput{}
	if r.Dimensions != nil {
		in.ToolWidthMM = model.Float(r.Dimensions.WidthMM)
		in.ToolHeightMM = model.Float(r.Dimensions.HeightMM)
		in.ToolLengthMM = model.Float(r.Dimensions.LengthMM)
	}
	if r.Clamping != nil {
		in.RequiredClampKN = model.Float(r.Clamping.ForceKN)
	}
	if r.ShotWeight.TotalG > 0 {
		in.RequiredShotWeightG = model.Float(r.ShotWeight.TotalG)
	}
	fit := CheckMachineFit(in, *machine, policy.Fit)
	r.Fit = &fit
	r.Warnings = append(r.Warnings, fit.Warnings...)
	return r, nil
}

func maxInjectionPressure(assignments []model.Assignment, policy model.ClampingPolicy) *float64 {
	var best *float64
	for _, a := range assignments {
		wall, ok := model.Positive(a.Part.WallThicknessMM)
		if !ok {
			continue
		}
		flow, ok := model.Positive(a.Part.FlowLengthMM)
		if !ok {
			continue
		}
		p := EstimateInjectionPressure(wall, flow, policy)
		if best == nil || p > *best {
			best = model.Float(p)
		}
	}
	return best
}

// cycleTime returns the tool's cycle time, else an estimate driven by the
// thickest wall among its parts.
func cycleTime(rt model.ResolvedTool, assignments []model.Assignment) (*float64, bool) {
	if ct, ok := model.Positive(rt.Tool.CycleTimeS); ok {
		return model.Float(ct), false
	}
	var thickest *model.Part
	for i := range assignments {
		p := &assignments[i].Part
		if _, ok := model.Positive(p.WallThicknessMM); !ok {
			continue
		}
		if thickest == nil || *p.WallThicknessMM > *thickest.WallThicknessMM {
			thickest = p
		}
	}
	if thickest == nil {
		return nil, false
	}
	family := ""
	if rt.Material != nil {
		family = rt.Material.Family
		if family == "" {
			family = rt.Material.ShortName
		}
	}
	ct := EstimateCycleTime(*thickest.WallThicknessMM, family, thickest.VolumeCM3, rt.Tool.InjectionSystem.IsHot())
	return model.Float(ct), true
}

// toolDimensions returns the tool's own dimensions when all three are set,
// else an estimate that lays out all its cavities at the footprint of its
// largest part.
func toolDimensions(rt model.ResolvedTool, assignments []model.Assignment) (*ToolDimensions, bool) {
	w, okW := model.Positive(rt.Tool.WidthMM)
	h, okH := model.Positive(rt.Tool.HeightMM)
	l, okL := model.Positive(rt.Tool.LengthMM)
	if okW && okH && okL {
		return &ToolDimensions{WidthMM: w, HeightMM: h, LengthMM: l}, false
	}

	var length, width, depth float64
	cavities := 0
	for _, a := range assignments {
		cavities += a.Config.Cavities
		pl, pw, ok := footprint(a.Part)
		if !ok {
			continue
		}
		if pl*pw > length*width {
			length, width = pl, pw
			depth = model.FloatOr(a.Part.DepthMM, 0)
		}
	}
	if cavities == 0 || length == 0 {
		return nil, false
	}
	layout := LayoutGrid
	if rt.Tool.Type == model.ToolFamily {
		layout = LayoutSquare
	}
	dims := EstimateToolDimensions(length, width, depth, cavities, layout)
	return &dims, true
}

// footprint returns a part's length and width in mm from its box geometry or
// imported outline.
func footprint(p model.Part) (length, width float64, ok bool) {
	if l, okL := model.Positive(p.Geometry.BoxLengthMM); okL {
		if w, okW := model.Positive(p.Geometry.BoxWidthMM); okW {
			return l, w, true
		}
	}
	if len(p.Outline) >= 3 {
		lo, hi := p.Outline.BoundingBox()
		l, w := hi.X-lo.X, hi.Y-lo.Y
		if l > 0 && w > 0 {
			return l, w, true
		}
	}
	return 0, 0, false
}
