package model

// Material is an injection molding resin.
type Material struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Family    string `json:"family"` // PP, ABS, PA, PC, POM...

	DensityGCM3         *float64 `json:"density_g_cm3,omitempty"`
	ShrinkageMinPercent *float64 `json:"shrinkage_min_percent,omitempty"`
	ShrinkageMaxPercent *float64 `json:"shrinkage_max_percent,omitempty"`
	MeltTempMinC        *float64 `json:"melt_temp_min_c,omitempty"`
	MeltTempMaxC        *float64 `json:"melt_temp_max_c,omitempty"`
	MoldTempMinC        *float64 `json:"mold_temp_min_c,omitempty"`
	MoldTempMaxC        *float64 `json:"mold_temp_max_c,omitempty"`

	PressureMinBar  *float64 `json:"specific_pressure_min_bar,omitempty"`
	PressureMaxBar  *float64 `json:"specific_pressure_max_bar,omitempty"`
	FlowLengthRatio *float64 `json:"flow_length_ratio,omitempty"` // flow length / wall thickness

	Notes    string `json:"notes,omitempty"`
	IsPreset bool   `json:"is_preset"`
}

// NewMaterial creates a material with a generated ID.
func NewMaterial(name, shortName, family string) Material {
	return Material{
		ID:        newID(),
		Name:      name,
		ShortName: shortName,
		Family:    family,
	}
}

// AvgPressure returns the specific injection pressure used for calculations:
// the midpoint when both bounds exist, else whichever bound exists.
func (m Material) AvgPressure() (float64, bool) {
	lo, hasLo := Positive(m.PressureMinBar)
	hi, hasHi := Positive(m.PressureMaxBar)
	switch {
	case hasLo && hasHi:
		return (lo + hi) / 2, true
	case hasLo:
		return lo, true
	case hasHi:
		return hi, true
	default:
		return 0, false
	}
}

// Density returns the density when present and positive.
func (m Material) Density() (float64, bool) {
	return Positive(m.DensityGCM3)
}

// Machine is an injection molding machine.
type Machine struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer,omitempty"`

	ClampingForceKN      *float64 `json:"clamping_force_kn,omitempty"`
	ShotWeightG          *float64 `json:"shot_weight_g,omitempty"`
	InjectionPressureBar *float64 `json:"injection_pressure_bar,omitempty"`
	BarrelVolumeCM3      *float64 `json:"barrel_volume_cm3,omitempty"`
	ScrewDiameterMM      *float64 `json:"screw_diameter_mm,omitempty"`
	MaxInjectionStrokeMM *float64 `json:"max_injection_stroke_mm,omitempty"`

	PlatenWidthMM    *float64 `json:"platen_width_mm,omitempty"`
	PlatenHeightMM   *float64 `json:"platen_height_mm,omitempty"`
	TieBarSpacingHMM *float64 `json:"tie_bar_spacing_h_mm,omitempty"`
	TieBarSpacingVMM *float64 `json:"tie_bar_spacing_v_mm,omitempty"`
	MinMoldHeightMM  *float64 `json:"min_mold_height_mm,omitempty"`
	MaxMoldHeightMM  *float64 `json:"max_mold_height_mm,omitempty"`
	MaxOpeningMM     *float64 `json:"max_opening_stroke_mm,omitempty"`

	Notes    string `json:"notes,omitempty"`
	IsPreset bool   `json:"is_preset"`
}

// NewMachine creates a machine with a generated ID.
func NewMachine(name, manufacturer string) Machine {
	return Machine{
		ID:           newID(),
		Name:         name,
		Manufacturer: manufacturer,
	}
}

// ScrewRatio returns stroke/diameter when both are present.
func (m Machine) ScrewRatio() (float64, bool) {
	stroke, ok := Positive(m.MaxInjectionStrokeMM)
	if !ok {
		return 0, false
	}
	dia, ok := Positive(m.ScrewDiameterMM)
	if !ok {
		return 0, false
	}
	return stroke / dia, true
}

// Tonnage returns the clamping capacity in tonnes (kN / 10).
func (m Machine) Tonnage() (float64, bool) {
	kn, ok := Positive(m.ClampingForceKN)
	return kn / 10, ok
}
