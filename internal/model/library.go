package model

// Library holds the user's materials and machines, presets and custom entries alike.
type Library struct {
	Materials []Material `json:"materials"`
	Machines  []Machine  `json:"machines"`
}

func presetMaterial(name, short, family string, density, pMin, pMax, flowRatio, meltMin, meltMax float64) Material {
	m := NewMaterial(name, short, family)
	m.DensityGCM3 = Float(density)
	m.PressureMinBar = Float(pMin)
	m.PressureMaxBar = Float(pMax)
	m.FlowLengthRatio = Float(flowRatio)
	m.MeltTempMinC = Float(meltMin)
	m.MeltTempMaxC = Float(meltMax)
	m.IsPreset = true
	return m
}

// machineSpec lists the catalogue figures of a preset machine.
type machineSpec struct {
	name, manufacturer          string
	clampKN, shotG, barrelCM3   float64
	screwMM, strokeMM           float64
	platenW, platenH            float64
	tieBarH, tieBarV            float64
	minMold, maxMold, openingMM float64
}

func presetMachine(s machineSpec) Machine {
	m := NewMachine(s.name, s.manufacturer)
	m.ClampingForceKN = Float(s.clampKN)
	m.ShotWeightG = Float(s.shotG)
	m.InjectionPressureBar = Float(2000)
	m.BarrelVolumeCM3 = Float(s.barrelCM3)
	m.ScrewDiameterMM = Float(s.screwMM)
	m.MaxInjectionStrokeMM = Float(s.strokeMM)
	m.PlatenWidthMM = Float(s.platenW)
	m.PlatenHeightMM = Float(s.platenH)
	m.TieBarSpacingHMM = Float(s.tieBarH)
	m.TieBarSpacingVMM = Float(s.tieBarV)
	m.MinMoldHeightMM = Float(s.minMold)
	m.MaxMoldHeightMM = Float(s.maxMold)
	m.MaxOpeningMM = Float(s.openingMM)
	m.IsPreset = true
	return m
}

// DefaultLibrary returns a library populated with common resins and machine sizes.
func DefaultLibrary() Library {
	return Library{
		Materials: []Material{
			presetMaterial("Polypropylene", "PP", "PP", 0.90, 300, 800, 250, 200, 280),
			presetMaterial("Polypropylene 20% talc", "PP-T20", "PP", 1.05, 400, 900, 200, 200, 270),
			presetMaterial("Polyethylene HD", "PE-HD", "PE", 0.95, 300, 700, 250, 200, 280),
			presetMaterial("Acrylonitrile butadiene styrene", "ABS", "ABS", 1.05, 500, 1000, 180, 210, 260),
			presetMaterial("Polyamide 6", "PA6", "PA", 1.13, 600, 1200, 150, 240, 290),
			presetMaterial("Polyamide 66 30% glass", "PA66-GF30", "PA", 1.36, 800, 1500, 120, 270, 300),
			presetMaterial("Polycarbonate", "PC", "PC", 1.20, 800, 1500, 100, 280, 320),
			presetMaterial("Polyoxymethylene", "POM", "POM", 1.41, 700, 1200, 150, 190, 230),
			presetMaterial("Polystyrene", "PS", "PS", 1.05, 400, 900, 200, 180, 260),
			presetMaterial("Polymethyl methacrylate", "PMMA", "PMMA", 1.18, 700, 1400, 130, 220, 270),
			presetMaterial("Polybutylene terephthalate", "PBT", "PBT", 1.31, 600, 1200, 150, 240, 270),
			presetMaterial("Thermoplastic polyurethane", "TPU", "TPU", 1.20, 500, 1000, 150, 190, 230),
		},
		Machines: []Machine{
			presetMachine(machineSpec{"Arburg Allrounder 370 S", "Arburg", 600, 110, 120, 30, 75, 570, 570, 370, 370, 200, 550, 500}),
			presetMachine(machineSpec{"Engel victory 80", "Engel", 800, 180, 200, 35, 90, 700, 640, 460, 410, 250, 600, 550}),
			presetMachine(machineSpec{"Engel victory 200", "Engel", 2000, 450, 500, 50, 125, 920, 850, 630, 560, 300, 700, 700}),
			presetMachine(machineSpec{"KraussMaffei CX 350", "KraussMaffei", 3500, 1200, 1300, 70, 180, 1140, 1140, 760, 760, 350, 850, 850}),
			presetMachine(machineSpec{"Engel duo 5500", "Engel", 5500, 2800, 3100, 90, 225, 1700, 1500, 1120, 1000, 450, 1200, 1300}),
		},
	}
}

// FindMaterialByID returns a pointer to the material with the given ID, or nil.
func (lib *Library) FindMaterialByID(id string) *Material {
	for i := range lib.Materials {
		if lib.Materials[i].ID == id {
			return &lib.Materials[i]
		}
	}
	return nil
}

// FindMachineByID returns a pointer to the machine with the given ID, or nil.
func (lib *Library) FindMachineByID(id string) *Machine {
	for i := range lib.Machines {
		if lib.Machines[i].ID == id {
			return &lib.Machines[i]
		}
	}
	return nil
}

// FindMaterialByName matches either the full or the short name.
func (lib *Library) FindMaterialByName(name string) *Material {
	for i := range lib.Materials {
		if lib.Materials[i].Name == name || lib.Materials[i].ShortName == name {
			return &lib.Materials[i]
		}
	}
	return nil
}

// FindMachineByName returns a pointer to the first machine with the given name, or nil.
func (lib *Library) FindMachineByName(name string) *Machine {
	for i := range lib.Machines {
		if lib.Machines[i].Name == name {
			return &lib.Machines[i]
		}
	}
	return nil
}

// MaterialNames returns material short names for UI dropdowns.
func (lib *Library) MaterialNames() []string {
	names := make([]string, len(lib.Materials))
	for i, m := range lib.Materials {
		names[i] = m.ShortName
	}
	return names
}

// MachineNames returns machine names for UI dropdowns.
func (lib *Library) MachineNames() []string {
	names := make([]string, len(lib.Machines))
	for i, m := range lib.Machines {
		names[i] = m.Name
	}
	return names
}

// Merge adds entries from other whose IDs are not already present.
// It returns the number of materials and machines added.
func (lib *Library) Merge(other Library) (materials, machines int) {
	for _, m := range other.Materials {
		if lib.FindMaterialByID(m.ID) == nil {
			lib.Materials = append(lib.Materials, m)
			materials++
		}
	}
	for _, m := range other.Machines {
		if lib.FindMachineByID(m.ID) == nil {
			lib.Machines = append(lib.Machines, m)
			machines++
		}
	}
	return materials, machines
}
