package model

// ToolType distinguishes single-part tools from family tools.
type ToolType string

const (
	ToolSingle ToolType = "single"
	ToolFamily ToolType = "family"
)

func (t ToolType) String() string {
	if t == ToolFamily {
		return "Family"
	}
	return "Single"
}

// InjectionSystem is the feed system of a tool.
type InjectionSystem string

const (
	ColdRunner InjectionSystem = "cold_runner"
	HotRunner  InjectionSystem = "hot_runner"
	ValveGate  InjectionSystem = "valve_gate"
)

// InjectionSystems lists the options in display order.
var InjectionSystems = []InjectionSystem{ColdRunner, HotRunner, ValveGate}

func (s InjectionSystem) String() string {
	switch s {
	case HotRunner:
		return "Hot runner"
	case ValveGate:
		return "Valve gate"
	default:
		return "Cold runner"
	}
}

// IsHot reports whether the system has no cold sprue to remove.
func (s InjectionSystem) IsHot() bool {
	return s == HotRunner || s == ValveGate
}

// NozzleType is the injection nozzle fitted to a tool.
type NozzleType string

const (
	NozzleHeatedSprue     NozzleType = "heated_sprue"
	NozzleHotRunner       NozzleType = "hot_runner"
	NozzleNeedleValve     NozzleType = "needle_valve"
	NozzleDirectInjection NozzleType = "direct_injection"
	NozzleSubgated        NozzleType = "subgated"
	NozzleColdRunner      NozzleType = "cold_runner"
)

var NozzleTypes = []NozzleType{
	NozzleColdRunner, NozzleHeatedSprue, NozzleHotRunner,
	NozzleNeedleValve, NozzleDirectInjection, NozzleSubgated,
}

func (n NozzleType) String() string {
	switch n {
	case NozzleHeatedSprue:
		return "Heated sprue"
	case NozzleHotRunner:
		return "Hot runner"
	case NozzleNeedleValve:
		return "Needle valve"
	case NozzleDirectInjection:
		return "Direct injection"
	case NozzleSubgated:
		return "Subgated"
	default:
		return "Cold runner"
	}
}

// SurfaceFinish is the cavity surface specification.
type SurfaceFinish string

const (
	FinishDrawPolish      SurfaceFinish = "draw_polish"
	FinishPolish          SurfaceFinish = "polish"
	FinishHighPolish      SurfaceFinish = "high_polish"
	FinishGrain           SurfaceFinish = "grain"
	FinishTechnicalPolish SurfaceFinish = "technical_polish"
	FinishEDM             SurfaceFinish = "edm"
)

var SurfaceFinishes = []SurfaceFinish{
	FinishEDM, FinishTechnicalPolish, FinishDrawPolish,
	FinishPolish, FinishHighPolish, FinishGrain,
}

func (f SurfaceFinish) String() string {
	switch f {
	case FinishDrawPolish:
		return "Draw polish"
	case FinishPolish:
		return "Polish"
	case FinishHighPolish:
		return "High polish"
	case FinishGrain:
		return "Grain"
	case FinishTechnicalPolish:
		return "Technical polish"
	case FinishEDM:
		return "EDM"
	default:
		return ""
	}
}
