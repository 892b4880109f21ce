package model

import (
	"fmt"
	"sort"
)

// ToolPartConfiguration assigns a part to a tool with its own cavity count
// and mechanical features.
//
// Configurations sharing a non-nil GroupID are alternatives: only one group
// runs at a time. Configurations with a nil or distinct GroupID run together.
type ToolPartConfiguration struct {
	ID           string `json:"id"`
	PartID       string `json:"part_id"`
	Cavities     int    `json:"cavities"`
	LiftersCount int    `json:"lifters_count"`
	SlidersCount int    `json:"sliders_count"`
	GroupID      *int   `json:"config_group_id,omitempty"`
	Position     *int   `json:"position,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// NewToolPartConfiguration creates a configuration for partID with the given cavities.
func NewToolPartConfiguration(partID string, cavities int) ToolPartConfiguration {
	return ToolPartConfiguration{
		ID:       newID(),
		PartID:   partID,
		Cavities: cavities,
	}
}

// Tool is an injection mold quoted within an RFQ.
type Tool struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            ToolType        `json:"tool_type"`
	InjectionSystem InjectionSystem `json:"injection_system"`
	InjectionPoints *int            `json:"injection_points,omitempty"`
	NozzleType      NozzleType      `json:"nozzle_type"`
	SurfaceFinish   SurfaceFinish   `json:"surface_finish,omitempty"`
	MaterialID      string          `json:"material_id,omitempty"`

	// Pressure selection for the clamping calculation
	ManualPressureBar *float64 `json:"manual_pressure_bar,omitempty"`
	UseMaxPressure    bool     `json:"use_max_pressure"`

	CycleTimeS *float64 `json:"cycle_time_s,omitempty"`
	WidthMM    *float64 `json:"tool_width_mm,omitempty"`  // across platen, horizontal
	HeightMM   *float64 `json:"tool_height_mm,omitempty"` // across platen, vertical
	LengthMM   *float64 `json:"tool_length_mm,omitempty"` // stack height between platens
	MachineID  string   `json:"machine_id,omitempty"`

	// Legacy tool-level scalars used when there are no configurations
	Cavities     int    `json:"cavities"`
	LiftersCount int    `json:"lifters_count"`
	SlidersCount int    `json:"sliders_count"`
	LegacyPartID string `json:"legacy_part_id,omitempty"`

	Configurations []ToolPartConfiguration `json:"part_configurations"`

	PriceEnquiry    *float64 `json:"price_enquiry,omitempty"`
	PriceEstimated  *float64 `json:"price_estimated,omitempty"`
	PriceFinal      *float64 `json:"price_final,omitempty"`
	SupplierName    string   `json:"supplier_name,omitempty"`
	SupplierCountry string   `json:"supplier_country,omitempty"`
	Complexity      *int     `json:"complexity_rating,omitempty"` // 1-5
	Notes           string   `json:"notes,omitempty"`
}

// NewTool creates a single-part cold-runner tool with a generated ID.
func NewTool(name string) Tool {
	return Tool{
		ID:              newID(),
		Name:            name,
		Type:            ToolSingle,
		InjectionSystem: ColdRunner,
		NozzleType:      NozzleColdRunner,
		SurfaceFinish:   FinishEDM,
		Cavities:        1,
		Configurations:  []ToolPartConfiguration{},
	}
}

// IsDefined reports whether parts are assigned through configurations.
func (t Tool) IsDefined() bool {
	return len(t.Configurations) > 0
}

// PartsCount returns the number of part configurations.
func (t Tool) PartsCount() int {
	return len(t.Configurations)
}

// ConfigGroups returns the distinct non-nil group IDs in ascending order.
func (t Tool) ConfigGroups() []int {
	seen := map[int]bool{}
	var groups []int
	for _, c := range t.Configurations {
		if c.GroupID != nil && !seen[*c.GroupID] {
			seen[*c.GroupID] = true
			groups = append(groups, *c.GroupID)
		}
	}
	sort.Ints(groups)
	return groups
}

// HasAlternativeConfigs reports whether the tool has more than one configuration group.
func (t Tool) HasAlternativeConfigs() bool {
	return len(t.ConfigGroups()) > 1
}

// Assignment is a tool configuration joined with the part it references.
type Assignment struct {
	Config ToolPartConfiguration `json:"config"`
	Part   Part                  `json:"part"`
}

// ResolvedTool is a tool with its references resolved into plain values.
// Every tool-level calculation consumes this shape.
type ResolvedTool struct {
	Tool        Tool         `json:"tool"`
	Assignments []Assignment `json:"assignments"`
	LegacyPart  *Part        `json:"legacy_part,omitempty"`
	Material    *Material    `json:"material,omitempty"`
}

// ResolveTool joins the tool's configurations with the project's parts and
// looks up its material in lib. The tool material falls back to the material
// of the first assigned part that has one.
func (p Project) ResolveTool(id string, lib Library) (ResolvedTool, error) {
	tool := p.FindTool(id)
	if tool == nil {
		return ResolvedTool{}, fmt.Errorf("tool %q not found in project", id)
	}
	rt := ResolvedTool{Tool: *tool}
	materialID := tool.MaterialID

	for _, cfg := range tool.Configurations {
		part := p.FindPart(cfg.PartID)
		if part == nil {
			return ResolvedTool{}, fmt.Errorf("tool %q references unknown part %q", tool.Name, cfg.PartID)
		}
		rt.Assignments = append(rt.Assignments, Assignment{Config: cfg, Part: *part})
		if materialID == "" {
			materialID = part.MaterialID
		}
	}

	if len(tool.Configurations) == 0 && tool.LegacyPartID != "" {
		if part := p.FindPart(tool.LegacyPartID); part != nil {
			legacy := *part
			rt.LegacyPart = &legacy
			if materialID == "" {
				materialID = part.MaterialID
			}
		}
	}

	if materialID != "" {
		if m := lib.FindMaterialByID(materialID); m != nil {
			mat := *m
			rt.Material = &mat
		}
	}
	return rt, nil
}
