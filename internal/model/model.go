package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.New().String()[:8]
}

// NewID returns a short random record ID.
func NewID() string {
	return newID()
}

// GeometryMode selects which inputs are authoritative for a part's projected area.
type GeometryMode string

const (
	GeometryDirect GeometryMode = "direct" // Projected area entered directly
	GeometryBox    GeometryMode = "box"    // Estimated from a bounding box and an effective surface share
)

func (m GeometryMode) String() string {
	switch m {
	case GeometryBox:
		return "Box estimate"
	default:
		return "Direct"
	}
}

// Geometry holds the projected-area inputs of a part. It is persisted as-is
// (mode tag + parameters) so a reload yields the same resolved area.
type Geometry struct {
	Mode                GeometryMode `json:"mode"`
	AreaCM2             *float64     `json:"area_cm2,omitempty"`
	BoxLengthMM         *float64     `json:"box_length_mm,omitempty"`
	BoxWidthMM          *float64     `json:"box_width_mm,omitempty"`
	BoxEffectivePercent *float64     `json:"box_effective_percent,omitempty"` // defaults to 100
}

// DirectGeometry returns a direct-mode geometry for the given area in cm².
func DirectGeometry(areaCM2 float64) Geometry {
	return Geometry{Mode: GeometryDirect, AreaCM2: Float(areaCM2)}
}

// BoxGeometry returns a box-estimate geometry.
func BoxGeometry(lengthMM, widthMM, effectivePercent float64) Geometry {
	return Geometry{
		Mode:                GeometryBox,
		BoxLengthMM:         Float(lengthMM),
		BoxWidthMM:          Float(widthMM),
		BoxEffectivePercent: Float(effectivePercent),
	}
}

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min, max = o[0], o[0]
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// AnnualDemand is one year of a demand forecast.
type AnnualDemand struct {
	Year        int      `json:"year"`
	Volume      *int     `json:"volume,omitempty"`       // pieces
	FlexPercent *float64 `json:"flex_percent,omitempty"` // max capacity as % of volume, e.g. 110
}

// Part is a molded part within an RFQ.
type Part struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PartNumber string `json:"part_number,omitempty"`
	MaterialID string `json:"material_id,omitempty"`

	Geometry        Geometry       `json:"geometry"`
	WeightG         *float64       `json:"weight_g,omitempty"`
	VolumeCM3       *float64       `json:"volume_cm3,omitempty"`
	WallThicknessMM *float64       `json:"wall_thickness_mm,omitempty"`
	FlowLengthMM    *float64       `json:"flow_length_mm,omitempty"` // max flow length from gate
	DepthMM         *float64       `json:"depth_mm,omitempty"`       // part height in opening direction
	PeakDemand      *int           `json:"peak_demand,omitempty"`    // pieces per year
	LifetimeDemand  *int           `json:"lifetime_demand,omitempty"`
	AnnualDemands   []AnnualDemand `json:"annual_demands,omitempty"`
	SurfaceFinish   SurfaceFinish  `json:"surface_finish,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Outline         Outline        `json:"outline,omitempty"` // footprint imported from DXF
}

// NewPart creates a direct-geometry part with a generated ID.
func NewPart(name string) Part {
	return Part{
		ID:       newID(),
		Name:     name,
		Geometry: Geometry{Mode: GeometryDirect},
	}
}

// TotalDemand returns the part's lifetime demand: the sum of its per-year
// volumes when a breakdown exists, else the stored lifetime figure.
func (p Part) TotalDemand() (int, bool) {
	if len(p.AnnualDemands) > 0 {
		total, found := 0, false
		for _, d := range p.AnnualDemands {
			if d.Volume != nil {
				total += *d.Volume
				found = true
			}
		}
		if found {
			return total, true
		}
	}
	if p.LifetimeDemand != nil {
		return *p.LifetimeDemand, true
	}
	return 0, false
}

// YearlyDemand returns the demand used for per-year capacity checks: the peak
// annual figure, else the largest per-year volume.
func (p Part) YearlyDemand() (int, bool) {
	if p.PeakDemand != nil && *p.PeakDemand > 0 {
		return *p.PeakDemand, true
	}
	best, found := 0, false
	for _, d := range p.AnnualDemands {
		if d.Volume != nil && *d.Volume > best {
			best = *d.Volume
			found = true
		}
	}
	return best, found
}

// MissingFields lists the data a part needs before it can be quoted: a name,
// a volume, a material and some demand figure. A complete part returns nil.
func (p Part) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if _, ok := Positive(p.VolumeCM3); !ok {
		missing = append(missing, "volume")
	}
	if p.MaterialID == "" {
		missing = append(missing, "material")
	}
	total, hasTotal := p.TotalDemand()
	yearly, hasYearly := p.YearlyDemand()
	if !(hasTotal && total > 0) && !(hasYearly && yearly > 0) {
		missing = append(missing, "demand")
	}
	return missing
}

// RFQStatus is the lifecycle state of a quote request.
type RFQStatus string

const (
	StatusDraft   RFQStatus = "draft"
	StatusQuoted  RFQStatus = "quoted"
	StatusOrdered RFQStatus = "ordered"
	StatusClosed  RFQStatus = "closed"
)

// RFQStatuses lists statuses in lifecycle order for UI dropdowns.
var RFQStatuses = []RFQStatus{StatusDraft, StatusQuoted, StatusOrdered, StatusClosed}

func (s RFQStatus) String() string {
	switch s {
	case StatusQuoted:
		return "Quoted"
	case StatusOrdered:
		return "Ordered"
	case StatusClosed:
		return "Closed"
	default:
		return "Draft"
	}
}

// ParseRFQStatus maps a display or stored value back to a status.
func ParseRFQStatus(s string) RFQStatus {
	for _, st := range RFQStatuses {
		if string(st) == s || st.String() == s {
			return st
		}
	}
	return StatusDraft
}

// Project is an RFQ: the customer request with its parts, tools and demand plan.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Customer   string    `json:"customer,omitempty"`
	Status     RFQStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	DemandSOP      *int       `json:"demand_sop,omitempty"` // start of production annual volume
	DemandSOPDate  *time.Time `json:"demand_sop_date,omitempty"`
	DemandEAOP     *int       `json:"demand_eaop,omitempty"` // end of adjusted operating period annual volume
	DemandEAOPDate *time.Time `json:"demand_eaop_date,omitempty"`
	FlexPercent    *float64   `json:"flex_percent,omitempty"`

	AnnualDemands []AnnualDemand `json:"annual_demands,omitempty"`
	Parts         []Part         `json:"parts"`
	Tools         []Tool         `json:"tools"`
	Notes         string         `json:"notes,omitempty"`
}

func NewProject() Project {
	now := time.Now().UTC().Truncate(time.Second)
	return Project{
		ID:          newID(),
		Name:        "Untitled RFQ",
		Status:      StatusDraft,
		CreatedAt:   now,
		ModifiedAt:  now,
		FlexPercent: Float(100),
		Parts:       []Part{},
		Tools:       []Tool{},
	}
}

// FindPart returns a pointer to the part with the given ID, or nil.
func (p *Project) FindPart(id string) *Part {
	for i := range p.Parts {
		if p.Parts[i].ID == id {
			return &p.Parts[i]
		}
	}
	return nil
}

// FindTool returns a pointer to the tool with the given ID, or nil.
func (p *Project) FindTool(id string) *Tool {
	for i := range p.Tools {
		if p.Tools[i].ID == id {
			return &p.Tools[i]
		}
	}
	return nil
}

// RemovePart deletes a part and every tool configuration that references it.
func (p *Project) RemovePart(id string) {
	parts := p.Parts[:0]
	for _, part := range p.Parts {
		if part.ID != id {
			parts = append(parts, part)
		}
	}
	p.Parts = parts
	for i := range p.Tools {
		configs := p.Tools[i].Configurations[:0]
		for _, c := range p.Tools[i].Configurations {
			if c.PartID != id {
				configs = append(configs, c)
			}
		}
		p.Tools[i].Configurations = configs
		if p.Tools[i].LegacyPartID == id {
			p.Tools[i].LegacyPartID = ""
		}
	}
}

// DemandWindow returns the SOP and EAOP volumes, falling back to the first
// and last per-year entries of the project forecast.
func (p Project) DemandWindow() (sop, eaop int, ok bool) {
	if p.DemandSOP != nil && p.DemandEAOP != nil {
		return *p.DemandSOP, *p.DemandEAOP, true
	}
	var first, last *AnnualDemand
	for i := range p.AnnualDemands {
		d := &p.AnnualDemands[i]
		if d.Volume == nil {
			continue
		}
		if first == nil || d.Year < first.Year {
			first = d
		}
		if last == nil || d.Year > last.Year {
			last = d
		}
	}
	if first == nil {
		return 0, 0, false
	}
	return *first.Volume, *last.Volume, true
}
