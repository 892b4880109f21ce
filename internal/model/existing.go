package model

import (
	"strings"
	"time"
)

// ExistingTool is a reference record of a previously built tool, kept for
// price and experience lookups. It is not linked to any RFQ.
type ExistingTool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Part characteristics
	PartType         string   `json:"part_type,omitempty"`
	PartWeightG      *float64 `json:"part_weight_g,omitempty"`
	PartVolumeCM3    *float64 `json:"part_volume_cm3,omitempty"`
	ProjectedAreaCM2 *float64 `json:"projected_area_cm2,omitempty"`

	// Tool characteristics
	Complexity      *int            `json:"complexity_rating,omitempty"`
	Cavities        int             `json:"cavities"`
	SlidersCount    int             `json:"sliders_count"`
	LiftersCount    int             `json:"lifters_count"`
	SurfaceFinish   SurfaceFinish   `json:"surface_finish,omitempty"`
	InjectionSystem InjectionSystem `json:"injection_system,omitempty"`
	TechnologyNotes string          `json:"technology_notes,omitempty"`

	LengthMM      *float64 `json:"tool_length_mm,omitempty"`
	WidthMM       *float64 `json:"tool_width_mm,omitempty"`
	HeightMM      *float64 `json:"tool_height_mm,omitempty"`
	SteelWeightKG *float64 `json:"steel_weight_kg,omitempty"`

	SupplierName    string     `json:"supplier_name,omitempty"`
	SupplierCountry string     `json:"supplier_country,omitempty"`
	ActualPrice     *float64   `json:"actual_price,omitempty"`
	PriceDate       *time.Time `json:"price_date,omitempty"`
	Currency        string     `json:"currency"`

	Issues         string `json:"issues,omitempty"`
	LessonsLearned string `json:"lessons_learned,omitempty"`

	TagList   string    `json:"tags,omitempty"` // comma-separated
	CreatedAt time.Time `json:"created_at"`
}

// NewExistingTool creates a reference record with a generated ID.
func NewExistingTool(name string) ExistingTool {
	return ExistingTool{
		ID:        newID(),
		Name:      name,
		Cavities:  1,
		Currency:  "EUR",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Tags returns the trimmed, non-empty tags.
func (t ExistingTool) Tags() []string {
	var tags []string
	for _, tag := range strings.Split(t.TagList, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// SetTags stores tags as a comma-separated list.
func (t *ExistingTool) SetTags(tags []string) {
	t.TagList = strings.Join(tags, ", ")
}

// HasTag reports whether the tool carries tag, ignoring case.
func (t ExistingTool) HasTag(tag string) bool {
	for _, have := range t.Tags() {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}
