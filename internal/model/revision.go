package model

import (
	"strconv"
	"time"
)

// Revision change types.
const (
	ChangeInitial  = "initial_creation"
	ChangeValue    = "value"
	ChangeGeometry = "geometry"
)

// PartRevision is one audit entry for a changed part field.
type PartRevision struct {
	PartID    string    `json:"part_id"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy string    `json:"changed_by"`
	Field     string    `json:"field_name"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Type      string    `json:"change_type"`
	Notes     string    `json:"notes,omitempty"`
}

func fmtFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func fmtInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// partFields flattens the audited fields of a part, in a stable order.
func partFields(p Part) [][3]string {
	return [][3]string{
		{"name", p.Name, ChangeValue},
		{"part_number", p.PartNumber, ChangeValue},
		{"material_id", p.MaterialID, ChangeValue},
		{"geometry_mode", string(p.Geometry.Mode), ChangeGeometry},
		{"projected_area_cm2", fmtFloat(p.Geometry.AreaCM2), ChangeGeometry},
		{"box_length_mm", fmtFloat(p.Geometry.BoxLengthMM), ChangeGeometry},
		{"box_width_mm", fmtFloat(p.Geometry.BoxWidthMM), ChangeGeometry},
		{"box_effective_percent", fmtFloat(p.Geometry.BoxEffectivePercent), ChangeGeometry},
		{"weight_g", fmtFloat(p.WeightG), ChangeValue},
		{"volume_cm3", fmtFloat(p.VolumeCM3), ChangeValue},
		{"wall_thickness_mm", fmtFloat(p.WallThicknessMM), ChangeValue},
		{"flow_length_mm", fmtFloat(p.FlowLengthMM), ChangeValue},
		{"depth_mm", fmtFloat(p.DepthMM), ChangeValue},
		{"peak_demand", fmtInt(p.PeakDemand), ChangeValue},
		{"lifetime_demand", fmtInt(p.LifetimeDemand), ChangeValue},
		{"surface_finish", string(p.SurfaceFinish), ChangeValue},
		{"notes", p.Notes, ChangeValue},
	}
}

// DiffPart returns one revision per audited field that differs between old
// and updated. A nil old records every non-empty field as initial creation.
func DiffPart(old *Part, updated Part, by string) []PartRevision {
	now := time.Now().UTC().Truncate(time.Second)
	newFields := partFields(updated)
	var revs []PartRevision

	if old == nil {
		for _, f := range newFields {
			if f[1] == "" {
				continue
			}
			revs = append(revs, PartRevision{
				PartID: updated.ID, ChangedAt: now, ChangedBy: by,
				Field: f[0], NewValue: f[1], Type: ChangeInitial,
			})
		}
		return revs
	}

	oldFields := partFields(*old)
	for i, f := range newFields {
		if oldFields[i][1] == f[1] {
			continue
		}
		revs = append(revs, PartRevision{
			PartID: updated.ID, ChangedAt: now, ChangedBy: by,
			Field: f[0], OldValue: oldFields[i][1], NewValue: f[1], Type: f[2],
		})
	}
	return revs
}
