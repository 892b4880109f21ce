package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/piwi3910/MoldQuote/internal/model"
)

const existingToolColumns = `id, name, description, part_type, part_weight_g, part_volume_cm3,
	projected_area_cm2, complexity_rating, cavities, sliders_count, lifters_count,
	surface_finish, injection_system, technology_notes, tool_length_mm, tool_width_mm,
	tool_height_mm, steel_weight_kg, supplier_name, supplier_country, actual_price,
	price_date, currency, issues, lessons_learned, tags, created_at`

// SaveExistingTool inserts or replaces a reference tool by ID.
func (s *Store) SaveExistingTool(ctx context.Context, t model.ExistingTool) error {
	if t.Currency == "" {
		t.Currency = "EUR"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO existing_tools (`+existingToolColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, t.PartType, nullable(t.PartWeightG), nullable(t.PartVolumeCM3),
		nullable(t.ProjectedAreaCM2), nullable(t.Complexity), t.Cavities, t.SlidersCount,
		t.LiftersCount, string(t.SurfaceFinish), string(t.InjectionSystem), t.TechnologyNotes,
		nullable(t.LengthMM), nullable(t.WidthMM), nullable(t.HeightMM), nullable(t.SteelWeightKG),
		t.SupplierName, t.SupplierCountry, nullable(t.ActualPrice), formatTimePtr(t.PriceDate),
		t.Currency, t.Issues, t.LessonsLearned, t.TagList, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("save existing tool %q: %w", t.Name, err)
	}
	return nil
}

// ExistingTools lists reference tools, newest first. A non-empty tag keeps
// only tools carrying that tag, ignoring case.
func (s *Store) ExistingTools(ctx context.Context, tag string) ([]model.ExistingTool, error) {
	query := `SELECT ` + existingToolColumns + ` FROM existing_tools`
	var args []any
	tag = strings.TrimSpace(tag)
	if tag != "" {
		// Coarse match in SQL, exact tag match below.
		query += ` WHERE lower(tags) LIKE ?`
		args = append(args, "%"+strings.ToLower(tag)+"%")
	}
	query += ` ORDER BY created_at DESC, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list existing tools: %w", err)
	}
	defer rows.Close()

	tools := []model.ExistingTool{}
	for rows.Next() {
		var (
			t              model.ExistingTool
			finish, system string
			priceDate      *string
			created        string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.PartType, &t.PartWeightG,
			&t.PartVolumeCM3, &t.ProjectedAreaCM2, &t.Complexity, &t.Cavities, &t.SlidersCount,
			&t.LiftersCount, &finish, &system, &t.TechnologyNotes, &t.LengthMM, &t.WidthMM,
			&t.HeightMM, &t.SteelWeightKG, &t.SupplierName, &t.SupplierCountry, &t.ActualPrice,
			&priceDate, &t.Currency, &t.Issues, &t.LessonsLearned, &t.TagList, &created); err != nil {
			return nil, fmt.Errorf("scan existing tool: %w", err)
		}
		t.SurfaceFinish = model.SurfaceFinish(finish)
		t.InjectionSystem = model.InjectionSystem(system)
		if t.PriceDate, err = parseTimePtr(priceDate); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if tag != "" && !t.HasTag(tag) {
			continue
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}
