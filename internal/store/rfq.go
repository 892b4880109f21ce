package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// RFQSummary is the list view of a stored RFQ.
type RFQSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Customer   string          `json:"customer,omitempty"`
	Status     model.RFQStatus `json:"status"`
	ModifiedAt time.Time       `json:"modified_at"`
	PartCount  int             `json:"part_count"`
	ToolCount  int             `json:"tool_count"`
}

// SaveProject stores an RFQ with its parts, tools, configurations and demand
// forecasts in one transaction, replacing any previous version. Every changed
// part field is recorded as a revision attributed to changedBy.
func (s *Store) SaveProject(ctx context.Context, p model.Project, changedBy string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer tx.Rollback()

	previous, err := loadParts(ctx, tx, p.ID)
	if err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.ModifiedAt.IsZero() {
		p.ModifiedAt = p.CreatedAt
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rfqs (id, name, customer, status, created_at, modified_at,
			demand_sop, demand_sop_date, demand_eaop, demand_eaop_date, flex_percent, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			customer = excluded.customer,
			status = excluded.status,
			modified_at = excluded.modified_at,
			demand_sop = excluded.demand_sop,
			demand_sop_date = excluded.demand_sop_date,
			demand_eaop = excluded.demand_eaop,
			demand_eaop_date = excluded.demand_eaop_date,
			flex_percent = excluded.flex_percent,
			notes = excluded.notes
	`, p.ID, p.Name, p.Customer, string(p.Status), formatTime(p.CreatedAt), formatTime(p.ModifiedAt),
		nullable(p.DemandSOP), formatTimePtr(p.DemandSOPDate), nullable(p.DemandEAOP),
		formatTimePtr(p.DemandEAOPDate), nullable(p.FlexPercent), p.Notes); err != nil {
		return fmt.Errorf("save rfq %q: %w", p.Name, err)
	}

	// Children are replaced wholesale.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM tool_part_configurations
		WHERE tool_id IN (SELECT id FROM tools WHERE rfq_id = ?)`, p.ID); err != nil {
		return fmt.Errorf("clear configurations of rfq %s: %w", p.ID, err)
	}
	for _, table := range []string{"tools", "parts", "annual_demands"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE rfq_id = ?`, p.ID); err != nil {
			return fmt.Errorf("clear %s of rfq %s: %w", table, p.ID, err)
		}
	}

	if err := insertDemands(ctx, tx, p.ID, "", p.AnnualDemands); err != nil {
		return err
	}
	for i, part := range p.Parts {
		if err := insertPart(ctx, tx, p.ID, i, part); err != nil {
			return err
		}
		if err := insertDemands(ctx, tx, p.ID, part.ID, part.AnnualDemands); err != nil {
			return err
		}
		var old *model.Part
		if prev, ok := previous[part.ID]; ok {
			old = &prev
		}
		for _, rev := range model.DiffPart(old, part, changedBy) {
			if err := insertRevision(ctx, tx, rev); err != nil {
				return err
			}
		}
	}
	for i, tool := range p.Tools {
		if err := insertTool(ctx, tx, p.ID, i, tool); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}
	return nil
}

func insertDemands(ctx context.Context, tx *sql.Tx, rfqID, partID string, demands []model.AnnualDemand) error {
	for _, d := range demands {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO annual_demands (rfq_id, part_id, year, volume, flex_percent)
			VALUES (?, ?, ?, ?, ?)
		`, rfqID, partID, d.Year, nullable(d.Volume), nullable(d.FlexPercent)); err != nil {
			return fmt.Errorf("save demand for year %d: %w", d.Year, err)
		}
	}
	return nil
}

const partColumns = `id, name, part_number, material_id, geometry_mode, area_cm2,
	box_length_mm, box_width_mm, box_effective_percent, weight_g, volume_cm3,
	wall_thickness_mm, flow_length_mm, depth_mm, peak_demand, lifetime_demand,
	surface_finish, notes, outline`

func insertPart(ctx context.Context, tx *sql.Tx, rfqID string, position int, p model.Part) error {
	outline := ""
	if len(p.Outline) > 0 {
		data, err := json.Marshal(p.Outline)
		if err != nil {
			return fmt.Errorf("encode outline of part %q: %w", p.Name, err)
		}
		outline = string(data)
	}
	g := p.Geometry
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO parts (rfq_id, position, `+partColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rfqID, position, p.ID, p.Name, p.PartNumber, p.MaterialID, string(g.Mode), nullable(g.AreaCM2),
		nullable(g.BoxLengthMM), nullable(g.BoxWidthMM), nullable(g.BoxEffectivePercent),
		nullable(p.WeightG), nullable(p.VolumeCM3), nullable(p.WallThicknessMM),
		nullable(p.FlowLengthMM), nullable(p.DepthMM), nullable(p.PeakDemand),
		nullable(p.LifetimeDemand), string(p.SurfaceFinish), p.Notes, outline); err != nil {
		return fmt.Errorf("save part %q: %w", p.Name, err)
	}
	return nil
}

const toolColumns = `id, name, tool_type, injection_system, injection_points, nozzle_type,
	surface_finish, material_id, manual_pressure_bar, use_max_pressure, cycle_time_s,
	tool_width_mm, tool_height_mm, tool_length_mm, machine_id, cavities, lifters_count,
	sliders_count, legacy_part_id, price_enquiry, price_estimated, price_final,
	supplier_name, supplier_country, complexity_rating, notes`

func insertTool(ctx context.Context, tx *sql.Tx, rfqID string, position int, t model.Tool) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tools (rfq_id, position, `+toolColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rfqID, position, t.ID, t.Name, string(t.Type), string(t.InjectionSystem),
		nullable(t.InjectionPoints), string(t.NozzleType), string(t.SurfaceFinish), t.MaterialID,
		nullable(t.ManualPressureBar), t.UseMaxPressure, nullable(t.CycleTimeS),
		nullable(t.WidthMM), nullable(t.HeightMM), nullable(t.LengthMM), t.MachineID,
		t.Cavities, t.LiftersCount, t.SlidersCount, t.LegacyPartID,
		nullable(t.PriceEnquiry), nullable(t.PriceEstimated), nullable(t.PriceFinal),
		t.SupplierName, t.SupplierCountry, nullable(t.Complexity), t.Notes); err != nil {
		return fmt.Errorf("save tool %q: %w", t.Name, err)
	}

	for _, c := range t.Configurations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tool_part_configurations (id, tool_id, part_id, cavities,
				lifters_count, sliders_count, config_group_id, position, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, t.ID, c.PartID, c.Cavities, c.LiftersCount, c.SlidersCount,
			nullable(c.GroupID), nullable(c.Position), c.Notes); err != nil {
			return fmt.Errorf("save configuration of tool %q: %w", t.Name, err)
		}
	}
	return nil
}

// queryer is the read subset of *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadParts(ctx context.Context, q queryer, rfqID string) (map[string]model.Part, error) {
	parts, err := listParts(ctx, q, rfqID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Part, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}
	return byID, nil
}

func listParts(ctx context.Context, q queryer, rfqID string) ([]model.Part, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+partColumns+` FROM parts WHERE rfq_id = ? ORDER BY position`, rfqID)
	if err != nil {
		return nil, fmt.Errorf("list parts of rfq %s: %w", rfqID, err)
	}
	defer rows.Close()

	parts := []model.Part{}
	for rows.Next() {
		var (
			p       model.Part
			mode    string
			finish  string
			outline string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.PartNumber, &p.MaterialID, &mode, &p.Geometry.AreaCM2,
			&p.Geometry.BoxLengthMM, &p.Geometry.BoxWidthMM, &p.Geometry.BoxEffectivePercent,
			&p.WeightG, &p.VolumeCM3, &p.WallThicknessMM, &p.FlowLengthMM, &p.DepthMM,
			&p.PeakDemand, &p.LifetimeDemand, &finish, &p.Notes, &outline); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		p.Geometry.Mode = model.GeometryMode(mode)
		p.SurfaceFinish = model.SurfaceFinish(finish)
		if outline != "" {
			if err := json.Unmarshal([]byte(outline), &p.Outline); err != nil {
				return nil, fmt.Errorf("decode outline of part %q: %w", p.Name, err)
			}
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func listTools(ctx context.Context, q queryer, rfqID string) ([]model.Tool, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+toolColumns+` FROM tools WHERE rfq_id = ? ORDER BY position`, rfqID)
	if err != nil {
		return nil, fmt.Errorf("list tools of rfq %s: %w", rfqID, err)
	}
	defer rows.Close()

	tools := []model.Tool{}
	for rows.Next() {
		var (
			t                              model.Tool
			toolType, system, nozzle, surf string
		)
		if err := rows.Scan(&t.ID, &t.Name, &toolType, &system, &t.InjectionPoints, &nozzle,
			&surf, &t.MaterialID, &t.ManualPressureBar, &t.UseMaxPressure, &t.CycleTimeS,
			&t.WidthMM, &t.HeightMM, &t.LengthMM, &t.MachineID, &t.Cavities, &t.LiftersCount,
			&t.SlidersCount, &t.LegacyPartID, &t.PriceEnquiry, &t.PriceEstimated, &t.PriceFinal,
			&t.SupplierName, &t.SupplierCountry, &t.Complexity, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		t.Type = model.ToolType(toolType)
		t.InjectionSystem = model.InjectionSystem(system)
		t.NozzleType = model.NozzleType(nozzle)
		t.SurfaceFinish = model.SurfaceFinish(surf)
		t.Configurations = []model.ToolPartConfiguration{}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range tools {
		configs, err := listConfigurations(ctx, q, tools[i].ID)
		if err != nil {
			return nil, err
		}
		tools[i].Configurations = configs
	}
	return tools, nil
}

func listConfigurations(ctx context.Context, q queryer, toolID string) ([]model.ToolPartConfiguration, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, part_id, cavities, lifters_count, sliders_count, config_group_id, position, notes
		FROM tool_part_configurations WHERE tool_id = ?
		ORDER BY position IS NULL, position, rowid`, toolID)
	if err != nil {
		return nil, fmt.Errorf("list configurations of tool %s: %w", toolID, err)
	}
	defer rows.Close()

	configs := []model.ToolPartConfiguration{}
	for rows.Next() {
		var c model.ToolPartConfiguration
		if err := rows.Scan(&c.ID, &c.PartID, &c.Cavities, &c.LiftersCount, &c.SlidersCount,
			&c.GroupID, &c.Position, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func listDemands(ctx context.Context, q queryer, rfqID string) (map[string][]model.AnnualDemand, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT part_id, year, volume, flex_percent FROM annual_demands
		WHERE rfq_id = ? ORDER BY part_id, year`, rfqID)
	if err != nil {
		return nil, fmt.Errorf("list demands of rfq %s: %w", rfqID, err)
	}
	defer rows.Close()

	byPart := map[string][]model.AnnualDemand{}
	for rows.Next() {
		var (
			partID string
			d      model.AnnualDemand
		)
		if err := rows.Scan(&partID, &d.Year, &d.Volume, &d.FlexPercent); err != nil {
			return nil, fmt.Errorf("scan demand: %w", err)
		}
		byPart[partID] = append(byPart[partID], d)
	}
	return byPart, rows.Err()
}

// Project loads a complete RFQ.
func (s *Store) Project(ctx context.Context, id string) (model.Project, error) {
	var (
		p                 model.Project
		status            string
		created, modified string
		sopDate, eaopDate *string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, customer, status, created_at, modified_at, demand_sop, demand_sop_date,
			demand_eaop, demand_eaop_date, flex_percent, notes
		FROM rfqs WHERE id = ?`, id).Scan(&p.ID, &p.Name, &p.Customer, &status, &created, &modified,
		&p.DemandSOP, &sopDate, &p.DemandEAOP, &eaopDate, &p.FlexPercent, &p.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("rfq %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("load rfq %s: %w", id, err)
	}

	p.Status = model.ParseRFQStatus(status)
	if p.CreatedAt, err = parseTime(created); err != nil {
		return model.Project{}, err
	}
	if p.ModifiedAt, err = parseTime(modified); err != nil {
		return model.Project{}, err
	}
	if p.DemandSOPDate, err = parseTimePtr(sopDate); err != nil {
		return model.Project{}, err
	}
	if p.DemandEAOPDate, err = parseTimePtr(eaopDate); err != nil {
		return model.Project{}, err
	}

	if p.Parts, err = listParts(ctx, s.db, id); err != nil {
		return model.Project{}, err
	}
	if p.Tools, err = listTools(ctx, s.db, id); err != nil {
		return model.Project{}, err
	}
	demands, err := listDemands(ctx, s.db, id)
	if err != nil {
		return model.Project{}, err
	}
	p.AnnualDemands = demands[""]
	for i := range p.Parts {
		p.Parts[i].AnnualDemands = demands[p.Parts[i].ID]
	}
	return p, nil
}

// Projects lists RFQ summaries, most recently modified first. A non-empty
// status filters the list.
func (s *Store) Projects(ctx context.Context, status model.RFQStatus) ([]RFQSummary, error) {
	query := `
		SELECT r.id, r.name, r.customer, r.status, r.modified_at,
			(SELECT COUNT(*) FROM parts WHERE rfq_id = r.id),
			(SELECT COUNT(*) FROM tools WHERE rfq_id = r.id)
		FROM rfqs r`
	var args []any
	if status != "" {
		query += ` WHERE r.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY r.modified_at DESC, r.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rfqs: %w", err)
	}
	defer rows.Close()

	summaries := []RFQSummary{}
	for rows.Next() {
		var (
			sum          RFQSummary
			st, modified string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Customer, &st, &modified,
			&sum.PartCount, &sum.ToolCount); err != nil {
			return nil, fmt.Errorf("scan rfq summary: %w", err)
		}
		sum.Status = model.ParseRFQStatus(st)
		if sum.ModifiedAt, err = parseTime(modified); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteProject removes an RFQ with its parts and tools. Part revisions are kept.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rfqs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rfq %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rfq %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("rfq %s: %w", id, ErrNotFound)
	}
	return nil
}
