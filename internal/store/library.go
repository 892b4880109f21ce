package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/piwi3910/MoldQuote/internal/model"
)

const materialColumns = `id, name, short_name, family, density_g_cm3,
	shrinkage_min_percent, shrinkage_max_percent, melt_temp_min_c, melt_temp_max_c,
	mold_temp_min_c, mold_temp_max_c, specific_pressure_min_bar, specific_pressure_max_bar,
	flow_length_ratio, notes, is_preset`

const machineColumns = `id, name, manufacturer, clamping_force_kn, shot_weight_g,
	injection_pressure_bar, barrel_volume_cm3, screw_diameter_mm, max_injection_stroke_mm,
	platen_width_mm, platen_height_mm, tie_bar_spacing_h_mm, tie_bar_spacing_v_mm,
	min_mold_height_mm, max_mold_height_mm, max_opening_stroke_mm, notes, is_preset`

type scanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row scanner) (model.Material, error) {
	var m model.Material
	err := row.Scan(&m.ID, &m.Name, &m.ShortName, &m.Family, &m.DensityGCM3,
		&m.ShrinkageMinPercent, &m.ShrinkageMaxPercent, &m.MeltTempMinC, &m.MeltTempMaxC,
		&m.MoldTempMinC, &m.MoldTempMaxC, &m.PressureMinBar, &m.PressureMaxBar,
		&m.FlowLengthRatio, &m.Notes, &m.IsPreset)
	return m, err
}

func scanMachine(row scanner) (model.Machine, error) {
	var m model.Machine
	err := row.Scan(&m.ID, &m.Name, &m.Manufacturer, &m.ClampingForceKN, &m.ShotWeightG,
		&m.InjectionPressureBar, &m.BarrelVolumeCM3, &m.ScrewDiameterMM, &m.MaxInjectionStrokeMM,
		&m.PlatenWidthMM, &m.PlatenHeightMM, &m.TieBarSpacingHMM, &m.TieBarSpacingVMM,
		&m.MinMoldHeightMM, &m.MaxMoldHeightMM, &m.MaxOpeningMM, &m.Notes, &m.IsPreset)
	return m, err
}

func upsertMaterial(ctx context.Context, db execer, m model.Material) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO materials (`+materialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			short_name = excluded.short_name,
			family = excluded.family,
			density_g_cm3 = excluded.density_g_cm3,
			shrinkage_min_percent = excluded.shrinkage_min_percent,
			shrinkage_max_percent = excluded.shrinkage_max_percent,
			melt_temp_min_c = excluded.melt_temp_min_c,
			melt_temp_max_c = excluded.melt_temp_max_c,
			mold_temp_min_c = excluded.mold_temp_min_c,
			mold_temp_max_c = excluded.mold_temp_max_c,
			specific_pressure_min_bar = excluded.specific_pressure_min_bar,
			specific_pressure_max_bar = excluded.specific_pressure_max_bar,
			flow_length_ratio = excluded.flow_length_ratio,
			notes = excluded.notes,
			is_preset = excluded.is_preset
	`, m.ID, m.Name, m.ShortName, m.Family, nullable(m.DensityGCM3),
		nullable(m.ShrinkageMinPercent), nullable(m.ShrinkageMaxPercent),
		nullable(m.MeltTempMinC), nullable(m.MeltTempMaxC),
		nullable(m.MoldTempMinC), nullable(m.MoldTempMaxC),
		nullable(m.PressureMinBar), nullable(m.PressureMaxBar),
		nullable(m.FlowLengthRatio), m.Notes, m.IsPreset)
	if err != nil {
		return fmt.Errorf("save material %q: %w", m.Name, err)
	}
	return nil
}

func upsertMachine(ctx context.Context, db execer, m model.Machine) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO machines (`+machineColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			manufacturer = excluded.manufacturer,
			clamping_force_kn = excluded.clamping_force_kn,
			shot_weight_g = excluded.shot_weight_g,
			injection_pressure_bar = excluded.injection_pressure_bar,
			barrel_volume_cm3 = excluded.barrel_volume_cm3,
			screw_diameter_mm = excluded.screw_diameter_mm,
			max_injection_stroke_mm = excluded.max_injection_stroke_mm,
			platen_width_mm = excluded.platen_width_mm,
			platen_height_mm = excluded.platen_height_mm,
			tie_bar_spacing_h_mm = excluded.tie_bar_spacing_h_mm,
			tie_bar_spacing_v_mm = excluded.tie_bar_spacing_v_mm,
			min_mold_height_mm = excluded.min_mold_height_mm,
			max_mold_height_mm = excluded.max_mold_height_mm,
			max_opening_stroke_mm = excluded.max_opening_stroke_mm,
			notes = excluded.notes,
			is_preset = excluded.is_preset
	`, m.ID, m.Name, m.Manufacturer, nullable(m.ClampingForceKN), nullable(m.ShotWeightG),
		nullable(m.InjectionPressureBar), nullable(m.BarrelVolumeCM3),
		nullable(m.ScrewDiameterMM), nullable(m.MaxInjectionStrokeMM),
		nullable(m.PlatenWidthMM), nullable(m.PlatenHeightMM),
		nullable(m.TieBarSpacingHMM), nullable(m.TieBarSpacingVMM),
		nullable(m.MinMoldHeightMM), nullable(m.MaxMoldHeightMM),
		nullable(m.MaxOpeningMM), m.Notes, m.IsPreset)
	if err != nil {
		return fmt.Errorf("save machine %q: %w", m.Name, err)
	}
	return nil
}

// SaveMaterial inserts or replaces a material by ID.
func (s *Store) SaveMaterial(ctx context.Context, m model.Material) error {
	return upsertMaterial(ctx, s.db, m)
}

// SaveMachine inserts or replaces a machine by ID.
func (s *Store) SaveMachine(ctx context.Context, m model.Machine) error {
	return upsertMachine(ctx, s.db, m)
}

// Material returns the material with the given ID.
func (s *Store) Material(ctx context.Context, id string) (model.Material, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id)
	m, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Material{}, fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Material{}, fmt.Errorf("load material %s: %w", id, err)
	}
	return m, nil
}

// Machine returns the machine with the given ID.
func (s *Store) Machine(ctx context.Context, id string) (model.Machine, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+machineColumns+` FROM machines WHERE id = ?`, id)
	m, err := scanMachine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Machine{}, fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Machine{}, fmt.Errorf("load machine %s: %w", id, err)
	}
	return m, nil
}

// Materials lists all materials ordered by name.
func (s *Store) Materials(ctx context.Context) ([]model.Material, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	materials := []model.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// Machines lists all machines ordered by clamping force, unknown forces last.
func (s *Store) Machines(ctx context.Context) ([]model.Machine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+machineColumns+` FROM machines
		ORDER BY clamping_force_kn IS NULL, clamping_force_kn, name`)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()

	machines := []model.Machine{}
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// Library loads every material and machine.
func (s *Store) Library(ctx context.Context) (model.Library, error) {
	materials, err := s.Materials(ctx)
	if err != nil {
		return model.Library{}, err
	}
	machines, err := s.Machines(ctx)
	if err != nil {
		return model.Library{}, err
	}
	return model.Library{Materials: materials, Machines: machines}, nil
}

// DeleteMaterial removes a material. Preset materials cannot be deleted.
func (s *Store) DeleteMaterial(ctx context.Context, id string) error {
	return s.deleteLibraryRecord(ctx, "materials", id)
}

// DeleteMachine removes a machine. Preset machines cannot be deleted.
func (s *Store) DeleteMachine(ctx context.Context, id string) error {
	return s.deleteLibraryRecord(ctx, "machines", id)
}

// ErrPreset is returned when deleting a preset library record.
var ErrPreset = errors.New("preset records cannot be deleted")

func (s *Store) deleteLibraryRecord(ctx context.Context, table, id string) error {
	var preset bool
	err := s.db.QueryRowContext(ctx, `SELECT is_preset FROM `+table+` WHERE id = ?`, id).Scan(&preset)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s %s: %w", table, id, err)
	}
	if preset {
		return fmt.Errorf("delete %s %s: %w", table, id, ErrPreset)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	return nil
}
