package engine

import (
	"testing"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMaterial() *model.Material {
	m := model.NewMaterial("Test ABS", "ABS", "ABS")
	m.DensityGCM3 = model.Float(1.05)
	m.PressureMinBar = model.Float(400)
	m.PressureMaxBar = model.Float(600)
	return &m
}

func partWithArea(name string, area float64) model.Part {
	p := model.NewPart(name)
	p.Geometry = model.DirectGeometry(area)
	return p
}

func assign(p model.Part, cavities int) model.Assignment {
	return model.Assignment{Config: model.NewToolPartConfiguration(p.ID, cavities), Part: p}
}

func resolved(tool model.Tool, material *model.Material, assignments ...model.Assignment) model.ResolvedTool {
	for _, a := range assignments {
		tool.Configurations = append(tool.Configurations, a.Config)
	}
	return model.ResolvedTool{Tool: tool, Assignments: assignments, Material: material}
}

func TestClampingForceScenario(t *testing.T) {
	assert.Equal(t, 1800.0, ClampingForce(150, 500, 2, 1.2))
}

func TestClampingForceLinearInCavities(t *testing.T) {
	for _, area := range []float64{3.3, 47, 150, 812.25} {
		for _, n := range []int{1, 2, 3, 8} {
			single := ClampingForce(area, 650, n, 1.2)
			double := ClampingForce(area, 650, 2*n, 1.2)
			assert.InDelta(t, 2*single, double, 0.1, "area=%g n=%d", area, n)
		}
	}
}

func TestResolvePressure(t *testing.T) {
	mat := testMaterial()

	p, src, err := ResolvePressure(mat, model.Float(750), true)
	require.NoError(t, err)
	assert.Equal(t, 750.0, p)
	assert.Equal(t, PressureManual, src)

	p, src, err = ResolvePressure(mat, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 500.0, p)
	assert.Equal(t, PressureMaterialAvg, src)

	p, src, err = ResolvePressure(mat, model.Float(0), true)
	require.NoError(t, err)
	assert.Equal(t, 600.0, p)
	assert.Equal(t, PressureMaterialMax, src)

	_, _, err = ResolvePressure(nil, nil, false)
	assert.ErrorIs(t, err, ErrNoPressureData)

	empty := model.NewMaterial("Unknown", "X", "X")
	_, _, err = ResolvePressure(&empty, nil, true)
	assert.ErrorIs(t, err, ErrNoPressureData)
}

func TestToolClampingForceFamily(t *testing.T) {
	a := partWithArea("A", 150)
	b := model.NewPart("B")
	b.Geometry = model.BoxGeometry(200, 75, 50)
	c := model.NewPart("C")

	rt := resolved(model.NewTool("Family"), testMaterial(), assign(a, 2), assign(b, 4), assign(c, 1))
	res, err := ToolClampingForce(rt, model.DefaultPolicy().Clamping)
	require.NoError(t, err)

	assert.Equal(t, 3600.0, res.ForceKN)
	assert.Equal(t, 500.0, res.PressureBar)
	assert.Equal(t, PressureMaterialAvg, res.PressureSource)
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, 1800.0, res.Breakdown[0].ForceKN)
	assert.Equal(t, 75.0, res.Breakdown[1].AreaCM2)
	assert.Equal(t, []string{"C"}, res.Skipped)
	assert.Contains(t, res.Notes, "Pressure source: material avg (400-600 bar)")
	assert.Contains(t, res.Notes, "A (2x): 1800 kN")
}

func TestToolClampingForceLegacy(t *testing.T) {
	part := partWithArea("Legacy", 100)
	tool := model.NewTool("Old")
	tool.Cavities = 4
	tool.ManualPressureBar = model.Float(500)
	rt := model.ResolvedTool{Tool: tool, LegacyPart: &part}

	res, err := ToolClampingForce(rt, model.DefaultPolicy().Clamping)
	require.NoError(t, err)
	assert.Equal(t, 2400.0, res.ForceKN)
	assert.Equal(t, PressureManual, res.PressureSource)
}

func TestToolClampingForceErrors(t *testing.T) {
	policy := model.DefaultPolicy().Clamping

	_, err := ToolClampingForce(model.ResolvedTool{Tool: model.NewTool("Empty"), Material: testMaterial()}, policy)
	assert.ErrorIs(t, err, ErrUndefinedTool)

	noArea := model.NewPart("No area")
	_, err = ToolClampingForce(model.ResolvedTool{Tool: model.NewTool("Legacy"), LegacyPart: &noArea, Material: testMaterial()}, policy)
	assert.ErrorIs(t, err, ErrUndefinedTool)

	rt := resolved(model.NewTool("No material"), nil, assign(partWithArea("A", 10), 1))
	_, err = ToolClampingForce(rt, policy)
	assert.ErrorIs(t, err, ErrNoPressureData)

	rt = resolved(model.NewTool("No areas"), testMaterial(), assign(model.NewPart("A"), 1))
	_, err = ToolClampingForce(rt, policy)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestEstimateInjectionPressure(t *testing.T) {
	policy := model.DefaultPolicy().Clamping
	tests := []struct {
		wall, flow, want float64
	}{
		{2, 100, 750},
		{2.5, 90, 680},
		{1, 100, 2000},
		{1.5, 60, 933},
		{0.5, 200, 2500},
		{0, 100, 500},
		{-1, 100, 500},
	}
	for _, tt := range tests {
		got := EstimateInjectionPressure(tt.wall, tt.flow, policy)
		if got != tt.want {
			t.Errorf("wall=%g flow=%g: expected %g, got %g", tt.wall, tt.flow, tt.want, got)
		}
	}
}

func TestRecommendMachineSize(t *testing.T) {
	policy := model.DefaultPolicy().Clamping

	rec := RecommendMachineSize(1800, policy)
	assert.Equal(t, "250t", rec.Label)
	assert.Equal(t, 250.0, rec.SizeTonnes)
	assert.Equal(t, 180.0, rec.RequiredTonnes)

	assert.Equal(t, "50t", RecommendMachineSize(400, policy).Label)

	rec = RecommendMachineSize(20000, policy)
	assert.True(t, rec.Special)
	assert.Equal(t, ">2000t (special machine required)", rec.Label)
	assert.Zero(t, rec.SizeTonnes)
}
