package engine

import (
	"testing"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// familyTool returns a two-part family tool needing 2250 kN at 500 bar.
func familyTool() model.ResolvedTool {
	a := partWithArea("Housing", 150)
	a.VolumeCM3 = model.Float(25)
	a.WeightG = model.Float(26.25)
	a.WallThicknessMM = model.Float(2)
	a.FlowLengthMM = model.Float(100)
	a.PeakDemand = model.Int(500_000)

	b := model.NewPart("Cover")
	b.Geometry = model.BoxGeometry(200, 75, 50)
	b.VolumeCM3 = model.Float(10)
	b.WallThicknessMM = model.Float(1.5)
	b.FlowLengthMM = model.Float(60)
	b.PeakDemand = model.Int(250_000)

	tool := model.NewTool("Family")
	tool.Type = model.ToolFamily
	tool.CycleTimeS = model.Float(20)
	tool.WidthMM = model.Float(400)
	tool.HeightMM = model.Float(380)
	tool.LengthMM = model.Float(350)
	return resolved(tool, testMaterial(), assign(a, 2), assign(b, 1))
}

func machineWithClamp(name string, kn float64) model.Machine {
	m := model.NewMachine(name, "Test")
	m.ClampingForceKN = model.Float(kn)
	m.ShotWeightG = model.Float(300)
	m.InjectionPressureBar = model.Float(2000)
	m.BarrelVolumeCM3 = model.Float(400)
	m.ScrewDiameterMM = model.Float(50)
	m.MaxInjectionStrokeMM = model.Float(120)
	m.PlatenWidthMM = model.Float(900)
	m.PlatenHeightMM = model.Float(850)
	m.TieBarSpacingHMM = model.Float(630)
	m.TieBarSpacingVMM = model.Float(560)
	m.MinMoldHeightMM = model.Float(250)
	m.MaxMoldHeightMM = model.Float(700)
	return m
}

func TestEvaluateFamilyTool(t *testing.T) {
	rt := familyTool()
	m := machineWithClamp("M300", 3000)

	r, err := Evaluate(rt, &m, model.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, "Family", r.ToolName)
	assert.Equal(t, "M300", r.MachineName)
	assert.Equal(t, 3, r.Totals.TotalCavities)

	require.Len(t, r.PartChecks, 2)
	assert.Equal(t, "Housing", r.PartChecks[0].PartName)
	assert.True(t, r.PartChecks[0].Weight.Checked)
	assert.True(t, r.PartChecks[0].Weight.Consistent)
	assert.Equal(t, 26.25, r.PartChecks[0].Weight.ExpectedWeightG)
	assert.False(t, r.PartChecks[1].Weight.Checked, "Cover has no weight")

	require.NotNil(t, r.Clamping)
	assert.Equal(t, 2250.0, r.Clamping.ForceKN)
	require.NotNil(t, r.MachineSize)
	assert.Equal(t, "320t", r.MachineSize.Label)
	require.NotNil(t, r.InjectionPressureBar)
	assert.Equal(t, 933.0, *r.InjectionPressureBar)

	assert.Equal(t, 60.0, r.ShotVolume.PartsCM3)
	assert.Equal(t, 69.0, r.ShotVolume.TotalCM3)
	assert.InDelta(t, 72.45, r.ShotWeight.TotalG, 0.01)
	require.NotNil(t, r.Barrel)
	assert.Equal(t, BarrelOK, r.Barrel.Status)
	require.NotNil(t, r.Screw)
	assert.Equal(t, ScrewOptimal, r.Screw.Status)

	require.NotNil(t, r.CycleTimeS)
	assert.Equal(t, 20.0, *r.CycleTimeS)
	assert.False(t, r.CycleTimeEstimated)
	require.Len(t, r.Demand, 2)
	for _, d := range r.Demand {
		require.NotNil(t, d.Check, d.PartName)
		assert.True(t, d.Check.Feasible)
		assert.Equal(t, 1, d.RecommendedCavities)
	}
	assert.True(t, r.Feasible())
	assert.True(t, r.Imbalance.Checked)
	assert.True(t, r.Imbalance.Balanced)

	require.NotNil(t, r.Dimensions)
	assert.False(t, r.DimensionsEstimated)
	require.NotNil(t, r.Fit)
	assert.True(t, r.Fits(), r.Fit.String())
	assert.Len(t, r.Warnings, 2, "both parts run at low utilization: %v", r.Warnings)
}

func TestEvaluateDoesNotFit(t *testing.T) {
	m := machineWithClamp("M200", 2000)
	r, err := Evaluate(familyTool(), &m, model.DefaultPolicy())
	require.NoError(t, err)
	assert.False(t, r.Fits())
	assert.Contains(t, r.Fit.Issues, "Required clamping (2250kN) exceeds machine capacity (2000kN)")
}

func TestEvaluateWithoutMachine(t *testing.T) {
	r, err := Evaluate(familyTool(), nil, model.DefaultPolicy())
	require.NoError(t, err)
	assert.Nil(t, r.Fit)
	assert.Nil(t, r.Barrel)
	assert.Nil(t, r.Screw)
	assert.False(t, r.Fits())
	assert.NotNil(t, r.Clamping)
}

func TestEvaluateEstimatesMissingFigures(t *testing.T) {
	rt := familyTool()
	rt.Tool.CycleTimeS = nil
	rt.Tool.WidthMM = nil

	r, err := Evaluate(rt, nil, model.DefaultPolicy())
	require.NoError(t, err)
	require.NotNil(t, r.CycleTimeS)
	assert.True(t, r.CycleTimeEstimated)
	assert.Equal(t, 13.3, *r.CycleTimeS)

	// Only the box part has a footprint: 200×75 mm, 3 cavities laid out square
	require.NotNil(t, r.Dimensions)
	assert.True(t, r.DimensionsEstimated)
	assert.Equal(t, 2, r.Dimensions.Columns)
	assert.Equal(t, 2, r.Dimensions.Rows)
}

func TestEvaluateMissingDataBecomesWarnings(t *testing.T) {
	rt := familyTool()
	rt.Material = nil
	rt.Tool.CycleTimeS = nil
	for i := range rt.Assignments {
		rt.Assignments[i].Part.WallThicknessMM = nil
	}

	r, err := Evaluate(rt, nil, model.DefaultPolicy())
	require.NoError(t, err)
	assert.Nil(t, r.Clamping)
	assert.Contains(t, r.ClampingError, "no pressure data")
	assert.Nil(t, r.CycleTimeS)
	for _, d := range r.Demand {
		assert.Nil(t, d.Check)
	}
	assert.Contains(t, r.Warnings, "No material assigned")
}

func TestEvaluateLegacyTool(t *testing.T) {
	part := partWithArea("Single", 100)
	part.VolumeCM3 = model.Float(30)
	tool := model.NewTool("Legacy")
	tool.Cavities = 4
	rt := model.ResolvedTool{Tool: tool, LegacyPart: &part, Material: testMaterial()}

	r, err := Evaluate(rt, nil, model.DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, r.Totals.Legacy)
	assert.Equal(t, 2400.0, r.Clamping.ForceKN)
	assert.Equal(t, 120.0, r.ShotVolume.PartsCM3)
}

func TestEvaluateUndefinedTool(t *testing.T) {
	_, err := Evaluate(model.ResolvedTool{Tool: model.NewTool("Empty")}, nil, model.DefaultPolicy())
	assert.ErrorIs(t, err, ErrUndefinedTool)
}
