package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPartDefaultsToDirectGeometry(t *testing.T) {
	p := NewPart("Housing")
	if p.Geometry.Mode != GeometryDirect {
		t.Errorf("expected direct geometry, got %s", p.Geometry.Mode)
	}
	if len(p.ID) != 8 {
		t.Errorf("expected 8 character ID, got %q", p.ID)
	}
}

func TestPartTotalDemandPrefersBreakdown(t *testing.T) {
	p := NewPart("Cover")
	p.LifetimeDemand = Int(1_000_000)
	p.AnnualDemands = []AnnualDemand{
		{Year: 2026, Volume: Int(100_000)},
		{Year: 2027, Volume: Int(250_000)},
		{Year: 2028},
	}
	total, ok := p.TotalDemand()
	require.True(t, ok)
	assert.Equal(t, 350_000, total)

	p.AnnualDemands = nil
	total, ok = p.TotalDemand()
	require.True(t, ok)
	assert.Equal(t, 1_000_000, total)

	p.LifetimeDemand = nil
	_, ok = p.TotalDemand()
	assert.False(t, ok)
}

func TestPartYearlyDemand(t *testing.T) {
	p := NewPart("Clip")
	_, ok := p.YearlyDemand()
	assert.False(t, ok)

	p.AnnualDemands = []AnnualDemand{
		{Year: 2026, Volume: Int(80_000)},
		{Year: 2027, Volume: Int(120_000)},
	}
	d, ok := p.YearlyDemand()
	require.True(t, ok)
	assert.Equal(t, 120_000, d)

	p.PeakDemand = Int(150_000)
	d, _ = p.YearlyDemand()
	assert.Equal(t, 150_000, d)
}

func TestPartMissingFields(t *testing.T) {
	p := Part{Name: "  "}
	assert.Equal(t, []string{"name", "volume", "material", "demand"}, p.MissingFields())

	p = NewPart("Housing")
	p.VolumeCM3 = Float(25)
	p.MaterialID = "pp"
	assert.Equal(t, []string{"demand"}, p.MissingFields())

	p.LifetimeDemand = Int(1_000_000)
	assert.Nil(t, p.MissingFields())

	p.LifetimeDemand = nil
	p.PeakDemand = Int(200_000)
	assert.Nil(t, p.MissingFields(), "a peak figure counts as demand")

	p.VolumeCM3 = Float(0)
	assert.Equal(t, []string{"volume"}, p.MissingFields())
}

func TestRemovePartDropsConfigurations(t *testing.T) {
	proj := NewProject()
	a, b := NewPart("A"), NewPart("B")
	proj.Parts = []Part{a, b}

	family := NewTool("Family")
	family.Configurations = []ToolPartConfiguration{
		NewToolPartConfiguration(a.ID, 2),
		NewToolPartConfiguration(b.ID, 2),
	}
	legacy := NewTool("Legacy")
	legacy.LegacyPartID = a.ID
	proj.Tools = []Tool{family, legacy}

	proj.RemovePart(a.ID)

	assert.Len(t, proj.Parts, 1)
	require.Len(t, proj.Tools[0].Configurations, 1)
	assert.Equal(t, b.ID, proj.Tools[0].Configurations[0].PartID)
	assert.Empty(t, proj.Tools[1].LegacyPartID)
}

func TestDemandWindowFallsBackToAnnualBreakdown(t *testing.T) {
	proj := NewProject()
	_, _, ok := proj.DemandWindow()
	assert.False(t, ok)

	proj.AnnualDemands = []AnnualDemand{
		{Year: 2028, Volume: Int(300_000)},
		{Year: 2026, Volume: Int(100_000)},
		{Year: 2027, Volume: Int(200_000)},
	}
	sop, eaop, ok := proj.DemandWindow()
	require.True(t, ok)
	assert.Equal(t, 100_000, sop)
	assert.Equal(t, 300_000, eaop)

	proj.DemandSOP = Int(50_000)
	proj.DemandEAOP = Int(60_000)
	sop, eaop, _ = proj.DemandWindow()
	assert.Equal(t, 50_000, sop)
	assert.Equal(t, 60_000, eaop)
}

func TestParseRFQStatus(t *testing.T) {
	tests := map[string]RFQStatus{
		"quoted":  StatusQuoted,
		"Ordered": StatusOrdered,
		"closed":  StatusClosed,
		"bogus":   StatusDraft,
		"":        StatusDraft,
	}
	for in, want := range tests {
		if got := ParseRFQStatus(in); got != want {
			t.Errorf("ParseRFQStatus(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestOutlineBoundingBox(t *testing.T) {
	o := Outline{{X: 10, Y: 5}, {X: 60, Y: 5}, {X: 60, Y: 45}, {X: 10, Y: 45}}
	min, max := o.BoundingBox()
	assert.Equal(t, Point2D{X: 10, Y: 5}, min)
	assert.Equal(t, Point2D{X: 60, Y: 45}, max)

	moved := o.Translate(-10, -5)
	assert.Equal(t, Point2D{X: 0, Y: 0}, moved[0])
	assert.Equal(t, 10.0, o[0].X, "translate must not mutate the receiver")
}

func TestPositive(t *testing.T) {
	_, ok := Positive(nil)
	assert.False(t, ok)
	_, ok = Positive(Float(0))
	assert.False(t, ok)
	_, ok = Positive(Float(-3))
	assert.False(t, ok)
	v, ok := Positive(Float(2.5))
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
}

func TestInjectionSystemIsHot(t *testing.T) {
	assert.False(t, ColdRunner.IsHot())
	assert.True(t, HotRunner.IsHot())
	assert.True(t, ValveGate.IsHot())
}
