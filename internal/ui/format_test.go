package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

func TestParseOptFloat(t *testing.T) {
	v, err := parseOptFloat("Weight", " 12,5 ")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 12.5, *v)

	v, err = parseOptFloat("Weight", "")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = parseOptFloat("Weight", "abc")
	assert.Error(t, err)
	_, err = parseOptFloat("Weight", "-1")
	assert.Error(t, err)
}

func TestParseOptInt(t *testing.T) {
	v, err := parseOptInt("Demand", "1,250,000")
	require.NoError(t, err)
	assert.Equal(t, 1250000, *v)

	v, err = parseOptInt("Demand", "500 000")
	require.NoError(t, err)
	assert.Equal(t, 500000, *v)

	_, err = parseOptInt("Demand", "lots")
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	n, err := parseCount("Cavities", "4", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = parseCount("Cavities", "0", 1)
	assert.Error(t, err)
	_, err = parseCount("Cavities", "", 1)
	assert.Error(t, err)
}

func TestFieldParserKeepsFirstError(t *testing.T) {
	var fp fieldParser
	fp.float("Weight", "x")
	fp.int("Demand", "y")
	fp.count("Cavities", "2", 1)
	require.Error(t, fp.err)
	assert.Contains(t, fp.err.Error(), "Weight")
}

func TestOptText(t *testing.T) {
	assert.Equal(t, "", optFloatText(nil))
	assert.Equal(t, "2.5", optFloatText(model.Float(2.5)))
	assert.Equal(t, "", optIntText(nil))
	assert.Equal(t, "7", optIntText(model.Int(7)))
}

func TestCountText(t *testing.T) {
	assert.Equal(t, "-", countText(nil))
	assert.Equal(t, "999", countText(model.Int(999)))
	assert.Equal(t, "1,000", countText(model.Int(1000)))
	assert.Equal(t, "2,500,000", countText(model.Int(2500000)))
}

func TestAreaText(t *testing.T) {
	direct := model.NewPart("A")
	assert.Equal(t, "12.0 cm²", areaText(direct, 12, true))
	box := model.NewPart("B")
	box.Geometry = model.BoxGeometry(100, 50, 80)
	assert.Equal(t, "40.0 cm² (est.)", areaText(box, 40, true))
	assert.Equal(t, "-", areaText(direct, 0, false))
}

func TestOptionLabels(t *testing.T) {
	labels := optionLabels(model.InjectionSystems)
	assert.Equal(t, []string{"Cold runner", "Hot runner", "Valve gate"}, labels)
	assert.Equal(t, model.HotRunner, optionByLabel(model.InjectionSystems, "Hot runner", model.ColdRunner))
	assert.Equal(t, model.ColdRunner, optionByLabel(model.InjectionSystems, "Steam", model.ColdRunner))
}

func TestParseOptDate(t *testing.T) {
	d, err := parseOptDate("SOP", "2027-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), *d)
	assert.Equal(t, "2027-03-01", optDateText(d))

	d, err = parseOptDate("SOP", " ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = parseOptDate("SOP", "03/2027")
	assert.Error(t, err)
}

func TestUpsertDemandKeepsYearOrder(t *testing.T) {
	demands := []model.AnnualDemand{
		{Year: 2027, Volume: model.Int(1000)},
		{Year: 2029, Volume: model.Int(3000)},
	}
	demands = upsertDemand(demands, model.AnnualDemand{Year: 2028, Volume: model.Int(2000)})
	require.Len(t, demands, 3)
	assert.Equal(t, []int{2027, 2028, 2029}, []int{demands[0].Year, demands[1].Year, demands[2].Year})

	demands = upsertDemand(demands, model.AnnualDemand{Year: 2027, Volume: model.Int(1500)})
	require.Len(t, demands, 3)
	assert.Equal(t, 1500, *demands[0].Volume)
}

func TestPriceText(t *testing.T) {
	tool := model.NewTool("T1")
	assert.Equal(t, "-", priceText(tool))
	tool.PriceEstimated = model.Float(40000)
	assert.Equal(t, "40000 (estimate)", priceText(tool))
	tool.PriceEnquiry = model.Float(45000)
	assert.Equal(t, "45000 (enquiry)", priceText(tool))
	tool.PriceFinal = model.Float(43500)
	assert.Equal(t, "43500 (final)", priceText(tool))
}

func TestPartChecksText(t *testing.T) {
	policy := model.DefaultPolicy()

	p := model.NewPart("Housing")
	p.Geometry = model.DirectGeometry(50)
	assert.Equal(t, "Missing: volume, material, demand", partChecksText(p, engine.CheckPart(p, nil, policy)))

	p.VolumeCM3 = model.Float(20)
	p.MaterialID = "pp"
	p.PeakDemand = model.Int(100_000)
	assert.Equal(t, "OK", partChecksText(p, engine.CheckPart(p, nil, policy)))

	p.WeightG = model.Float(40)
	assert.Equal(t, "1 warning(s)", partChecksText(p, engine.CheckPart(p, model.Float(1.0), policy)))

	p.Geometry = model.DirectGeometry(0)
	assert.Equal(t, "Projected area must be greater than 0", partChecksText(p, engine.CheckPart(p, nil, policy)))
}

func TestWeightCheckText(t *testing.T) {
	ok := engine.CheckWeightConsistency(model.Float(21), model.Float(20), model.Float(1.05), 20)
	assert.Equal(t, "Weight check: expected 21g from volume × density, deviation 0.0% (within tolerance)", weightCheckText(ok))

	off := engine.CheckWeightConsistency(model.Float(120), model.Float(100), model.Float(0.9), 20)
	assert.Equal(t, "Weight check: expected 90g from volume × density, deviation 33.3% (outside tolerance)", weightCheckText(off))

	none := engine.CheckWeightConsistency(nil, model.Float(100), model.Float(0.9), 20)
	assert.Equal(t, "Weight check: Insufficient data for validation", weightCheckText(none))
}
