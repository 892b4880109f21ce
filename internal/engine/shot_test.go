package engine

import (
	"testing"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShotVolume(t *testing.T) {
	a := model.NewPart("A")
	a.VolumeCM3 = model.Float(10)
	b := model.NewPart("B")
	b.VolumeCM3 = model.Float(5)
	c := model.NewPart("C")

	res := ShotVolume([]model.Assignment{assign(a, 2), assign(b, 4), assign(c, 8)}, 15)
	assert.Equal(t, 40.0, res.PartsCM3)
	assert.Equal(t, 6.0, res.RunnerCM3)
	assert.Equal(t, 46.0, res.TotalCM3)
	assert.Equal(t, 15.0, res.RunnerPercent)
	require.Len(t, res.PartsBreakdown, 2)
	assert.Equal(t, "A", res.PartsBreakdown[0].PartName)
	assert.Equal(t, 20.0, res.PartsBreakdown[0].Amount)
	assert.Equal(t, []string{"C"}, res.Skipped)
}

func TestShotWeightFallsBackToDensity(t *testing.T) {
	a := model.NewPart("A")
	a.WeightG = model.Float(9)
	b := model.NewPart("B")
	b.VolumeCM3 = model.Float(5)
	mat := model.NewMaterial("PP", "PP", "PP")
	mat.DensityGCM3 = model.Float(0.9)

	res := ShotWeight([]model.Assignment{assign(a, 2), assign(b, 4)}, &mat, 15)
	assert.Equal(t, 36.0, res.PartsG)
	assert.InDelta(t, 41.4, res.TotalG, 0.001)
	assert.Empty(t, res.Skipped)

	res = ShotWeight([]model.Assignment{assign(a, 2), assign(b, 4)}, nil, 15)
	assert.Equal(t, 18.0, res.PartsG)
	assert.Equal(t, []string{"B"}, res.Skipped)
}

func TestBarrelUsage(t *testing.T) {
	policy := model.DefaultPolicy().Shot

	res := BarrelUsage(850, model.Float(1000), policy)
	assert.Equal(t, 85.0, res.Percent)
	assert.Equal(t, BarrelCritical, res.Status)
	assert.True(t, res.IsCritical)
	assert.True(t, res.IsWarning)
	assert.Equal(t, "CRITICAL: 85.0% barrel usage (850.0cm³ of 1000.0cm³)", res.Message)

	res = BarrelUsage(700, model.Float(1000), policy)
	assert.Equal(t, BarrelWarning, res.Status)
	assert.True(t, res.IsWarning)
	assert.False(t, res.IsCritical)

	res = BarrelUsage(699, model.Float(1000), policy)
	assert.Equal(t, BarrelOK, res.Status)
	assert.Equal(t, 69.9, res.Percent)
	assert.False(t, res.IsWarning)
}

func TestBarrelUsageNoData(t *testing.T) {
	policy := model.DefaultPolicy().Shot
	for _, barrel := range []*float64{nil, model.Float(0), model.Float(-10)} {
		res := BarrelUsage(100, barrel, policy)
		assert.Equal(t, BarrelNoData, res.Status)
		assert.False(t, res.HasData())
		assert.NotEqual(t, BarrelOK, res.Status)
		assert.Equal(t, "No barrel volume data available", res.Message)
	}
}
