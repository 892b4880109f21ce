package engine

import (
	"testing"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightVolumeConversion(t *testing.T) {
	v, ok := VolumeFromWeight(90, 0.9)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	w, ok := WeightFromVolume(100, 0.9)
	require.True(t, ok)
	assert.Equal(t, 90.0, w)

	_, ok = VolumeFromWeight(90, 0)
	assert.False(t, ok)
	_, ok = VolumeFromWeight(0, 1.2)
	assert.False(t, ok)
	_, ok = WeightFromVolume(-5, 1.2)
	assert.False(t, ok)
}

func TestWeightVolumeRoundTrip(t *testing.T) {
	for _, w := range []float64{0.8, 12.5, 250, 1234.56} {
		for _, d := range []float64{0.9, 1.05, 1.41} {
			v, ok := VolumeFromWeight(w, d)
			require.True(t, ok)
			back, ok := WeightFromVolume(v, d)
			require.True(t, ok)
			assert.InDelta(t, w, back, 0.02, "w=%g d=%g", w, d)
		}
	}
}

func TestCheckWeightConsistency(t *testing.T) {
	res := CheckWeightConsistency(model.Float(100), model.Float(100), model.Float(0.9), 20)
	assert.True(t, res.Consistent)
	assert.True(t, res.Checked)
	assert.Equal(t, 90.0, res.ExpectedWeightG)
	assert.InDelta(t, 11.1, res.DeviationPercent, 0.05)

	res = CheckWeightConsistency(model.Float(120), model.Float(100), model.Float(0.9), 20)
	assert.False(t, res.Consistent)
	assert.InDelta(t, 33.3, res.DeviationPercent, 0.05)
	assert.Contains(t, res.Message, "Expected 90g")

	res = CheckWeightConsistency(nil, model.Float(100), model.Float(0.9), 20)
	assert.True(t, res.Consistent)
	assert.False(t, res.Checked)
	assert.Equal(t, "Insufficient data for validation", res.Message)
}
