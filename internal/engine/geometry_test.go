package engine

import (
	"errors"
	"testing"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxAreaHalfEffective(t *testing.T) {
	area, err := ResolveArea(model.BoxGeometry(200, 75, 50))
	require.NoError(t, err)
	assert.Equal(t, 75.0, area)
}

func TestBoxAreaDefaultsAndClamps(t *testing.T) {
	g := model.Geometry{Mode: model.GeometryBox, BoxLengthMM: model.Float(100), BoxWidthMM: model.Float(50)}
	area, err := ResolveArea(g)
	require.NoError(t, err)
	assert.Equal(t, 50.0, area, "missing effective percent means the whole box")

	g.BoxEffectivePercent = model.Float(150)
	area, err = ResolveArea(g)
	require.NoError(t, err)
	assert.Equal(t, 50.0, area, "effective percent is clamped to 100")
}

func TestBoxAreaFormula(t *testing.T) {
	for _, l := range []float64{1, 12.5, 80, 333} {
		for _, w := range []float64{1, 7.5, 60, 410} {
			for _, pct := range []float64{0.5, 25, 62.5, 100} {
				area, err := ResolveArea(model.BoxGeometry(l, w, pct))
				require.NoError(t, err)
				assert.InDelta(t, l*w*pct/100/100, area, 0.005)
				assert.GreaterOrEqual(t, area, 0.0)
			}
			full, _ := ResolveArea(model.BoxGeometry(l, w, 100))
			assert.InDelta(t, l*w/100, full, 0.005)
		}
	}
}

func TestBoxAreaInvalidDimensions(t *testing.T) {
	tests := []struct {
		name  string
		g     model.Geometry
		field string
	}{
		{"zero length", model.BoxGeometry(0, 50, 100), "box_length_mm"},
		{"negative width", model.BoxGeometry(50, -1, 100), "box_width_mm"},
		{"zero percent", model.BoxGeometry(50, 50, 0), "box_effective_percent"},
		{"negative percent", model.BoxGeometry(50, 50, -10), "box_effective_percent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveArea(tt.g)
			require.ErrorIs(t, err, ErrInvalidDimension)
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestDirectAreaMissing(t *testing.T) {
	_, err := ResolveArea(model.Geometry{Mode: model.GeometryDirect})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = ResolveArea(model.DirectGeometry(0))
	assert.ErrorIs(t, err, ErrMissingInput)

	area, err := ResolveArea(model.DirectGeometry(42.5))
	require.NoError(t, err)
	assert.Equal(t, 42.5, area)
}

func TestValidateGeometry(t *testing.T) {
	ok, msg := ValidateGeometry(model.DirectGeometry(10))
	assert.True(t, ok)
	assert.Empty(t, msg)

	ok, msg = ValidateGeometry(model.BoxGeometry(10, 0, 100))
	assert.False(t, ok)
	assert.Equal(t, "Box width must be greater than 0", msg)

	ok, msg = ValidateGeometry(model.Geometry{Mode: "sphere"})
	assert.False(t, ok)
	assert.Contains(t, msg, "unknown geometry mode")
}
