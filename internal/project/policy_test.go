package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MoldQuote/internal/model"
)

func TestSaveAndLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")

	p := model.DefaultPolicy()
	p.Demand.HoursPerWeek = 80
	p.Clamping.MachineSizesTonnes = []float64{100, 200, 400}
	require.NoError(t, SavePolicy(path, p))

	loaded, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadPolicyPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"demand":{"hours_per_week":100}}`), 0644))

	loaded, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, loaded.Demand.HoursPerWeek)
	assert.Equal(t, 50.0, loaded.Demand.WeeksPerYear)
	assert.Equal(t, 1.2, loaded.Clamping.SafetyFactor)
	assert.Equal(t, 0.5, loaded.Part.MinWallMM, "part limits absent from the file keep their defaults")
}

func TestPolicyValidationOnSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")

	bad := model.DefaultPolicy()
	bad.Clamping.MachineSizesTonnes = []float64{200, 100}
	assert.Error(t, SavePolicy(path, bad))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "invalid policy must not be written")

	require.NoError(t, os.WriteFile(path, []byte(`{"shot":{"barrel_warning_percent":90,"barrel_critical_percent":80}}`), 0644))
	_, err = LoadPolicy(path)
	assert.Error(t, err)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
