package engine

import (
	"testing"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDemandScenario(t *testing.T) {
	res, err := CheckDemand(500_000, 20, 4, model.DefaultPolicy().Demand)
	require.NoError(t, err)

	assert.Equal(t, 612.0, res.PartsPerHour)
	assert.InDelta(t, 817.0, res.HoursPerYear, 0.5)
	assert.Equal(t, 13.6, res.UtilizationPercent)
	assert.True(t, res.Feasible)
	assert.Empty(t, res.Issues)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "Low utilization (14%) - consider combining with other parts", res.Warnings[0])
	assert.Equal(t, "Demand feasible with warnings: Low utilization (14%) - consider combining with other parts", res.String())
}

func TestCheckDemandDecisionOrder(t *testing.T) {
	policy := model.DefaultPolicy().Demand
	// 20 s, 1 cavity: 153 parts/hour, 6000 hours/year available
	tests := []struct {
		name     string
		demand   int
		feasible bool
		message  string
	}{
		{"shortfall", 1_000_000, false, "Need 130.7 hrs/week but only 120 hrs available"},
		{"no buffer", 881_280, false, "Utilization too high (96%) - no buffer for issues"},
		{"high", 826_200, true, "High utilization (90%) - limited buffer"},
		{"low", 100_000, true, "Low utilization (11%) - consider combining with other parts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CheckDemand(tt.demand, 20, 1, policy)
			require.NoError(t, err)
			assert.Equal(t, tt.feasible, res.Feasible)
			if tt.feasible {
				assert.Equal(t, []string{tt.message}, res.Warnings)
			} else {
				assert.Equal(t, []string{tt.message}, res.Issues)
			}
		})
	}

	res, err := CheckDemand(459_000, 20, 1, policy)
	require.NoError(t, err)
	assert.True(t, res.Feasible)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "Demand feasible: 60.0 hrs/week (50% utilization)", res.String())
}

func TestCheckDemandCyclePlausibility(t *testing.T) {
	policy := model.DefaultPolicy().Demand

	res, err := CheckDemand(100_000, 2, 1, policy)
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "Very short cycle time (2s) - verify this is realistic")

	res, err = CheckDemand(200_000, 150, 8, policy)
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "Long cycle time (150s) - consider process optimization")

	res, err = CheckDemand(5_000_000, 150, 1, policy)
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.Contains(t, res.Warnings, "Long cycle time (150s) - consider process optimization",
		"plausibility warnings are added even when infeasible")
	assert.Contains(t, res.String(), "Demand NOT feasible: Need")
}

func TestCheckDemandInvalidInput(t *testing.T) {
	policy := model.DefaultPolicy().Demand
	_, err := CheckDemand(1000, 0, 1, policy)
	assert.ErrorIs(t, err, ErrInvalidDimension)
	_, err = CheckDemand(1000, -5, 1, policy)
	assert.ErrorIs(t, err, ErrInvalidDimension)
	_, err = CheckDemand(1000, 20, 0, policy)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestCheckDemandMonotonic(t *testing.T) {
	policy := model.DefaultPolicy().Demand
	prev := -1.0
	infeasible := false
	for demand := 0; demand <= 2_000_000; demand += 10_000 {
		res, err := CheckDemand(demand, 20, 1, policy)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.UtilizationPercent, prev)
		prev = res.UtilizationPercent
		if res.UtilizationPercent > policy.InfeasiblePercent {
			infeasible = true
		}
		if infeasible {
			assert.False(t, res.Feasible, "demand %d should stay infeasible", demand)
		}
	}
	assert.True(t, infeasible)
}

func TestRecommendCavities(t *testing.T) {
	policy := model.DefaultPolicy().Demand
	// 20 s at 70% of 6000 h and 85% OEE: 642600 parts per cavity per year
	assert.Equal(t, 3, RecommendCavities(2_000_000, 20, policy))
	assert.Equal(t, 1, RecommendCavities(100, 20, policy))
	assert.Equal(t, 16, RecommendCavities(100_000_000, 20, policy))
	assert.Equal(t, 1, RecommendCavities(2_000_000, 0, policy))
	assert.Equal(t, 1, RecommendCavities(2_000_000, -3, policy))
}
