package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenesplit/scenesplit/breakdown"
)

func analyzedScene(number int, location string, pages float64, complexity breakdown.Complexity, cost breakdown.CostCategory, crewSize int) breakdown.SceneRecord {
	return breakdown.SceneRecord{
		Number:    number,
		Location:  location,
		SceneType: breakdown.SceneInterior,
		TimeOfDay: breakdown.TimeDay,
		PageCount: pages,
		Analysis: &breakdown.SceneAnalysis{
			Complexity:   complexity,
			CostCategory: cost,
			CrewSize:     crewSize,
		},
	}
}

func TestComputeScheduleGroupsByLocation(t *testing.T) {
	scenes := []breakdown.SceneRecord{
		analyzedScene(3, "WAREHOUSE", 4.0, breakdown.ComplexityStandard, breakdown.CostMedium, 20),
		analyzedScene(1, "LOBBY", 2.0, breakdown.ComplexitySimple, breakdown.CostLow, 12),
		analyzedScene(2, "WAREHOUSE", 6.0, breakdown.ComplexityHeavy, breakdown.CostHigh, 35),
	}

	schedule := ComputeSchedule(scenes)

	require.Len(t, schedule.Locations, 2)
	assert.Equal(t, "LOBBY", schedule.Locations[0].Location)
	assert.Equal(t, "WAREHOUSE", schedule.Locations[1].Location)

	warehouse := schedule.Locations[1]
	assert.Equal(t, []int{2, 3}, warehouse.SceneNumbers)
	assert.InDelta(t, 10.0, warehouse.PageCount, 0.01)
	// 6.0*1.8 + 4.0*1.0 = 14.8 weighted pages, ceil(14.8/5) = 3 days.
	assert.Equal(t, 3, warehouse.EstimatedDays)

	lobby := schedule.Locations[0]
	// 2.0*0.8 = 1.6 weighted pages rounds up to the one-day floor.
	assert.Equal(t, 1, lobby.EstimatedDays)

	assert.Equal(t, 4, schedule.TotalDays)
}

func TestComputeScheduleNoAnalysisUsesStandardFactor(t *testing.T) {
	scenes := []breakdown.SceneRecord{
		{Number: 1, Location: "ROOFTOP", PageCount: 12.0},
	}
	schedule := ComputeSchedule(scenes)
	require.Len(t, schedule.Locations, 1)
	assert.Equal(t, 3, schedule.Locations[0].EstimatedDays)
}

func TestComputeBudgetRollsUpCategories(t *testing.T) {
	scenes := []breakdown.SceneRecord{
		analyzedScene(1, "A", 1, breakdown.ComplexitySimple, breakdown.CostLow, 10),
		analyzedScene(2, "A", 1, breakdown.ComplexitySimple, breakdown.CostLow, 10),
		analyzedScene(3, "B", 1, breakdown.ComplexityHeavy, breakdown.CostPremium, 40),
	}

	budget := ComputeBudget(scenes)

	require.Len(t, budget.Lines, 2)
	assert.Equal(t, breakdown.CostLow, budget.Lines[0].Category)
	assert.Equal(t, 2, budget.Lines[0].SceneCount)
	assert.Equal(t, 16000, budget.Lines[0].EstimateUSD)
	assert.Equal(t, breakdown.CostPremium, budget.Lines[1].Category)
	assert.Equal(t, 166000, budget.TotalUSD)
	// Average 55333 per scene lands in the medium band.
	assert.Equal(t, breakdown.CostMedium, budget.OverallCategory)
}

func TestComputeBudgetUnknownCategoryTreatedAsMedium(t *testing.T) {
	scenes := []breakdown.SceneRecord{
		analyzedScene(1, "A", 1, breakdown.ComplexityStandard, breakdown.CostCategory("exotic"), 10),
	}
	budget := ComputeBudget(scenes)
	require.Len(t, budget.Lines, 1)
	assert.Equal(t, breakdown.CostMedium, budget.Lines[0].Category)
}

func TestComputeBudgetNoAnalysisFallback(t *testing.T) {
	scenes := make([]breakdown.SceneRecord, 20)
	for i := range scenes {
		scenes[i] = breakdown.SceneRecord{Number: i + 1, Location: "SET"}
	}
	budget := ComputeBudget(scenes)
	assert.Empty(t, budget.Lines)
	assert.Zero(t, budget.TotalUSD)
	assert.Equal(t, breakdown.CostHigh, budget.OverallCategory)
}

func TestComputeCrewSpecialistsAndPeak(t *testing.T) {
	night := analyzedScene(2, "ALLEY", 2, breakdown.ComplexityHeavy, breakdown.CostHigh, 42)
	night.SceneType = breakdown.SceneExterior
	night.TimeOfDay = breakdown.TimeNight

	scenes := []breakdown.SceneRecord{
		analyzedScene(1, "LOBBY", 2, breakdown.ComplexitySimple, breakdown.CostLow, 10),
		night,
		analyzedScene(3, "OFFICE", 2, breakdown.ComplexityComplex, breakdown.CostMedium, 18),
	}

	crew := ComputeCrew(scenes)

	assert.Contains(t, crew.Core, "director of photography")
	assert.Equal(t, 42, crew.PeakSize)

	require.Len(t, crew.Specialists, 2)
	assert.Equal(t, 2, crew.Specialists[0].SceneNumber)
	assert.Equal(t, []string{"stunt coordinator", "special effects supervisor", "night lighting technician"}, crew.Specialists[0].Specialists)
	assert.Equal(t, 3, crew.Specialists[1].SceneNumber)
	assert.Equal(t, []string{"additional camera operator"}, crew.Specialists[1].Specialists)
}

func TestComputeCrewPeakNeverBelowCore(t *testing.T) {
	scenes := []breakdown.SceneRecord{
		analyzedScene(1, "LOBBY", 2, breakdown.ComplexitySimple, breakdown.CostLow, 2),
	}
	crew := ComputeCrew(scenes)
	assert.Equal(t, len(crew.Core), crew.PeakSize)
}

func TestComputeDeterministic(t *testing.T) {
	scenes := []breakdown.SceneRecord{
		analyzedScene(1, "LOBBY", 1.5, breakdown.ComplexitySimple, breakdown.CostLow, 10),
		analyzedScene(2, "WAREHOUSE", 3.0, breakdown.ComplexityComplex, breakdown.CostHigh, 25),
		analyzedScene(3, "LOBBY", 2.0, breakdown.ComplexityStandard, breakdown.CostMedium, 15),
	}

	s1, b1, c1 := Compute(scenes)
	s2, b2, c2 := Compute(scenes)

	assert.Equal(t, s1, s2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, c1, c2)
}
