package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"greenlens/internal/models"
)

func TestSumImpact(t *testing.T) {
	quests := []models.Quest{
		{PointsAwarded: 50, CarbonSaved: 10, WaterSaved: 0, WastePrevented: 0},
		{PointsAwarded: 75, CarbonSaved: 5, WaterSaved: 130, WastePrevented: 0},
	}

	sum := SumImpact(quests)
	assert.Equal(t, 125, sum.TotalPointsEarned)
	assert.Equal(t, 15.0, sum.TotalCarbonSavedKg)
	assert.Equal(t, 130.0, sum.TotalWaterSavedLiters)
	assert.Equal(t, 0.0, sum.TotalWastePreventedKg)
}

func TestSumImpactRounds(t *testing.T) {
	quests := []models.Quest{
		{CarbonSaved: 0.105},
		{CarbonSaved: 0.105},
	}
	assert.Equal(t, 0.21, SumImpact(quests).TotalCarbonSavedKg)
}

func TestSumImpactEmpty(t *testing.T) {
	sum := SumImpact(nil)
	assert.Zero(t, sum.TotalPointsEarned)
	assert.Zero(t, sum.TotalCarbonSavedKg)
	assert.NotNil(t, sum.ImpactComparisons)
}

func TestImpactComparisons(t *testing.T) {
	lines := ImpactComparisons(15, 130, 0)

	// 15 kg CO2 / 0.404 kg-per-mile ~= 37.1 miles
	assert.Contains(t, lines, "Carbon saved equivalent to not driving 37.1 miles in an average car")
	// 15 / 22 * 365 ~= 248.9 tree-days
	assert.Contains(t, lines, "Carbon absorbed equivalent to what a tree absorbs in 248.9 days")
	// 130 L / 65 L-per-shower = 2 showers
	assert.Contains(t, lines, "Water saved equivalent to 2 typical showers")
	// 130 / 2 = 65 drinking days
	assert.Contains(t, lines, "Water saved could provide drinking water for one person for 65 days")

	// No waste prevented, no waste line.
	for _, line := range lines {
		assert.NotContains(t, line, "trash bags")
	}
}

func TestImpactComparisonsSuppressesSubUnitValues(t *testing.T) {
	// 0.05 kg carbon is under a mile and under a day of tree absorption;
	// 3 kg waste is under one 5 kg trash bag.
	assert.Empty(t, ImpactComparisons(0.05, 0, 3))
}

func TestImpactComparisonsWaste(t *testing.T) {
	lines := ImpactComparisons(0, 0, 12.5)
	if assert.Len(t, lines, 1) {
		assert.Equal(t, "Waste prevented equivalent to 2.5 typical household trash bags", lines[0])
	}
}
