package services

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenlens/internal/models"
)

// ImpactSummary is the aggregate environmental impact of a user's completed
// quests, with human-relatable comparison lines.
type ImpactSummary struct {
	TotalQuestsCompleted  int      `json:"total_quests_completed"`
	TotalPointsEarned     int      `json:"total_points_earned"`
	TotalCarbonSavedKg    float64  `json:"total_carbon_saved_kg"`
	TotalWaterSavedLiters float64  `json:"total_water_saved_liters"`
	TotalWastePreventedKg float64  `json:"total_waste_prevented_kg"`
	ImpactComparisons     []string `json:"impact_comparisons"`
}

// Impact sums carbon/water/waste/points across the user's completed quests.
// Quest documents are resolved in one batch lookup; unresolvable references
// contribute nothing.
func (q *Quests) Impact(ctx context.Context, userID primitive.ObjectID) (*ImpactSummary, error) {
	cursor, err := q.assignments().Find(ctx, bson.M{
		"userId": userID,
		"status": models.AssignmentCompleted,
	})
	if err != nil {
		return nil, NewInternalError("could not list completed quests", err)
	}
	var completed []models.AssignedQuest
	if err := cursor.All(ctx, &completed); err != nil {
		return nil, NewInternalError("could not decode completed quests", err)
	}

	questIDs := make([]primitive.ObjectID, 0, len(completed))
	for _, a := range completed {
		questIDs = append(questIDs, a.QuestID)
	}

	var quests []models.Quest
	if len(questIDs) > 0 {
		qc, err := q.quests().Find(ctx, bson.M{"_id": bson.M{"$in": questIDs}})
		if err != nil {
			return nil, NewInternalError("could not load quest details", err)
		}
		if err := qc.All(ctx, &quests); err != nil {
			return nil, NewInternalError("could not decode quest details", err)
		}
	}

	summary := SumImpact(quests)
	summary.TotalQuestsCompleted = len(completed)
	summary.ImpactComparisons = ImpactComparisons(
		summary.TotalCarbonSavedKg,
		summary.TotalWaterSavedLiters,
		summary.TotalWastePreventedKg,
	)
	return summary, nil
}

// SumImpact totals the impact fields across quests, rounded to 2 decimals.
func SumImpact(quests []models.Quest) *ImpactSummary {
	var carbon, water, waste float64
	var points int
	for _, quest := range quests {
		carbon += quest.CarbonSaved
		water += quest.WaterSaved
		waste += quest.WastePrevented
		points += quest.PointsAwarded
	}
	return &ImpactSummary{
		TotalPointsEarned:     points,
		TotalCarbonSavedKg:    round2(carbon),
		TotalWaterSavedLiters: round2(water),
		TotalWastePreventedKg: round2(waste),
		ImpactComparisons:     []string{},
	}
}

// Fixed linear conversion factors behind the comparison lines.
const (
	kgCO2PerMile     = 0.404 // average car, kg CO2 per mile
	kgCO2PerTreeYear = 22.0  // one tree absorbs ~22 kg CO2 per year
	litersPerShower  = 65.0
	litersPerDay     = 2.0 // drinking water per person per day
	kgPerTrashBag    = 5.0
)

// ImpactComparisons restates aggregate metrics as relatable strings. A line
// is emitted only when its computed value is at least 1.
func ImpactComparisons(carbonKg, waterLiters, wasteKg float64) []string {
	comparisons := []string{}

	if carbonKg > 0 {
		miles := round1(carbonKg / kgCO2PerMile)
		if miles >= 1 {
			comparisons = append(comparisons,
				fmt.Sprintf("Carbon saved equivalent to not driving %g miles in an average car", miles))
		}
		treeDays := round1(carbonKg / kgCO2PerTreeYear * 365)
		if treeDays >= 1 {
			comparisons = append(comparisons,
				fmt.Sprintf("Carbon absorbed equivalent to what a tree absorbs in %g days", treeDays))
		}
	}

	if waterLiters > 0 {
		showers := round1(waterLiters / litersPerShower)
		if showers >= 1 {
			comparisons = append(comparisons,
				fmt.Sprintf("Water saved equivalent to %g typical showers", showers))
		}
		drinkingDays := round1(waterLiters / litersPerDay)
		if drinkingDays >= 1 {
			comparisons = append(comparisons,
				fmt.Sprintf("Water saved could provide drinking water for one person for %g days", drinkingDays))
		}
	}

	if wasteKg > 0 {
		bags := round1(wasteKg / kgPerTrashBag)
		if bags >= 1 {
			comparisons = append(comparisons,
				fmt.Sprintf("Waste prevented equivalent to %g typical household trash bags", bags))
		}
	}

	return comparisons
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
