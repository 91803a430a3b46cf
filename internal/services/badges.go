package services

import (
	"time"

	"greenlens/internal/models"
)

// BadgeCriterion pairs a points threshold with the badge it unlocks.
type BadgeCriterion struct {
	Points      int
	Name        string
	Description string
	ImageURL    string
}

// badgeCriteria is the fixed, ascending threshold table. New tiers are added
// by appending here; existing names must never change because the badge set
// is deduplicated by name.
var badgeCriteria = []BadgeCriterion{
	{Points: 100, Name: "Eco Starter", Description: "Earned 100 points", ImageURL: "badges/eco-starter.png"},
	{Points: 500, Name: "Green Enthusiast", Description: "Earned 500 points", ImageURL: "badges/green-enthusiast.png"},
}

// EvaluateBadges returns the badges a user newly qualifies for given their
// current points and already-held badges. It never re-awards a held badge,
// so calling it twice with unchanged points yields nothing the second time.
func EvaluateBadges(points int, held []models.Badge, now time.Time) []models.Badge {
	haveName := make(map[string]bool, len(held))
	for _, b := range held {
		haveName[b.Name] = true
	}

	var earned []models.Badge
	for _, c := range badgeCriteria {
		if points < c.Points || haveName[c.Name] {
			continue
		}
		earned = append(earned, models.Badge{
			Name:        c.Name,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			EarnedAt:    now,
		})
	}
	return earned
}
