package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenlens/internal/ai"
	"greenlens/internal/models"
)

func validCandidate() questCandidate {
	return questCandidate{
		Title:               "Plastic-Free Grocery Run",
		Description:         "Do a full grocery trip using only reusable bags and containers. Photograph your haul.",
		PointsAwarded:       40,
		Difficulty:          "Medium",
		EnvironmentalImpact: "Avoids single-use plastic packaging",
		Category:            "Waste Reduction",
		CarbonSaved:         1.2,
		WaterSaved:          0,
		WastePrevented:      0.5,
	}
}

func TestQuestCandidateValidate(t *testing.T) {
	quest, err := validCandidate().validate()
	require.NoError(t, err)
	assert.Equal(t, "Plastic-Free Grocery Run", quest.Title)
	assert.Equal(t, models.QuestAvailable, quest.Status)
	assert.Nil(t, quest.AssignedTo)
	assert.Equal(t, 40, quest.PointsAwarded)
}

func TestQuestCandidateValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*questCandidate)
	}{
		{"empty title", func(c *questCandidate) { c.Title = "  " }},
		{"empty description", func(c *questCandidate) { c.Description = "" }},
		{"zero points", func(c *questCandidate) { c.PointsAwarded = 0 }},
		{"excessive points", func(c *questCandidate) { c.PointsAwarded = 5000 }},
		{"unknown difficulty", func(c *questCandidate) { c.Difficulty = "Impossible" }},
		{"lowercase difficulty", func(c *questCandidate) { c.Difficulty = "easy" }},
		{"empty category", func(c *questCandidate) { c.Category = "" }},
		{"negative impact", func(c *questCandidate) { c.CarbonSaved = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCandidate()
			tc.mutate(&c)
			_, err := c.validate()
			assert.Error(t, err)
		})
	}
}

func TestGeneratedCandidatesParseFromProse(t *testing.T) {
	// Models wrap the array in explanation text; parsing must still work.
	text := "Here are your quests:\n[{\"title\":\"Bike to Work Week\",\"description\":\"Commute by bicycle every day this week. Snap a photo each morning.\",\"pointsAwarded\":80,\"difficulty\":\"Hard\",\"category\":\"Transportation\",\"carbonSaved\":12.5}]\nEnjoy!"

	var candidates []questCandidate
	require.True(t, ai.ExtractArray(text, &candidates))
	require.Len(t, candidates, 1)

	quest, err := candidates[0].validate()
	require.NoError(t, err)
	assert.Equal(t, "Bike to Work Week", quest.Title)
	assert.Equal(t, 12.5, quest.CarbonSaved)
}

func TestAssignGuardActiveCap(t *testing.T) {
	quest := &models.Quest{Status: models.QuestAvailable}

	for active := int64(0); active < MaxActiveQuests; active++ {
		assert.NoError(t, assignGuard(active, quest))
	}

	// A 6th assignment is refused as a conflict, with or without the quest
	// loaded.
	err := assignGuard(MaxActiveQuests, quest)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindConflict, se.Kind)

	require.ErrorAs(t, assignGuard(MaxActiveQuests, nil), &se)
	assert.Equal(t, KindConflict, se.Kind)
}

func TestAssignGuardQuestState(t *testing.T) {
	owner := primitive.NewObjectID()

	cases := []struct {
		name  string
		quest models.Quest
	}{
		{"already assigned", models.Quest{Status: models.QuestAssigned, AssignedTo: &owner}},
		// Stale status: the assignee wins over what the status field reads.
		{"assignee set but status available", models.Quest{Status: models.QuestAvailable, AssignedTo: &owner}},
		{"verified", models.Quest{Status: models.QuestVerified}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := assignGuard(0, &tc.quest)
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, KindConflict, se.Kind)
		})
	}

	assert.NoError(t, assignGuard(0, &models.Quest{Status: models.QuestAvailable}))
}

func TestGenerationPromptMentionsEveryCategory(t *testing.T) {
	prompt := generationPrompt(5)
	assert.Contains(t, prompt, "Generate 5 unique")
	for _, category := range questCategories {
		assert.True(t, strings.Contains(prompt, category), "prompt should offer category %q", category)
	}
}
