package handlers

import (
	"greenlens/internal/models"
)

// userPayload normalizes a user for responses: nil history, badge, tip, and
// resource slices become empty arrays so clients never see null.
func userPayload(u *models.User) *models.User {
	out := *u
	if out.PointsHistory == nil {
		out.PointsHistory = []models.PointsEntry{}
	}
	if out.Badges == nil {
		out.Badges = []models.Badge{}
	}
	return &out
}

func actionPayload(a *models.SustainableAction) *models.SustainableAction {
	out := *a
	if out.Tips == nil {
		out.Tips = []string{}
	}
	if out.Resources == nil {
		out.Resources = []models.Resource{}
	}
	return &out
}

// truncate shortens free text to n runes for summary fields, appending an
// ellipsis when anything was cut. Cutting on runes keeps multi-byte text
// valid UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
