package handlers

import (
	"net/http"
	"strconv"

	"greenlens/internal/services"
)

type LeaderboardHandler struct {
	leaderboard *services.Leaderboard
}

func NewLeaderboardHandler(leaderboard *services.Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

type leaderboardResponse struct {
	Users      []services.RankedUser `json:"users"`
	Pagination *services.Pagination  `json:"pagination"`
}

func (h *LeaderboardHandler) Rank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, services.NewInvalidInputError("page must be a positive integer"))
			return
		}
		page = n
	}
	limit := 10
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, services.NewInvalidInputError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	timeframe := q.Get("timeframe")
	if timeframe == "" {
		timeframe = services.TimeframeAll
	}

	users, pagination, err := h.leaderboard.Rank(r.Context(), timeframe, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, leaderboardResponse{Users: users, Pagination: pagination})
}

func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.leaderboard.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
