package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"greenlens/internal/middleware"
	"greenlens/internal/models"
	"greenlens/internal/services"
)

type PointsHandler struct {
	db     *mongo.Database
	ledger *services.Ledger
}

func NewPointsHandler(db *mongo.Database, ledger *services.Ledger) *PointsHandler {
	return &PointsHandler{db: db, ledger: ledger}
}

type addPointsRequest struct {
	Points int    `json:"points"`
	Action string `json:"action"`
}

type awardResponse struct {
	User        *models.User `json:"user"`
	PointsAdded int          `json:"pointsAdded"`
	NewTotal    int          `json:"newTotal"`
	Action      string       `json:"action"`
}

func (h *PointsHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req addPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Points == 0 || req.Action == "" {
		writeError(w, services.NewInvalidInputError("please provide points and action description"))
		return
	}

	updated, err := h.ledger.AwardPoints(r.Context(), user.ID, req.Points, req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, awardResponse{
		User:        userPayload(updated),
		PointsAdded: req.Points,
		NewTotal:    updated.Points,
		Action:      req.Action,
	})
}

type historyResponse struct {
	Points  int                  `json:"points"`
	History []models.PointsEntry `json:"history"`
}

func (h *PointsHandler) History(w http.ResponseWriter, r *http.Request) {
	user := userPayload(middleware.CurrentUser(r))
	writeData(w, http.StatusOK, historyResponse{
		Points:  user.Points,
		History: user.PointsHistory,
	})
}

type recordActionRequest struct {
	ActionID         string `json:"actionId"`
	ProofDescription string `json:"proofDescription"`
}

// RecordAction awards the fixed points of a catalog action to the caller.
func (h *PointsHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req recordActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActionID == "" {
		writeError(w, services.NewInvalidInputError("please provide actionId"))
		return
	}
	actionID, err := primitive.ObjectIDFromHex(req.ActionID)
	if err != nil {
		writeError(w, services.NewInvalidInputError("invalid action ID format"))
		return
	}

	var action models.SustainableAction
	err = h.db.Collection("sustainable_actions").FindOne(r.Context(), bson.M{"_id": actionID}).Decode(&action)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, services.NewNotFoundError("sustainable action not found"))
			return
		}
		writeError(w, services.NewInternalError("could not load action", err))
		return
	}

	proof := req.ProofDescription
	if proof == "" {
		proof = "No description provided"
	}
	label := "Completed " + action.Title + ": " + proof

	updated, err := h.ledger.AwardPoints(r.Context(), user.ID, action.PointsAwarded, label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, awardResponse{
		User:        userPayload(updated),
		PointsAdded: action.PointsAwarded,
		NewTotal:    updated.Points,
		Action:      action.Title,
	})
}
