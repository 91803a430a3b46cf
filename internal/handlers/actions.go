package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"greenlens/internal/middleware"
	"greenlens/internal/models"
	"greenlens/internal/services"
)

type ActionsHandler struct {
	db       *mongo.Database
	validate *validator.Validate
}

func NewActionsHandler(db *mongo.Database) *ActionsHandler {
	return &ActionsHandler{db: db, validate: validator.New()}
}

func (h *ActionsHandler) collection() *mongo.Collection {
	return h.db.Collection("sustainable_actions")
}

type actionRequest struct {
	Title               string            `json:"title" validate:"required"`
	Description         string            `json:"description" validate:"required"`
	Category            string            `json:"category" validate:"required"`
	Difficulty          string            `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	EnvironmentalImpact string            `json:"environmentalImpact" validate:"omitempty,oneof=Low Medium High"`
	PointsAwarded       int               `json:"pointsAwarded" validate:"required,gt=0"`
	Tips                []string          `json:"tips"`
	Resources           []models.Resource `json:"resources"`
}

func (req *actionRequest) toModel() models.SustainableAction {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "Medium"
	}
	impact := req.EnvironmentalImpact
	if impact == "" {
		impact = "Medium"
	}
	tips := req.Tips
	if tips == nil {
		tips = []string{}
	}
	resources := req.Resources
	if resources == nil {
		resources = []models.Resource{}
	}
	return models.SustainableAction{
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		Difficulty:          difficulty,
		EnvironmentalImpact: impact,
		PointsAwarded:       req.PointsAwarded,
		Tips:                tips,
		Resources:           resources,
	}
}

func (h *ActionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidInputError("invalid body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, services.NewInvalidInputError("title, description, category and pointsAwarded are required"))
		return
	}

	action := req.toModel()
	action.CreatedBy = user.ID
	action.CreatedAt = time.Now().UTC()

	result, err := h.collection().InsertOne(r.Context(), action)
	if err != nil {
		writeError(w, services.NewInternalError("could not create action", err))
		return
	}
	action.ID = result.InsertedID.(primitive.ObjectID)
	writeData(w, http.StatusCreated, actionPayload(&action))
}

func (h *ActionsHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.collection().Find(r.Context(), bson.M{})
	if err != nil {
		writeError(w, services.NewInternalError("could not list actions", err))
		return
	}
	var actions []models.SustainableAction
	if err := cursor.All(r.Context(), &actions); err != nil {
		writeError(w, services.NewInternalError("could not decode actions", err))
		return
	}
	out := make([]*models.SustainableAction, 0, len(actions))
	for i := range actions {
		out = append(out, actionPayload(&actions[i]))
	}
	writeData(w, http.StatusOK, out)
}

func (h *ActionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	action, err := h.load(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, actionPayload(action))
}

func (h *ActionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	existing, err := h.load(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing.CreatedBy != user.ID {
		writeError(w, services.NewForbiddenError("not authorized to update this action"))
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidInputError("invalid body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, services.NewInvalidInputError("title, description, category and pointsAwarded are required"))
		return
	}

	updated := req.toModel()
	_, err = h.collection().UpdateOne(r.Context(), bson.M{"_id": existing.ID}, bson.M{"$set": bson.M{
		"title":               updated.Title,
		"description":         updated.Description,
		"category":            updated.Category,
		"difficulty":          updated.Difficulty,
		"environmentalImpact": updated.EnvironmentalImpact,
		"pointsAwarded":       updated.PointsAwarded,
		"tips":                updated.Tips,
		"resources":           updated.Resources,
	}})
	if err != nil {
		writeError(w, services.NewInternalError("could not update action", err))
		return
	}

	updated.ID = existing.ID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	writeData(w, http.StatusOK, actionPayload(&updated))
}

func (h *ActionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	existing, err := h.load(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing.CreatedBy != user.ID {
		writeError(w, services.NewForbiddenError("not authorized to delete this action"))
		return
	}

	if _, err := h.collection().DeleteOne(r.Context(), bson.M{"_id": existing.ID}); err != nil {
		writeError(w, services.NewInternalError("could not delete action", err))
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "action deleted successfully"})
}

func (h *ActionsHandler) load(r *http.Request) (*models.SustainableAction, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return nil, services.NewInvalidInputError("invalid action ID format")
	}
	var action models.SustainableAction
	if err := h.collection().FindOne(r.Context(), bson.M{"_id": id}).Decode(&action); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.NewNotFoundError("action not found")
		}
		return nil, services.NewInternalError("could not load action", err)
	}
	return &action, nil
}
