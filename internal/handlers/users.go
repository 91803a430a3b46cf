package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenlens/internal/models"
	"greenlens/internal/services"
)

type UsersHandler struct {
	ledger *services.Ledger
}

func NewUsersHandler(ledger *services.Ledger) *UsersHandler {
	return &UsersHandler{ledger: ledger}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]*models.User, 0, len(users))
	for i := range users {
		out = append(out, userPayload(&users[i]))
	}
	writeData(w, http.StatusOK, out)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, services.NewInvalidInputError("invalid user ID format"))
		return
	}
	user, err := h.ledger.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, userPayload(user))
}
