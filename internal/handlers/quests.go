package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenlens/internal/middleware"
	"greenlens/internal/models"
	"greenlens/internal/services"
	"greenlens/internal/uploads"
)

// questService is the quest surface the handler needs; *services.Quests
// satisfies it.
type questService interface {
	ListAvailable(ctx context.Context, userID primitive.ObjectID) ([]models.Quest, error)
	ListByStatus(ctx context.Context, userID primitive.ObjectID, status string) ([]models.AssignedQuest, error)
	Assign(ctx context.Context, userID primitive.ObjectID, questID string) (*models.AssignedQuest, error)
	Complete(ctx context.Context, userID primitive.ObjectID, assignedID, proofPath, description string) (*services.CompletionResult, error)
	Impact(ctx context.Context, userID primitive.ObjectID) (*services.ImpactSummary, error)
}

type QuestsHandler struct {
	quests questService
	store  *uploads.Store
}

func NewQuestsHandler(quests questService, store *uploads.Store) *QuestsHandler {
	return &QuestsHandler{quests: quests, store: store}
}

func (h *QuestsHandler) Available(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	quests, err := h.quests.ListAvailable(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, quests)
}

func (h *QuestsHandler) Active(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.AssignmentActive)
}

func (h *QuestsHandler) Completed(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.AssignmentCompleted)
}

func (h *QuestsHandler) listByStatus(w http.ResponseWriter, r *http.Request, status string) {
	user := middleware.CurrentUser(r)
	assignments, err := h.quests.ListByStatus(r.Context(), user.ID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, assignments)
}

func (h *QuestsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	assignment, err := h.quests.Assign(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, assignment)
}

// Complete accepts multipart proof (an image under 5 MiB plus an optional
// description), stores it, and settles the assignment.
func (h *QuestsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	assignedID := chi.URLParam(r, "id")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, services.NewInvalidInputError("proof image is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := uploads.ValidateImage(contentType, header.Size); err != nil {
		writeError(w, imageValidationError(err))
		return
	}
	contents, err := io.ReadAll(io.LimitReader(file, uploads.MaxImageSize+1))
	if err != nil {
		writeError(w, services.NewInternalError("could not read upload", err))
		return
	}
	if err := uploads.ValidateImage(contentType, int64(len(contents))); err != nil {
		writeError(w, imageValidationError(err))
		return
	}

	proofPath, err := h.store.Save("quest_"+assignedID, header.Filename, contents)
	if err != nil {
		writeError(w, services.NewInternalError("could not store proof image", err))
		return
	}

	result, err := h.quests.Complete(r.Context(), user.ID, assignedID, proofPath, r.FormValue("description"))
	if err != nil {
		// The stored proof is an orphan if the completion did not settle.
		if rmErr := h.store.Remove(proofPath); rmErr != nil {
			slog.Warn("could not remove proof image after failed completion", slog.Any("err", rmErr))
		}
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *QuestsHandler) Impact(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	summary, err := h.quests.Impact(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func imageValidationError(err error) error {
	switch err {
	case uploads.ErrNotImage:
		return services.NewInvalidInputError("not an image; please upload only images")
	case uploads.ErrTooLarge:
		return services.NewInvalidInputError("image too large; please upload an image under 5MB")
	default:
		return services.NewInvalidInputError("invalid upload")
	}
}
