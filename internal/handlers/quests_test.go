package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenlens/internal/models"
	"greenlens/internal/services"
	"greenlens/internal/uploads"
)

type stubQuestService struct {
	completeResult *services.CompletionResult
	completeErr    error
	proofPath      string
}

func (s *stubQuestService) ListAvailable(context.Context, primitive.ObjectID) ([]models.Quest, error) {
	return nil, nil
}

func (s *stubQuestService) ListByStatus(context.Context, primitive.ObjectID, string) ([]models.AssignedQuest, error) {
	return nil, nil
}

func (s *stubQuestService) Assign(context.Context, primitive.ObjectID, string) (*models.AssignedQuest, error) {
	return nil, nil
}

func (s *stubQuestService) Complete(_ context.Context, _ primitive.ObjectID, _, proofPath, _ string) (*services.CompletionResult, error) {
	s.proofPath = proofPath
	return s.completeResult, s.completeErr
}

func (s *stubQuestService) Impact(context.Context, primitive.ObjectID) (*services.ImpactSummary, error) {
	return nil, nil
}

func completeRequest(t *testing.T, assignedID string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="proof.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("description", "planted a tree"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/quests/complete/"+assignedID, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", assignedID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, "user", &models.User{ID: primitive.NewObjectID()})
	return req.WithContext(ctx)
}

func TestCompleteRemovesProofWhenCompletionFails(t *testing.T) {
	dir := t.TempDir()
	store, err := uploads.NewStore(dir, "/uploads")
	require.NoError(t, err)

	svc := &stubQuestService{completeErr: services.NewNotFoundError("active quest not found or does not belong to you")}
	h := NewQuestsHandler(svc, store)

	rec := httptest.NewRecorder()
	h.Complete(rec, completeRequest(t, primitive.NewObjectID().Hex()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, svc.proofPath, "completion should have been attempted with a stored proof")

	// The stored proof must not survive a failed completion.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompleteKeepsProofOnSuccess(t *testing.T) {
	dir := t.TempDir()
	store, err := uploads.NewStore(dir, "/uploads")
	require.NoError(t, err)

	svc := &stubQuestService{completeResult: &services.CompletionResult{
		Message:       "Quest completed successfully!",
		PointsAwarded: 50,
	}}
	h := NewQuestsHandler(svc, store)

	rec := httptest.NewRecorder()
	h.Complete(rec, completeRequest(t, primitive.NewObjectID().Hex()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quest completed successfully!")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
