package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"greenlens/internal/middleware"
	"greenlens/internal/models"
	"greenlens/internal/services"
)

// DisposalHandler stores shareable disposal analysis results and serves
// them back with a share link and QR code.
type DisposalHandler struct {
	db        *mongo.Database
	clientURL string
}

func NewDisposalHandler(db *mongo.Database, clientURL string) *DisposalHandler {
	return &DisposalHandler{db: db, clientURL: strings.TrimRight(clientURL, "/")}
}

var knownDisposalKeys = map[string]bool{
	"id": true, "itemName": true, "itemDescription": true,
	"categories": true, "disposalOptions": true,
	"additionalResources": true, "resourceLink": true,
	"imagePath": true, "userId": true, "createdAt": true,
}

// Create persists a disposal result. Fields beyond the known shape are kept
// so older or newer clients can round-trip whatever they analyzed.
func (h *DisposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, services.NewInvalidInputError("invalid request body"))
		return
	}

	var doc models.DisposalResult
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(w, services.NewInvalidInputError("invalid request body"))
		return
	}
	doc.ID = primitive.NilObjectID
	doc.ImagePath = strings.TrimPrefix(doc.ImagePath, "./")
	doc.CreatedAt = time.Now().UTC()

	// Preserve keys outside the known shape so clients round-trip whatever
	// their analysis produced.
	raw := map[string]interface{}{}
	if err := json.Unmarshal(body, &raw); err == nil {
		doc.Extra = map[string]interface{}{}
		for key, value := range raw {
			if !knownDisposalKeys[key] {
				doc.Extra[key] = value
			}
		}
	}

	if user := middleware.CurrentUser(r); user != nil {
		doc.UserID = &user.ID
	}

	result, err := h.db.Collection("disposal_results").InsertOne(r.Context(), doc)
	if err != nil {
		writeError(w, services.NewInternalError("could not save disposal result", err))
		return
	}
	id := result.InsertedID.(primitive.ObjectID)

	writeData(w, http.StatusCreated, h.payload(id, doc, false))
}

// Get returns a stored result enriched with its share URL and a QR code
// pointing at it. No auth required, results are shareable by link.
func (h *DisposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, services.NewInvalidInputError("invalid result id"))
		return
	}

	var doc models.DisposalResult
	err = h.db.Collection("disposal_results").FindOne(r.Context(), bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, services.NewNotFoundError("disposal result not found"))
		return
	}
	if err != nil {
		writeError(w, services.NewInternalError("could not load disposal result", err))
		return
	}

	writeData(w, http.StatusOK, h.payload(id, doc, true))
}

func (h *DisposalHandler) payload(id primitive.ObjectID, doc models.DisposalResult, share bool) map[string]interface{} {
	out := map[string]interface{}{
		"id":              id.Hex(),
		"itemName":        doc.ItemName,
		"itemDescription": doc.ItemDescription,
		"categories":      doc.Categories,
		"disposalOptions": doc.DisposalOptions,
		"createdAt":       doc.CreatedAt,
	}
	if doc.Categories == nil {
		out["categories"] = []string{}
	}
	if doc.DisposalOptions == nil {
		out["disposalOptions"] = []models.DisposalOption{}
	}
	if doc.AdditionalResources != "" {
		out["additionalResources"] = doc.AdditionalResources
	}
	if doc.ResourceLink != "" {
		out["resourceLink"] = doc.ResourceLink
	}
	if doc.ImagePath != "" {
		out["imagePath"] = doc.ImagePath
	}
	if doc.UserID != nil {
		out["userId"] = doc.UserID.Hex()
	}
	for key, value := range doc.Extra {
		out[key] = value
	}
	if share {
		shareURL := h.clientURL + "/get-rid/" + id.Hex()
		out["shareUrl"] = shareURL
		if png, err := qrcode.Encode(shareURL, qrcode.Low, 256); err == nil {
			out["qrCode"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		}
	}
	return out
}
