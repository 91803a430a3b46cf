package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"greenlens/internal/ai"
	"greenlens/internal/middleware"
	"greenlens/internal/services"
	"greenlens/internal/uploads"
)

type ImageHandler struct {
	gen    ai.Generator
	store  *uploads.Store
	ledger *services.Ledger
}

func NewImageHandler(gen ai.Generator, store *uploads.Store, ledger *services.Ledger) *ImageHandler {
	return &ImageHandler{gen: gen, store: store, ledger: ledger}
}

const acquirePrompt = `Analyze this image and provide sustainable alternatives in the following JSON format:
{
    "itemName": "Name of the item in the image",
    "itemDescription": "Brief description of what you see",
    "categories": ["Category1", "Category2"],
    "disposalOptions": [
        {
            "method": "Sustainable Alternative 1",
            "description": "Detailed description",
            "steps": ["Step 1", "Step 2", "Step 3"],
            "environmentalImpact": "Environmental benefits"
        }
    ],
    "additionalResources": "Additional information",
    "resourceLink": "URL for more information"
}`

const disposePrompt = `Analyze this image and provide disposal/recycling options in the following JSON format:
{
    "itemName": "Name of the item in the image",
    "itemDescription": "Brief description of what you see",
    "categories": ["Category1", "Category2"],
    "disposalOptions": [
        {
            "method": "Disposal Method 1",
            "description": "Detailed description",
            "steps": ["Step 1", "Step 2", "Step 3"],
            "environmentalImpact": "Environmental impact explanation"
        }
    ],
    "additionalResources": "Additional recycling information",
    "resourceLink": "URL for more information"
}`

// Analyze runs the vision model over an uploaded image and returns
// structured disposal or acquisition suggestions. Model output that is not
// parseable JSON degrades to a raw-text wrapper instead of failing.
func (h *ImageHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	contents, contentType, path, err := h.acceptImage(w, r)
	if err != nil {
		return // response already written
	}

	context := r.FormValue("context")
	prompt := disposePrompt
	if context == "acquire" {
		prompt = acquirePrompt
	}

	text, err := h.gen.GenerateFromImage(r.Context(), prompt, contentType, contents)
	if err != nil {
		// The saved upload is useless without a result.
		if rmErr := h.store.Remove(path); rmErr != nil {
			slog.Warn("could not remove upload after failed analysis", slog.Any("err", rmErr))
		}
		writeError(w, services.NewUpstreamError("image analysis failed", err))
		return
	}

	var result map[string]interface{}
	if !ai.ExtractObject(text, &result) {
		result = rawAnalysisFallback(text)
	}
	result["imagePath"] = path

	if user := middleware.CurrentUser(r); user != nil {
		label := "Sought recycling/reuse suggestions"
		if context == "acquire" {
			label = "Searched for eco-friendly alternatives"
		}
		if _, err := h.ledger.AwardPoints(r.Context(), user.ID, 5, label); err != nil {
			slog.Warn("could not award analysis points", slog.Any("err", err))
		}
	}

	writeData(w, http.StatusOK, result)
}

// rawAnalysisFallback wraps unparseable model output in the analysis shape.
func rawAnalysisFallback(text string) map[string]interface{} {
	return map[string]interface{}{
		"itemName":        "Analysis Result",
		"itemDescription": truncate(text, 200),
		"categories":      []string{},
		"disposalOptions": []map[string]interface{}{{
			"method":              "General Guidelines",
			"description":         text,
			"steps":               []string{},
			"environmentalImpact": "Please consult local recycling guidelines.",
		}},
		"additionalResources": "Contact your local recycling center for specific guidelines.",
	}
}

// Identify names the item in an uploaded image.
func (h *ImageHandler) Identify(w http.ResponseWriter, r *http.Request) {
	contents, contentType, path, err := h.acceptImage(w, r)
	if err != nil {
		return
	}

	prompt := "Briefly identify what's in this image. Just provide the name of the item or product category you see. Keep it short and concise."
	text, err := h.gen.GenerateFromImage(r.Context(), prompt, contentType, contents)
	if err != nil {
		if rmErr := h.store.Remove(path); rmErr != nil {
			slog.Warn("could not remove upload after failed identification", slog.Any("err", rmErr))
		}
		writeError(w, services.NewUpstreamError("image identification failed", err))
		return
	}

	writeData(w, http.StatusOK, map[string]string{"itemName": strings.TrimSpace(text)})
}

type findProductsRequest struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Category string `json:"category"`
}

// FindProducts asks the model for local sustainable product suggestions.
func (h *ImageHandler) FindProducts(w http.ResponseWriter, r *http.Request) {
	var req findProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, services.NewInvalidInputError("please provide a search query"))
		return
	}
	location := req.Location
	if location == "" {
		location = "nearby stores"
	}

	var sb strings.Builder
	sb.WriteString("Find sustainable and eco-friendly " + req.Query + " available in " + location + ".\n")
	if req.Category != "" {
		sb.WriteString("Focus on the " + req.Category + " category.\n")
	}
	sb.WriteString(`Return information about reusable, recyclable, and environmentally friendly options.
For each product, provide the name, description, where to find it locally, approximate price, and environmental benefits.
Format the response as JSON with an array of 'products' containing 'name', 'description', 'whereToBuy', 'price', and 'environmentalBenefits' fields.`)

	text, err := h.gen.GenerateText(r.Context(), sb.String())
	if err != nil {
		writeError(w, services.NewUpstreamError("product search failed", err))
		return
	}

	var products map[string]interface{}
	if !ai.ExtractObject(text, &products) {
		products = map[string]interface{}{"rawResponse": text}
	}

	if user := middleware.CurrentUser(r); user != nil {
		if _, err := h.ledger.AwardPoints(r.Context(), user.ID, 3, "Searched for local eco-friendly products"); err != nil {
			slog.Warn("could not award product search points", slog.Any("err", err))
		}
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"query":    req.Query,
		"location": location,
	})
}

// acceptImage validates and stores a multipart image upload. On failure the
// error response has already been written.
func (h *ImageHandler) acceptImage(w http.ResponseWriter, r *http.Request) (contents []byte, contentType, path string, err error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, services.NewInvalidInputError("image file is required"))
		return nil, "", "", err
	}
	defer file.Close()

	contentType = header.Header.Get("Content-Type")
	if vErr := uploads.ValidateImage(contentType, header.Size); vErr != nil {
		writeError(w, imageValidationError(vErr))
		return nil, "", "", vErr
	}
	contents, err = io.ReadAll(io.LimitReader(file, uploads.MaxImageSize+1))
	if err != nil {
		writeError(w, services.NewInternalError("could not read upload", err))
		return nil, "", "", err
	}
	if vErr := uploads.ValidateImage(contentType, int64(len(contents))); vErr != nil {
		writeError(w, imageValidationError(vErr))
		return nil, "", "", vErr
	}

	path, err = h.store.Save("", header.Filename, contents)
	if err != nil {
		writeError(w, services.NewInternalError("could not store upload", err))
		return nil, "", "", err
	}
	return contents, contentType, path, nil
}
