package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrUnavailable is returned by the disabled generator when no API key is
// configured. Callers degrade to fallback content instead of failing hard.
var ErrUnavailable = errors.New("generative model unavailable")

// Generator produces free-text model output for a text prompt, optionally
// grounded on an image. Responses are untrusted and usually contain an
// embedded JSON payload; see extract.go.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

// Config wires Gemini access.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
}

// GeminiGenerator talks to Gemini 2.0 Flash.
type GeminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiGenerator returns a Generator backed by Gemini, or the disabled
// generator when no API key is configured.
func NewGeminiGenerator(ctx context.Context, cfg Config) (Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return disabledGenerator{}, nil
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model, maxTokens: maxTokens}, nil
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return g.generate(ctx, contents)
}

func (g *GeminiGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return g.generate(ctx, contents)
}

func (g *GeminiGenerator) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: int32(g.maxTokens),
	})
	if err != nil {
		return "", err
	}
	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", errors.New("gemini returned empty response")
	}
	return output, nil
}

// disabledGenerator stands in when GEMINI_API_KEY is missing so the rest of
// the API keeps working.
type disabledGenerator struct{}

func (disabledGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "", ErrUnavailable
}

func (disabledGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return "", ErrUnavailable
}
