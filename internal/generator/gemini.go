package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/conorfennell/flashmind/internal/domain"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var draftSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"front": {Type: genai.TypeString, Description: "The question or front side of the card"},
			"back":  {Type: genai.TypeString, Description: "The answer or back side of the card"},
			"tags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Relevant topic tags",
			},
		},
		Required: []string{"front", "back"},
	},
}

// Gemini generates drafts with the Gemini API.
type Gemini struct {
	apiKey string
	model  string
	logger *slog.Logger
}

// NewGemini returns a Gemini generator. The API key is checked on each call
// so that a missing key surfaces as an ordinary generation failure.
func NewGemini(apiKey, model string, logger *slog.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{apiKey: apiKey, model: model, logger: logger}
}

// Generate sends one request and parses the structured response.
func (g *Gemini) Generate(ctx context.Context, req Request) ([]domain.Draft, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrGenerate)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create client: %v", ErrGenerate, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt(), genai.RoleUser),
		genai.NewContentFromText("--- SOURCE TEXT ---\n"+req.Text, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   draftSchema,
	})
	if err != nil {
		g.logger.Error("Gemini generation error", slog.String("model", g.model), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	drafts, err := parseDrafts(resp.Text())
	if err != nil {
		return nil, err
	}
	valid, dropped := keepValid(drafts)
	if dropped > 0 {
		g.logger.Warn("Dropped incomplete generated cards", slog.Int("dropped", dropped), slog.Int("kept", len(valid)))
	}
	return valid, nil
}

// parseDrafts decodes the JSON array the model returns. An empty response
// yields no drafts.
func parseDrafts(text string) ([]domain.Draft, error) {
	if text == "" {
		return []domain.Draft{}, nil
	}
	var drafts []domain.Draft
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrGenerate, err)
	}
	return drafts, nil
}
