package greeting

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/madmatrix/tickethub/internal/domain"
)

// GeminiGenerator asks a Gemini model for the greeting.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator for the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, name string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"greeting": {
					Type:        genai.TypeString,
					Description: "A unique, short, and thematic cyberpunk-style welcome message or quote.",
				},
			},
			Required: []string{"greeting"},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(name)), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: generate: %v", domain.ErrGreetingUnavailable, err)
	}
	return parseOutput(resp.Text())
}
