package greeting

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/madmatrix/tickethub/internal/domain"
)

const promptTemplate = `You are an AI specializing in crafting short, immersive, and thematic cyberpunk-style welcome messages or quotes for the MadMatrix '26 event. The greeting should feel personalized and enhance the event's immersive experience. It should be concise and evocative of a dystopian, high-tech future.

Generate a unique cyberpunk greeting for the attendee named: %s`

// Prompt returns the fixed prompt with name embedded.
func Prompt(name string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(name))
}

type output struct {
	Greeting string `json:"greeting"`
}

// parseOutput reads the structured {"greeting": "..."} answer. Models sometimes
// wrap JSON in a markdown fence, which is stripped first.
func parseOutput(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrGreetingUnavailable)
	}

	var out output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrGreetingUnavailable, err)
	}
	text := strings.TrimSpace(out.Greeting)
	if text == "" {
		return "", fmt.Errorf("%w: empty greeting", domain.ErrGreetingUnavailable)
	}
	return text, nil
}
