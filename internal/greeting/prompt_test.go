package greeting

import (
	"errors"
	"strings"
	"testing"

	"github.com/madmatrix/tickethub/internal/domain"
)

func TestPrompt(t *testing.T) {
	t.Parallel()

	p := Prompt("  Asha  ")
	if !strings.HasSuffix(p, "attendee named: Asha") {
		t.Fatalf("prompt does not end with name: %q", p)
	}
	if !strings.Contains(p, "MadMatrix '26") {
		t.Fatalf("prompt missing event name: %q", p)
	}
}

func TestParseOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"greeting":"Welcome, runner."}`, want: "Welcome, runner."},
		{name: "fenced", raw: "```json\n{\"greeting\": \" Neon rain. \"}\n```", want: "Neon rain."},
		{name: "empty", raw: "", wantErr: true},
		{name: "malformed", raw: `{"greeting":`, wantErr: true},
		{name: "blank greeting", raw: `{"greeting":"  "}`, wantErr: true},
		{name: "missing field", raw: `{"quote":"x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseOutput(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrGreetingUnavailable) {
					t.Fatalf("expected ErrGreetingUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
