package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/madmatrix/tickethub/internal/domain"
)

func corsRouter(origins ...string) http.Handler {
	return NewRouter(RouterDeps{
		Tickets: &stubTicketService{
			attendee: testAttendee,
			artifact: domain.Artifact{
				Filename:    "MadMatrix_Permit_MM-042.png",
				ContentType: "image/png",
				Data:        []byte("\x89PNG"),
			},
		},
		Page:        stubPage{},
		Links:       testLinks(),
		CORSOrigins: origins,
	})
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		origins        []string
		origin         string
		expectedStatus int
		expectedAllow  string
	}{
		{name: "listed origin", origins: []string{"http://localhost:5173"}, origin: "http://localhost:5173", expectedStatus: http.StatusNoContent, expectedAllow: "http://localhost:5173"},
		{name: "listed with trailing slash", origins: []string{"https://madmatrix.site/"}, origin: "https://madmatrix.site", expectedStatus: http.StatusNoContent, expectedAllow: "https://madmatrix.site"},
		{name: "wildcard", origins: []string{"*"}, origin: "http://anywhere.test", expectedStatus: http.StatusNoContent, expectedAllow: "*"},
		{name: "unlisted origin", origins: []string{"http://localhost:5173"}, origin: "http://evil.local", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodOptions, "/api/lookup", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()

			corsRouter(tt.origins...).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.expectedAllow {
				t.Fatalf("expected allow origin %q, got %q", tt.expectedAllow, got)
			}
			if tt.expectedStatus != http.StatusNoContent {
				if resp := decodeError(t, rec.Body); resp.Code != codeForbidden {
					t.Fatalf("expected code %s, got %s", codeForbidden, resp.Code)
				}
				return
			}
			if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
				t.Fatalf("expected Content-Type allowed, got %q", got)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
				t.Fatalf("expected max age 600, got %q", got)
			}
		})
	}
}

func TestCORS_DownloadExposesFilename(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/export?email=asha%40example.com&format=png", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	corsRouter("http://localhost:3000").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allow origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "Content-Disposition" {
		t.Fatalf("expected Content-Disposition exposed, got %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=MadMatrix_Permit_MM-042.png" {
		t.Fatalf("unexpected content disposition %q", got)
	}
}

func TestCORS_JSONRoutesExposeNothing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/greeting?name=Asha", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	corsRouter("http://localhost:3000").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "" {
		t.Fatalf("expected no exposed headers, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORS_UnlistedSimpleRequestPassesWithoutHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec := httptest.NewRecorder()

	corsRouter("http://localhost:3000").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin, got %q", got)
	}
}
