package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotFound_UnknownRoutes(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{
		Tickets: &stubTicketService{attendee: testAttendee},
		Page:    stubPage{},
		Links:   testLinks(),
	})

	for _, path := range []string{"/missing", "/api", "/api/lookups", "/ticket/MM-042", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected status 404, got %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Fatalf("expected json error, got content type %q", got)
			}
			resp := decodeError(t, rec.Body)
			if resp.Code != codeNotFound {
				t.Fatalf("expected code %s, got %s", codeNotFound, resp.Code)
			}
			if resp.Error != "no route for "+path {
				t.Fatalf("unexpected message %q", resp.Error)
			}
		})
	}
}

func TestNotFound_RootServesPage(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Tickets: &stubTicketService{}, Page: stubPage{}, Links: testLinks()})

	req := httptest.NewRequest(http.MethodGet, "/?email=asha%40example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "<form>asha@example.com</form>" {
		t.Fatalf("unexpected page %q", got)
	}
}

func TestNotFound_WithoutPageRenderer(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Tickets: &stubTicketService{}, Links: testLinks()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec.Body); resp.Error != "no route for /" {
		t.Fatalf("unexpected message %q", resp.Error)
	}
}
