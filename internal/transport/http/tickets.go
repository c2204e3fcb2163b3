package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/madmatrix/tickethub/internal/app"
	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/ticket"
)

// TicketService is the minimal interface needed by the ticket endpoints.
type TicketService interface {
	Lookup(ctx context.Context, email string) (app.LookupResult, error)
	Greeting(ctx context.Context, name string) domain.Greeting
	Preview(ctx context.Context, w io.Writer, email, greeting string) error
	Export(ctx context.Context, in app.ExportInput) (domain.Artifact, error)
}

// TicketLinks describes how lookup answers point back at this server.
type TicketLinks struct {
	// PublicURL prefixes links meant to leave the browser, e.g. share links.
	PublicURL string
	EventName string
	Width     int
	Height    int
	// Share builds the share link for a registration number and ticket URL.
	Share func(eventName, regNo, ticketURL string) string
}

const maxLookupBody = 1 << 12

// HandleLookup returns an HTTP handler that resolves an email to an attendee.
func HandleLookup(svc TicketService, links TicketLinks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}

		var req lookupRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLookupBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeServiceError(w, domain.ErrEmailRequired)
			return
		}

		res, err := svc.Lookup(r.Context(), req.Email)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		a := res.Attendee
		ticketURL := "/ticket?" + url.Values{"email": {a.Email}}.Encode()
		shareTarget := ""
		if links.PublicURL != "" {
			shareTarget = strings.TrimRight(links.PublicURL, "/") + ticketURL
		}
		share := ""
		if links.Share != nil {
			share = links.Share(links.EventName, a.RegistrationNumber, shareTarget)
		}

		resp := lookupResponse{
			LookupID: res.ID,
			Attendee: attendeeResponse{
				Name:               a.Name,
				RegistrationNumber: a.RegistrationNumber,
				Email:              a.Email,
				Source:             a.Source,
			},
			Ticket:    ticketSize{Width: links.Width, Height: links.Height},
			TicketURL: ticketURL,
			Downloads: downloads{
				PNG:  exportURL(a.Email, domain.FormatPNG),
				JPEG: exportURL(a.Email, domain.FormatJPEG),
				PDF:  exportURL(a.Email, domain.FormatPDF),
			},
			ShareURL: share,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func exportURL(email string, f domain.Format) string {
	return "/api/export?" + url.Values{"email": {email}, "format": {string(f)}}.Encode()
}

// HandleGreeting returns an HTTP handler serving a greeting for ?name=.
func HandleGreeting(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		g := svc.Greeting(r.Context(), r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(greetingResponse{Greeting: g.Text, Fallback: g.Fallback})
	}
}

// HandleTicket returns an HTTP handler rendering the ticket preview.
func HandleTicket(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		q := r.URL.Query()

		var buf bytes.Buffer
		if err := svc.Preview(r.Context(), &buf, q.Get("email"), q.Get("greeting")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	}
}

// HandleExport returns an HTTP handler streaming the permit as a download.
func HandleExport(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		q := r.URL.Query()

		art, err := svc.Export(r.Context(), app.ExportInput{
			Email:    q.Get("email"),
			Format:   q.Get("format"),
			Greeting: q.Get("greeting"),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", art.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(art.Data)
	}
}

// PageRenderer is the minimal interface needed to serve the form page.
type PageRenderer interface {
	RenderPage(w io.Writer, p ticket.PageData) error
}

// HandlePage returns an HTTP handler for the form page at "/". Every other
// path is a JSON 404.
func HandlePage(page PageRenderer) http.HandlerFunc {
	notFound := NotFoundHandler()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			notFound.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, "GET, HEAD")
			return
		}

		var buf bytes.Buffer
		if err := page.RenderPage(&buf, ticket.PageData{Email: r.URL.Query().Get("email")}); err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}

type lookupRequest struct {
	Email string `json:"email"`
}

type attendeeResponse struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Email              string `json:"email"`
	Source             string `json:"source"`
}

type ticketSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type downloads struct {
	PNG  string `json:"png"`
	JPEG string `json:"jpeg"`
	PDF  string `json:"pdf"`
}

type lookupResponse struct {
	LookupID  string           `json:"lookup_id"`
	Attendee  attendeeResponse `json:"attendee"`
	Ticket    ticketSize       `json:"ticket"`
	TicketURL string           `json:"ticket_url"`
	Downloads downloads        `json:"downloads"`
	ShareURL  string           `json:"share_url"`
}

type greetingResponse struct {
	Greeting string `json:"greeting"`
	Fallback bool   `json:"fallback"`
}
