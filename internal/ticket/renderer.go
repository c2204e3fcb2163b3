// Package ticket renders the entry permit and the retrieval page as HTML.
package ticket

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/madmatrix/tickethub/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// ElementID is the id of the ticket element inside the rendered document.
const ElementID = "ticket"

// Background is the page color behind the ticket, also used to flatten JPEGs.
const Background = "#050000"

// Layout holds the fixed event branding printed on every ticket.
type Layout struct {
	Width         int
	Height        int
	EventName     string
	Tagline       string
	Dates         string
	Year          string
	Campus        string
	Venue         string
	Organizer     string
	LogoURL       string
	BackgroundURL string
}

// PageData feeds the retrieval page.
type PageData struct {
	EventName string
	Year      string
	Organizer string
	// Email prefills the form, e.g. when the page is opened from a link.
	Email string
}

type ticketView struct {
	Layout
	Name               string
	RegistrationNumber string
	Greeting           string
	QR                 template.URL
	ElementID          string
	Stub               string
}

type Renderer struct {
	layout Layout
	qr     QR
	tmpl   *template.Template
}

func NewRenderer(layout Layout, qr QR) (*Renderer, error) {
	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, fmt.Errorf("ticket size must be positive, got %dx%d", layout.Width, layout.Height)
	}
	tmpl, err := template.New("ticket").Funcs(template.FuncMap{
		"upper":     strings.ToUpper,
		"shortYear": shortYear,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{layout: layout, qr: qr, tmpl: tmpl}, nil
}

// Size returns the ticket size in CSS pixels.
func (r *Renderer) Size() (width, height int) {
	return r.layout.Width, r.layout.Height
}

// Layout is the layout the renderer was built with. The share text and the
// lookup response read the event name and ticket size from it.
func (r *Renderer) Layout() Layout { return r.layout }

// Render writes a standalone HTML document holding only the ticket.
func (r *Renderer) Render(w io.Writer, t domain.Ticket) error {
	src, err := r.qr.Source(t.RegistrationNumber)
	if err != nil {
		return err
	}
	view := ticketView{
		Layout:             r.layout,
		Name:               t.Name,
		RegistrationNumber: t.RegistrationNumber,
		Greeting:           strings.TrimSpace(t.Greeting),
		QR:                 src,
		ElementID:          ElementID,
		Stub:               fmt.Sprintf("%s, %s", r.layout.Dates, r.layout.Year),
	}
	if err := r.tmpl.ExecuteTemplate(w, "ticket.html", view); err != nil {
		return fmt.Errorf("render ticket: %w", err)
	}
	return nil
}

// RenderPage writes the email form page.
func (r *Renderer) RenderPage(w io.Writer, p PageData) error {
	if p.EventName == "" {
		p.EventName = r.layout.EventName
	}
	if p.Year == "" {
		p.Year = r.layout.Year
	}
	if p.Organizer == "" {
		p.Organizer = r.layout.Organizer
	}
	if err := r.tmpl.ExecuteTemplate(w, "page.html", p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// shortYear turns "2026" into "26".
func shortYear(y string) string {
	if len(y) <= 2 {
		return y
	}
	return y[len(y)-2:]
}
