package app

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/clock"
	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/logging"
)

type AttendeeFinder interface {
	Lookup(ctx context.Context, email string) (domain.Attendee, error)
}

type Greeter interface {
	Greet(ctx context.Context, name string) domain.Greeting
}

type TicketRenderer interface {
	Render(w io.Writer, t domain.Ticket) error
}

type Exporter interface {
	Export(ctx context.Context, t domain.Ticket, format domain.Format) (domain.Artifact, error)
}

// TicketService ties registry lookups to ticket rendering. It keeps no state
// between calls; every preview and export looks the attendee up again.
type TicketService struct {
	finder   AttendeeFinder
	greeter  Greeter
	renderer TicketRenderer
	exporter Exporter
	clock    clock.Clock
	log      *zap.Logger
}

type TicketServiceOption func(*TicketService)

func WithLogger(l *zap.Logger) TicketServiceOption {
	return func(s *TicketService) { s.log = logging.OrNop(l) }
}

func NewTicketService(finder AttendeeFinder, greeter Greeter, renderer TicketRenderer, exporter Exporter, clk clock.Clock, opts ...TicketServiceOption) *TicketService {
	svc := &TicketService{
		finder:   finder,
		greeter:  greeter,
		renderer: renderer,
		exporter: exporter,
		clock:    clk,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type LookupResult struct {
	// ID correlates the log lines of one lookup.
	ID         string
	Attendee   domain.Attendee
	LookedUpAt time.Time
}

func (s *TicketService) Lookup(ctx context.Context, email string) (LookupResult, error) {
	id := uuid.NewString()
	start := s.clock.Now()

	a, err := s.finder.Lookup(ctx, email)
	if err != nil {
		s.log.Info("attendee lookup failed",
			zap.String("lookup_id", id),
			zap.Error(err),
		)
		return LookupResult{}, err
	}
	s.log.Info("attendee found",
		zap.String("lookup_id", id),
		zap.String("source", a.Source),
		zap.String("registration_number", a.RegistrationNumber),
	)
	return LookupResult{ID: id, Attendee: a, LookedUpAt: start}, nil
}

// Greeting never fails; see greeting.Service.
func (s *TicketService) Greeting(ctx context.Context, name string) domain.Greeting {
	return s.greeter.Greet(ctx, name)
}

// Preview writes the ticket HTML for the attendee registered under email.
func (s *TicketService) Preview(ctx context.Context, w io.Writer, email, greeting string) error {
	res, err := s.Lookup(ctx, email)
	if err != nil {
		return err
	}
	return s.renderer.Render(w, domain.TicketFor(res.Attendee, strings.TrimSpace(greeting)))
}

type ExportInput struct {
	Email    string
	Format   string
	Greeting string
}

func (s *TicketService) Export(ctx context.Context, in ExportInput) (domain.Artifact, error) {
	format, err := domain.ParseFormat(in.Format)
	if err != nil {
		return domain.Artifact{}, err
	}
	res, err := s.Lookup(ctx, in.Email)
	if err != nil {
		return domain.Artifact{}, err
	}
	return s.exporter.Export(ctx, domain.TicketFor(res.Attendee, strings.TrimSpace(in.Greeting)), format)
}
