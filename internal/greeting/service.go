package greeting

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/logging"
	"github.com/madmatrix/tickethub/internal/metrics"
)

// Generator produces a greeting for an attendee name.
type Generator interface {
	Generate(ctx context.Context, name string) (string, error)
}

// Service wraps a Generator so that a greeting is always available.
type Service struct {
	gen       Generator
	fallbacks []string
	timeout   time.Duration
	pick      func(n int) int
	log       *zap.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPicker replaces the random choice of fallback index.
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) {
		if pick != nil {
			s.pick = pick
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// DefaultFallback is used when no fallbacks are configured.
const DefaultFallback = "Access granted. Protocol initiated."

// NewService returns a greeting service. gen may be nil, in which case only
// fallbacks are served.
func NewService(gen Generator, fallbacks []string, opts ...Option) *Service {
	clean := make([]string, 0, len(fallbacks))
	for _, f := range fallbacks {
		if f = strings.TrimSpace(f); f != "" {
			clean = append(clean, f)
		}
	}
	if len(clean) == 0 {
		clean = []string{DefaultFallback}
	}
	s := &Service{
		gen:       gen,
		fallbacks: clean,
		timeout:   6 * time.Second,
		pick:      rand.IntN,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fallbacks returns the static greetings this service may substitute.
func (s *Service) Fallbacks() []string {
	return append([]string(nil), s.fallbacks...)
}

// Greet never fails: any generator error or timeout yields a fallback.
func (s *Service) Greet(ctx context.Context, name string) domain.Greeting {
	name = strings.TrimSpace(name)
	if s.gen == nil || name == "" {
		return s.fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, name)
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if err != nil || text == "" {
		s.log.Warn("greeting generation failed, using fallback", zap.String("name", name), zap.Error(err))
		return s.fallback()
	}
	s.metrics.Greeting(false)
	return domain.Greeting{Text: text}
}

func (s *Service) fallback() domain.Greeting {
	i := s.pick(len(s.fallbacks))
	if i < 0 || i >= len(s.fallbacks) {
		i = 0
	}
	s.metrics.Greeting(true)
	return domain.Greeting{Text: s.fallbacks[i], Fallback: true}
}
