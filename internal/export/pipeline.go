package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/madmatrix/tickethub/internal/clock"
	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/logging"
	"github.com/madmatrix/tickethub/internal/metrics"
)

// TicketRenderer is the part of ticket.Renderer the pipeline needs.
type TicketRenderer interface {
	Render(w io.Writer, t domain.Ticket) error
	Size() (width, height int)
}

// Pipeline renders, captures and encodes tickets.
type Pipeline struct {
	renderer    TicketRenderer
	rasterizer  Rasterizer
	clock       clock.Clock
	sem         *semaphore.Weighted
	jpegQuality int
	timeout     time.Duration
	log         *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*Pipeline)

func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithMaxConcurrent bounds the number of captures running at once.
func WithMaxConcurrent(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithJPEGQuality(q int) Option {
	return func(p *Pipeline) {
		if q >= 1 && q <= 100 {
			p.jpegQuality = q
		}
	}
}

// WithTimeout bounds a single export including the wait for a capture slot.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func NewPipeline(renderer TicketRenderer, rasterizer Rasterizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer:    renderer,
		rasterizer:  rasterizer,
		clock:       clock.NewSystem(),
		sem:         semaphore.NewWeighted(2),
		jpegQuality: 95,
		timeout:     45 * time.Second,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Export produces the artifact for t. An unknown format is
// domain.ErrUnsupportedFormat; every other failure wraps domain.ErrRenderFailed.
func (p *Pipeline) Export(ctx context.Context, t domain.Ticket, format domain.Format) (domain.Artifact, error) {
	switch format {
	case domain.FormatPNG, domain.FormatJPEG, domain.FormatPDF:
	default:
		return domain.Artifact{}, domain.ErrUnsupportedFormat
	}

	start := time.Now()
	art, err := p.export(ctx, t, format)
	status := "ok"
	if err != nil {
		status = "error"
		p.log.Error("ticket export failed",
			zap.String("format", string(format)),
			zap.String("registration_number", t.RegistrationNumber),
			zap.Error(err),
		)
		err = fmt.Errorf("%w: %w", domain.ErrRenderFailed, err)
	} else {
		p.log.Info("ticket exported",
			zap.String("format", string(format)),
			zap.String("filename", art.Filename),
			zap.Int("bytes", len(art.Data)),
			zap.Duration("duration", time.Since(start)),
		)
	}
	p.metrics.Export(string(format), status, time.Since(start).Seconds())
	return art, err
}

func (p *Pipeline) export(ctx context.Context, t domain.Ticket, format domain.Format) (domain.Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var html bytes.Buffer
	if err := p.renderer.Render(&html, t); err != nil {
		return domain.Artifact{}, err
	}
	width, height := p.renderer.Size()

	capture, err := p.capture(ctx, html.String(), width, height)
	if err != nil {
		return domain.Artifact{}, err
	}
	pxW, pxH, err := pngSize(capture)
	if err != nil {
		return domain.Artifact{}, err
	}

	art := domain.Artifact{
		Filename:    Filename(t.RegistrationNumber, format),
		ContentType: format.ContentType(),
		Width:       pxW,
		Height:      pxH,
	}
	switch format {
	case domain.FormatPNG:
		art.Data = capture
	case domain.FormatJPEG:
		art.Data, err = toJPEG(capture, p.jpegQuality)
	case domain.FormatPDF:
		title := "Permit " + t.RegistrationNumber
		art.Data, err = toPDF(capture, float64(width), float64(height), p.clock.Now(), title)
	}
	if err != nil {
		return domain.Artifact{}, err
	}
	return art, nil
}

func (p *Pipeline) capture(ctx context.Context, html string, width, height int) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for capture slot: %w", err)
	}
	defer p.sem.Release(1)

	data, err := p.rasterizer.Capture(ctx, html, width, height)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty capture")
	}
	return data, nil
}

// Close releases the rasterizer.
func (p *Pipeline) Close() error {
	return p.rasterizer.Close()
}
