package registry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/logging"
	"github.com/madmatrix/tickethub/internal/metrics"
)

// Client searches the registry sources in priority order.
type Client struct {
	sources     []Source
	rule        MatchRule
	timeout     time.Duration
	parallel    bool
	maxInFlight int
	log         *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*Client)

// WithMatchRule overrides the default MatchAny rule.
func WithMatchRule(rule MatchRule) Option {
	return func(c *Client) {
		if rule != "" {
			c.rule = rule
		}
	}
}

// WithTimeout bounds every single source fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithParallel fetches up to maxInFlight sources at once. The answer is still
// the first matching source in priority order.
func WithParallel(maxInFlight int) Option {
	return func(c *Client) {
		c.parallel = true
		if maxInFlight > 0 {
			c.maxInFlight = maxInFlight
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(sources []Source, opts ...Option) *Client {
	c := &Client{
		sources:     sources,
		rule:        MatchAny,
		timeout:     15 * time.Second,
		maxInFlight: len(sources),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the attendee for email. A miss across every usable source is
// domain.ErrAttendeeNotFound; when no source answers at all the error is
// domain.ErrRegistryUnavailable.
func (c *Client) Lookup(ctx context.Context, email string) (domain.Attendee, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.Attendee{}, domain.ErrEmailRequired
	}
	if len(c.sources) == 0 {
		return domain.Attendee{}, domain.ErrRegistryUnavailable
	}

	if c.parallel {
		return c.lookupParallel(ctx, email)
	}
	return c.lookupSequential(ctx, email)
}

func (c *Client) lookupSequential(ctx context.Context, email string) (domain.Attendee, error) {
	usable := 0
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return domain.Attendee{}, err
		}
		rows, err := c.fetch(ctx, src)
		if err != nil {
			continue
		}
		usable++
		if row, ok := FindRow(rows, email, c.rule); ok {
			return c.found(src, row, email), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.Attendee{}, err
	}
	return domain.Attendee{}, c.miss(usable)
}

type fetchResult struct {
	rows []domain.RegistryRow
	err  error
}

func (c *Client) lookupParallel(ctx context.Context, email string) (domain.Attendee, error) {
	ctx, cancel := context.WithCancel(ctx)

	results := make([]chan fetchResult, len(c.sources))
	for i := range results {
		results[i] = make(chan fetchResult, 1)
	}

	// Scheduling runs on its own goroutine so that a full limit never blocks
	// reading the results in priority order.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(c.maxInFlight)
		for i, src := range c.sources {
			i, src := i, src
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					results[i] <- fetchResult{err: err}
					return nil
				}
				rows, err := c.fetch(ctx, src)
				results[i] <- fetchResult{rows: rows, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()
	defer func() {
		cancel()
		<-done
	}()

	usable := 0
	for i, src := range c.sources {
		var res fetchResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			return domain.Attendee{}, ctx.Err()
		}
		if res.err != nil {
			continue
		}
		usable++
		if row, ok := FindRow(res.rows, email, c.rule); ok {
			return c.found(src, row, email), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.Attendee{}, err
	}
	return domain.Attendee{}, c.miss(usable)
}

func (c *Client) fetch(ctx context.Context, src Source) ([]domain.RegistryRow, error) {
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	rows, err := src.Fetch(fctx)
	if err != nil {
		status := "error"
		if errors.Is(err, context.Canceled) {
			status = "canceled"
		} else {
			c.log.Warn("registry source failed, skipping",
				zap.String("source", src.Name()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
		c.metrics.RegistryRequest(src.Name(), status)
		return nil, err
	}
	c.metrics.RegistryRequest(src.Name(), "ok")
	c.log.Debug("registry source fetched",
		zap.String("source", src.Name()),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return rows, nil
}

func (c *Client) found(src Source, row domain.RegistryRow, email string) domain.Attendee {
	a := Normalize(row, email)
	a.Source = src.Name()
	c.metrics.Lookup("found")
	return a
}

func (c *Client) miss(usable int) error {
	if usable == 0 {
		c.metrics.Lookup("unavailable")
		return domain.ErrRegistryUnavailable
	}
	c.metrics.Lookup("not_found")
	return domain.ErrAttendeeNotFound
}
