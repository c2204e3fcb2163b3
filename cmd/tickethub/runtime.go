package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/app"
	"github.com/madmatrix/tickethub/internal/clock"
	"github.com/madmatrix/tickethub/internal/config"
	"github.com/madmatrix/tickethub/internal/export"
	"github.com/madmatrix/tickethub/internal/greeting"
	"github.com/madmatrix/tickethub/internal/metrics"
	"github.com/madmatrix/tickethub/internal/registry"
	"github.com/madmatrix/tickethub/internal/ticket"
)

// runtime holds the wired components shared by the commands.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	pool     *pgxpool.Pool
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	renderer *ticket.Renderer
	pipeline *export.Pipeline
	tickets  *app.TicketService
}

func openPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

func newRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.metrics = metrics.New(rt.registry)

	if cfg.Database.URL != "" {
		pool, err := openPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		rt.pool = pool
	}

	sources, err := registry.NewSources(cfg.Registry.Sources, registry.Deps{
		HTTPClient: registry.NewHTTPClient(cfg.Registry.Timeout),
		Pool:       rt.pool,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	opts := []registry.Option{
		registry.WithMatchRule(registry.MatchRule(cfg.Registry.Match)),
		registry.WithTimeout(cfg.Registry.Timeout),
		registry.WithLogger(log.Named("registry")),
		registry.WithMetrics(rt.metrics),
	}
	if cfg.Registry.Parallel {
		opts = append(opts, registry.WithParallel(cfg.Registry.MaxInFlight))
	}
	finder := registry.NewClient(sources, opts...)

	var gen greeting.Generator
	if cfg.Greeting.Provider == "gemini" {
		if cfg.Greeting.APIKey == "" {
			log.Warn("GEMINI_API_KEY not set, serving static greetings only")
		} else {
			g, err := greeting.NewGeminiGenerator(ctx, cfg.Greeting.APIKey, cfg.Greeting.Model)
			if err != nil {
				log.Warn("greeting generator unavailable, serving static greetings only", zap.Error(err))
			} else {
				gen = g
			}
		}
	}
	greeter := greeting.NewService(gen, cfg.Greeting.Fallbacks,
		greeting.WithTimeout(cfg.Greeting.Timeout),
		greeting.WithLogger(log.Named("greeting")),
		greeting.WithMetrics(rt.metrics),
	)

	t := cfg.Ticket
	rt.renderer, err = ticket.NewRenderer(ticket.Layout{
		Width:         t.Width,
		Height:        t.Height,
		EventName:     t.EventName,
		Tagline:       t.Tagline,
		Dates:         t.Dates,
		Year:          t.Year,
		Campus:        t.Campus,
		Venue:         t.Venue,
		Organizer:     t.Organizer,
		LogoURL:       t.LogoURL,
		BackgroundURL: t.BackgroundURL,
	}, ticket.QR{Mode: t.QR.Mode, Payload: t.QR.Payload, BaseURL: t.QR.BaseURL, Size: t.QR.Size})
	if err != nil {
		rt.Close()
		return nil, err
	}

	e := cfg.Export
	raster := export.NewRodRasterizer(export.RodOptions{
		Scale:         e.Scale,
		ImageAttempts: e.ImageAttempts,
		PollDelay:     e.PollDelay,
		SettleDelay:   e.SettleDelay,
		ChromeBin:     e.ChromeBin,
		ControlURL:    e.ControlURL,
		Selector:      "#" + ticket.ElementID,
	}, log.Named("rasterizer"))
	rt.pipeline = export.NewPipeline(rt.renderer, raster,
		export.WithClock(clock.NewSystem()),
		export.WithMaxConcurrent(e.MaxConcurrent),
		export.WithJPEGQuality(e.JPEGQuality),
		export.WithTimeout(e.Timeout),
		export.WithLogger(log.Named("export")),
		export.WithMetrics(rt.metrics),
	)

	rt.tickets = app.NewTicketService(finder, greeter, rt.renderer, rt.pipeline, clock.NewSystem(),
		app.WithLogger(log.Named("tickets")))
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.pipeline != nil {
		if err := rt.pipeline.Close(); err != nil {
			rt.log.Warn("close browser", zap.Error(err))
		}
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}
