package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/ticket"
	transporthttp "github.com/madmatrix/tickethub/internal/transport/http"
	"github.com/madmatrix/tickethub/migrations"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP portal",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.pool != nil {
		applied, err := migrations.Apply(cmd.Context(), rt.pool)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", zap.Strings("names", applied))
		}
	}

	layout := rt.renderer.Layout()
	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Tickets: rt.tickets,
		Page:    rt.renderer,
		Links: transporthttp.TicketLinks{
			PublicURL: cfg.Server.PublicURL,
			EventName: layout.EventName,
			Width:     layout.Width,
			Height:    layout.Height,
			Share:     ticket.ShareURL,
		},
		Gatherer:    rt.registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger.Named("http"),
		Metrics:     rt.metrics,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("tickethub listening",
		zap.String("addr", server.Addr),
		zap.Int("sources", len(cfg.Registry.Sources)),
		zap.String("greeting_provider", cfg.Greeting.Provider),
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			return err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
