package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopower/adapters/api"
	"gopower/adapters/battery"
	"gopower/adapters/generator"
	"gopower/adapters/rng"
	"gopower/app"
	"gopower/internal"
	"gopower/internal/config"
	"gopower/internal/metrics"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Console)
	defer logger.Sync()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	powerService := app.NewPowerService(generator.NewNormalGenerator(), rng.NewPCGAdapter(), battery.ForRequest, logger)
	if m != nil {
		powerService.WithObserver(m)
	}
	curveService := app.NewCurveService(powerService, cfg.Simulation.CurveConcurrency, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewServer(powerService, curveService, cfg, m, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting API server on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
