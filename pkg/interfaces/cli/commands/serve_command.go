package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/vsinha/csdm/pkg/application/services/allocation"
	"github.com/vsinha/csdm/pkg/application/services/forecast"
	"github.com/vsinha/csdm/pkg/config"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
	"github.com/vsinha/csdm/pkg/interfaces/web"
	"github.com/vsinha/csdm/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// ServeConfig holds configuration for the serve command. Empty fields
// fall back to the loaded configuration.
type ServeConfig struct {
	ConfigFile  string
	Addr        string
	ScenarioDir string
	Help        bool
}

// ServeCommand runs the dashboard until its context is cancelled
type ServeCommand struct {
	config ServeConfig
}

// NewServeCommand creates a new serve command
func NewServeCommand(config ServeConfig) *ServeCommand {
	return &ServeCommand{config: config}
}

// Execute starts the HTTP server and shuts it down gracefully when ctx ends
func (c *ServeCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.printHelp()
		return nil
	}

	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return fmt.Errorf("configuration loading error: %w", err)
	}
	if c.config.Addr != "" {
		cfg.ServerAddr = c.config.Addr
	}
	if c.config.ScenarioDir != "" {
		cfg.ScenarioDir = c.config.ScenarioDir
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	repo, err := loadRepository(cfg.ScenarioDir)
	if err != nil {
		logging.LogError(logger, "Unable to load scenario", err)
		return err
	}

	if plan, err := repo.GetSupplyPlan(); err == nil && cfg.Protection.Enabled {
		if !plan.HasChannel(cfg.Protection.Channel) || !plan.HasWeek(cfg.Protection.Week) {
			logging.LogWarn(logger, fmt.Sprintf("Protected channel %s in %s is not in the scenario, Case 2 requests will fail until protection is switched off",
				cfg.Protection.Channel, cfg.Protection.Week))
		}
	}

	store := events.NewInMemoryEventStore(logger, cfg.EventRetention)
	if err := store.Subscribe([]string{events.AllocationEditedEvent}, events.NewAuditHandler(logger)); err != nil {
		return fmt.Errorf("unable to subscribe audit log: %w", err)
	}
	srv, err := web.New(
		forecast.NewService(repo, store),
		allocation.NewService(repo, store),
		store,
		web.Defaults{Forecast: cfg.Forecast, Protection: cfg.Protection},
		logger,
	)
	if err != nil {
		return fmt.Errorf("unable to build http server: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogInfo(logger, fmt.Sprintf("CSDM dashboard is running on %s", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.LogError(logger, "Dashboard stopped unexpectedly", err)
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.LogInfo(logger, "Received shutdown signal, closing dashboard...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "Error stopping dashboard", err)
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

func (c *ServeCommand) printHelp() {
	fmt.Print(`csdm serve - run the CSDM case study dashboard

Usage:
  csdm serve [options]

Options:
  -config string    Config file (YAML, JSON, TOML or .env)
  -addr string      Listen address (default :8501)
  -scenario string  Scenario directory with CSV tables (default: built-in case study)
  -help             Show this help message

Environment:
  CSDM_SERVER_ADDR, CSDM_SCENARIO_DIR, CSDM_LOG_LEVEL, CSDM_LOG_FORMAT,
  CSDM_FORECAST_WEIGHT, CSDM_FORECAST_UPLIFT, CSDM_ALLOCATION_PROTECT,
  CSDM_ALLOCATION_PROTECTED_CHANNEL, CSDM_ALLOCATION_PROTECTED_WEEK,
  CSDM_EVENT_RETENTION
`)
}
