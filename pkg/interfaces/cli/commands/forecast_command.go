package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/vsinha/csdm/pkg/application/dto"
	"github.com/vsinha/csdm/pkg/application/services/forecast"
	"github.com/vsinha/csdm/pkg/config"
	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/interfaces/cli/output"
)

// ForecastConfig holds configuration for the forecast command
type ForecastConfig struct {
	ConfigFile  string
	ScenarioDir string
	Weight      string // empty uses the configured weight
	Uplift      string // empty uses the configured uplift
	Format      string
	OutputDir   string
	Verbose     bool
	Help        bool
	Out         io.Writer
}

// ForecastCommand prints the Case 1 forecast
type ForecastCommand struct {
	config ForecastConfig
}

// NewForecastCommand creates a new forecast command
func NewForecastCommand(config ForecastConfig) *ForecastCommand {
	return &ForecastCommand{config: config}
}

// Execute runs the forecast command
func (c *ForecastCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.printHelp()
		return nil
	}

	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return fmt.Errorf("configuration loading error: %w", err)
	}
	if c.config.ScenarioDir != "" {
		cfg.ScenarioDir = c.config.ScenarioDir
	}

	params, err := c.params(cfg.Forecast)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	repo, err := loadRepository(cfg.ScenarioDir)
	if err != nil {
		return err
	}
	service := forecast.NewService(repo, nil)

	result, err := service.Generate(ctx, params)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}
	comparison, err := service.Compare(ctx, result)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	return output.GenerateForecast(dto.NewForecastReport(result, comparison), output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.config.Out,
	})
}

func (c *ForecastCommand) params(defaults entities.ForecastParams) (entities.ForecastParams, error) {
	weight, uplift := defaults.Weight, defaults.Uplift
	var err error
	if c.config.Weight != "" {
		if weight, err = decimal.NewFromString(c.config.Weight); err != nil {
			return entities.ForecastParams{}, fmt.Errorf("%w: weight %q is not a number", entities.ErrInvalidParams, c.config.Weight)
		}
	}
	if c.config.Uplift != "" {
		if uplift, err = decimal.NewFromString(c.config.Uplift); err != nil {
			return entities.ForecastParams{}, fmt.Errorf("%w: uplift %q is not a number", entities.ErrInvalidParams, c.config.Uplift)
		}
	}
	return entities.NewForecastParams(weight, uplift)
}

func (c *ForecastCommand) printHelp() {
	fmt.Print(`csdm forecast - blend two sales histories into a demand forecast

Usage:
  csdm forecast [options]

Options:
  -config string    Config file
  -scenario string  Scenario directory with CSV tables (default: built-in case study)
  -weight string    Share of the base product, 0 to 1 (default 0.7)
  -uplift string    Demand multiplier, 1 to 2 (default 1.15)
  -format string    Output format: text, json, csv (default text)
  -output string    Output directory (optional)
  -verbose          Enable verbose output
  -help             Show this help message
`)
}
