package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/vsinha/csdm/pkg/application/dto"
	"github.com/vsinha/csdm/pkg/application/services/allocation"
	"github.com/vsinha/csdm/pkg/config"
	"github.com/vsinha/csdm/pkg/interfaces/cli/output"
)

// AllocateConfig holds configuration for the allocate command
type AllocateConfig struct {
	ConfigFile  string
	ScenarioDir string
	Protect     string // "true"/"false", empty uses the configured rule
	Format      string
	OutputDir   string
	Verbose     bool
	Help        bool
	Out         io.Writer
}

// AllocateCommand prints the Case 2 allocation
type AllocateCommand struct {
	config AllocateConfig
}

// NewAllocateCommand creates a new allocate command
func NewAllocateCommand(config AllocateConfig) *AllocateCommand {
	return &AllocateCommand{config: config}
}

// Execute runs the allocate command
func (c *AllocateCommand) Execute(ctx context.Context) error {
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

	rule := cfg.Protection
	if c.config.Protect != "" {
		enabled, err := strconv.ParseBool(c.config.Protect)
		if err != nil {
			return fmt.Errorf("validation error: protect must be true or false, got %q", c.config.Protect)
		}
		rule.Enabled = enabled
	}

	repo, err := loadRepository(cfg.ScenarioDir)
	if err != nil {
		return err
	}
	service := allocation.NewService(repo, nil)

	result, err := service.Allocate(ctx, rule)
	if err != nil {
		return fmt.Errorf("allocation failed: %w", err)
	}
	plan, err := service.Plan()
	if err != nil {
		return err
	}

	return output.GenerateAllocation(dto.NewAllocationReport(result, plan), output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.config.Out,
	})
}

func (c *AllocateCommand) printHelp() {
	fmt.Print(`csdm allocate - allocate remaining supply to channels

Usage:
  csdm allocate [options]

Options:
  -config string    Config file
  -scenario string  Scenario directory with CSV tables (default: built-in case study)
  -protect string   Protect the configured channel and week: true or false
  -format string    Output format: text, json, csv (default text)
  -output string    Output directory (optional)
  -verbose          Enable verbose output
  -help             Show this help message
`)
}
