package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/csdm/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	name := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		name, args = args[0], args[1:]
	}

	cmd, err := parse(name, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parse(name string, args []string) (command, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to a config file (defaults to .env when present)")
	scenarioDir := fs.String("scenario", "", "Path to scenario directory containing CSV files")
	help := fs.Bool("help", false, "Show help message")

	switch name {
	case "serve":
		addr := fs.String("addr", "", "Listen address (default :8501)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewServeCommand(commands.ServeConfig{
			ConfigFile:  *configFile,
			Addr:        *addr,
			ScenarioDir: *scenarioDir,
			Help:        *help,
		}), nil

	case "forecast":
		weight := fs.String("weight", "", "Blend weight for the base product, 0 to 1")
		uplift := fs.String("uplift", "", "Uplift factor, 1 to 2")
		format := fs.String("format", "text", "Output format: text, json, csv")
		outputDir := fs.String("output", "", "Output directory for results (optional)")
		verbose := fs.Bool("verbose", false, "Enable verbose output")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewForecastCommand(commands.ForecastConfig{
			ConfigFile:  *configFile,
			ScenarioDir: *scenarioDir,
			Weight:      *weight,
			Uplift:      *uplift,
			Format:      *format,
			OutputDir:   *outputDir,
			Verbose:     *verbose,
			Help:        *help,
		}), nil

	case "allocate":
		protect := fs.String("protect", "", "Protect the configured channel: true or false")
		format := fs.String("format", "text", "Output format: text, json, csv")
		outputDir := fs.String("output", "", "Output directory for results (optional)")
		verbose := fs.Bool("verbose", false, "Enable verbose output")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewAllocateCommand(commands.AllocateConfig{
			ConfigFile:  *configFile,
			ScenarioDir: *scenarioDir,
			Protect:     *protect,
			Format:      *format,
			OutputDir:   *outputDir,
			Verbose:     *verbose,
			Help:        *help,
		}), nil

	case "generate":
		outputDir := fs.String("output", "", "Output directory for generated files")
		weeks := fs.Int("weeks", 15, "Weeks of sales history per product")
		planWeeks := fs.Int("plan-weeks", 4, "Weeks in the supply plan")
		seed := fs.Int64("seed", 0, "Random seed for reproducible generation")
		verbose := fs.Bool("verbose", false, "Enable verbose output")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewGenerateCommand(commands.GenerateConfig{
			Weeks:     *weeks,
			PlanWeeks: *planWeeks,
			OutputDir: *outputDir,
			Seed:      *seed,
			Help:      *help,
			Verbose:   *verbose,
		}), nil

	default:
		return nil, fmt.Errorf("unknown command %q (expected serve, forecast, allocate or generate)", name)
	}
}
