package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsinha/csdm/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Writer    io.Writer // defaults to stdout
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// GenerateForecast writes a forecast report in the configured format
func GenerateForecast(report *dto.ForecastReport, config Config) error {
	switch config.Format {
	case "text", "":
		return writeForecastText(config.writer(), report)
	case "json":
		return generateJSONOutput(report, "forecast.json", config)
	case "csv":
		return generateCSVOutput(ForecastCSVFilename, config, func(w io.Writer) error {
			return WriteForecastCSV(w, report)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateAllocation writes an allocation report in the configured format
func GenerateAllocation(report *dto.AllocationReport, config Config) error {
	switch config.Format {
	case "text", "":
		return writeAllocationText(config.writer(), report)
	case "json":
		return generateJSONOutput(report, "allocation.json", config)
	case "csv":
		return generateCSVOutput(AllocationCSVFilename, config, func(w io.Writer) error {
			return WriteAllocationCSV(w, report)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func writeForecastText(w io.Writer, report *dto.ForecastReport) error {
	p := &printer{w: w}
	p.printf("📈 %s Demand Forecast\n", report.Product)
	p.printf("%s\n\n", strings.Repeat("=", len(report.Product)+19))
	p.printf("Blend:       %s\n", report.Blend)
	p.printf("Uplift:      %s\n", report.Uplift)
	p.printf("Norm factor: %s\n\n", report.NormFactor)

	p.printf("%-10s", "Week")
	for _, series := range report.Series {
		p.printf(" %8s", series.Region)
	}
	p.printf("\n%s", strings.Repeat("-", 10))
	for range report.Series {
		p.printf(" %s", strings.Repeat("-", 8))
	}
	p.printf("\n")
	for i, week := range report.Weeks {
		p.printf("%-10s", week)
		for _, series := range report.Series {
			p.printf(" %8d", series.Units[i])
		}
		p.printf("\n")
	}
	p.printf("%-10s", "Total")
	for _, series := range report.Series {
		p.printf(" %8d", series.Total)
	}
	p.printf("\n\n")

	p.printf("📊 Total Demand Comparison\n")
	p.printf("%-10s %14s %14s %14s\n", "Region",
		report.Comparison.ReferenceProduct, report.Comparison.BaseProduct, report.Comparison.ForecastProduct)
	for _, row := range report.Comparison.Rows {
		p.printf("%-10s %14d %14d %14d\n", row.Region, row.Reference, row.Base, row.Forecast)
	}
	return p.err
}

func writeAllocationText(w io.Writer, report *dto.AllocationReport) error {
	p := &printer{w: w}
	p.printf("📦 %s Supply Allocation\n", report.Program)
	p.printf("%s\n\n", strings.Repeat("=", len(report.Program)+20))

	p.printf("%-10s %10s %12s %10s %10s %8s\n", "Week", "Cum Supply", "Prioritized", "Remaining", "Demand", "Gap")
	for _, row := range report.Supply {
		p.printf("%-10s %10d %12d %10d %10d %8d\n", row.Week,
			row.TotalCumSupply, row.PrioritizedDemand, row.RemainingForTarget, row.TargetDemand, row.Gap)
	}
	p.printf("\n")

	if report.Protection.Enabled {
		p.printf("🛡️  %s protected in %s\n\n", report.Protection.Channel, report.Protection.Week)
	}

	p.printf("%-16s", "Channel")
	for _, week := range report.Weeks {
		p.printf(" %14s", week.Week)
	}
	p.printf("\n")
	for i, channel := range report.Channels {
		p.printf("%-16s", channel)
		for _, week := range report.Weeks {
			c := week.Channels[i]
			p.printf(" %14s", fmt.Sprintf("%d (%+d)", c.Allocated, c.Diff))
		}
		p.printf("\n")
	}

	for _, week := range report.Weeks {
		if week.Shortfall {
			p.printf("⚠️  %s short: %d units for %d asked\n", week.Week, week.Supply, week.TotalAsk)
		}
	}

	if len(report.ActualBuild) > 0 {
		p.printf("\n🏭 %s\n", report.BuildLabel)
		for _, build := range report.ActualBuild {
			p.printf("%-16s %8d\n", build.Program, build.Units)
		}
	}
	return p.err
}

// generateJSONOutput prints indented JSON, or saves it under OutputDir
func generateJSONOutput(v interface{}, filename string, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", path)
	}
	return nil
}

// generateCSVOutput prints CSV, or saves it under OutputDir
func generateCSVOutput(filename string, config Config, write func(io.Writer) error) error {
	if config.OutputDir == "" {
		return write(config.writer())
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to: %s\n", path)
	}
	return nil
}

// printer remembers the first write error so report code can stay linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
