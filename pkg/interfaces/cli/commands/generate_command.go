package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/infrastructure/repositories/csv"
)

var (
	generatedRegions  = []entities.Region{"AMR", "Europe", "PAC"}
	generatedChannels = []entities.Channel{"Online Store", "Retail Store", "Parter-AMR", "Parter-Europe", "Parter-PAC"}
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Weeks     int    // Weeks of sales history per product
	PlanWeeks int    // Weeks in the supply plan
	OutputDir string // Output directory for generated files
	Seed      int64  // Random seed for reproducible generation
	Help      bool   // Show help
	Verbose   bool   // Verbose output
}

// GenerateCommand writes a synthetic scenario directory
type GenerateCommand struct {
	config GenerateConfig
	faker  *gofakeit.Faker
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	config.Seed = seed

	return &GenerateCommand{
		config: config,
		faker:  gofakeit.New(seed),
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if cmd.config.Weeks < 1 || cmd.config.PlanWeeks < 1 {
		return fmt.Errorf("weeks and plan weeks must be positive, got %d and %d", cmd.config.Weeks, cmd.config.PlanWeeks)
	}

	if cmd.config.Verbose {
		fmt.Printf("🔧 Generating scenario with %d history weeks and %d plan weeks\n", cmd.config.Weeks, cmd.config.PlanWeeks)
		fmt.Printf("📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Printf("🎲 Random seed: %d\n", cmd.config.Seed)
	}

	scenario, err := cmd.generateScenario()
	if err != nil {
		return fmt.Errorf("failed to generate scenario: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := csv.WriteScenario(cmd.config.OutputDir, scenario); err != nil {
		return err
	}

	// Read the tables back so a broken scenario never leaves this command
	if _, err := loadRepository(cmd.config.OutputDir); err != nil {
		return fmt.Errorf("generated scenario does not load: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Printf("✅ Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

func (cmd *GenerateCommand) generateScenario() (*entities.Scenario, error) {
	names := cmd.uniqueNames(3)
	forecastProduct := entities.Product{Name: names[2] + " Plus"}

	base, err := cmd.generateHistory(entities.Product{
		Name:       names[0] + " Plus",
		PriceLabel: cmd.priceLabel(),
		LaunchNote: "last year",
		StartNote:  cmd.startNote(),
	})
	if err != nil {
		return nil, err
	}
	reference, err := cmd.generateHistory(entities.Product{
		Name:       names[1] + " Plus",
		PriceLabel: cmd.priceLabel(),
		LaunchNote: "two years ago",
		StartNote:  cmd.startNote(),
	})
	if err != nil {
		return nil, err
	}

	return &entities.Scenario{
		Base:            base,
		Reference:       reference,
		ForecastProduct: forecastProduct,
		Plan:            cmd.generatePlan(names[2]),
	}, nil
}

func (cmd *GenerateCommand) generateHistory(product entities.Product) (*entities.SalesHistory, error) {
	weeks := make([]string, cmd.config.Weeks)
	for i := range weeks {
		weeks[i] = fmt.Sprintf("Week %d", i+1)
	}

	byRegion := make(map[entities.Region][]entities.Units, len(generatedRegions))
	for _, region := range generatedRegions {
		level := cmd.faker.Number(60, 250)
		units := make([]entities.Units, len(weeks))
		for i := range units {
			// Launch weeks sell more, then settle around the regional level
			boost := 0
			if i < 2 {
				boost = level / (i + 2)
			}
			units[i] = entities.Units(max(0, level+boost+cmd.faker.Number(-level/4, level/4)))
		}
		byRegion[region] = units
	}

	return entities.NewSalesHistory(product, weeks, generatedRegions, byRegion)
}

// generatePlan builds a plan where the target program is short in roughly
// half of the weeks
func (cmd *GenerateCommand) generatePlan(family string) *entities.SupplyPlan {
	target := entities.Program(family + "_Plus")
	prioritized := []entities.Program{entities.Program(family), entities.Program(family + "_Mini")}

	plan := &entities.SupplyPlan{
		CumSupply:           make(map[string]entities.Units),
		ProgramDemand:       make(map[entities.Program]map[string]entities.Units),
		Programs:            []entities.Program{prioritized[0], target, prioritized[1]},
		PrioritizedPrograms: prioritized,
		TargetProgram:       target,
		Channels:            generatedChannels,
		ChannelAsk:          make(map[entities.Channel]map[string]entities.Units),
		ActualBuild:         make(map[entities.Program]entities.Units),
		BuildLabel:          "Jan_Wk1_Build",
	}
	for _, program := range plan.Programs {
		plan.ProgramDemand[program] = make(map[string]entities.Units)
		plan.ActualBuild[program] = entities.Units(cmd.faker.Number(40, 90))
	}
	for _, channel := range plan.Channels {
		plan.ChannelAsk[channel] = make(map[string]entities.Units)
	}

	for i := 0; i < cmd.config.PlanWeeks; i++ {
		week := fmt.Sprintf("Jan Wk%d", i+2)
		plan.Weeks = append(plan.Weeks, week)

		var prioritizedDemand entities.Units
		for j, program := range prioritized {
			demand := entities.Units(cmd.faker.Number(40, 120) / (j + 1))
			plan.ProgramDemand[program][week] = demand
			prioritizedDemand += demand
		}

		var targetDemand entities.Units
		for _, channel := range plan.Channels {
			ask := entities.Units(cmd.faker.Number(5, 50))
			plan.ChannelAsk[channel][week] = ask
			targetDemand += ask
		}
		plan.ProgramDemand[target][week] = targetDemand

		slack := entities.Units(cmd.faker.Number(-int(targetDemand)/5, int(targetDemand)/5))
		plan.CumSupply[week] = max(0, prioritizedDemand+targetDemand+slack)
	}
	return plan
}

// uniqueNames returns n distinct capitalised animal names
func (cmd *GenerateCommand) uniqueNames(n int) []string {
	seen := make(map[string]bool, n)
	names := make([]string, 0, n)
	for len(names) < n {
		name := strings.ReplaceAll(capitalize(cmd.faker.Animal()), " ", "")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (cmd *GenerateCommand) priceLabel() string {
	return fmt.Sprintf("$%.0f", cmd.faker.Price(80, 300))
}

func (cmd *GenerateCommand) startNote() string {
	month := cmd.faker.MonthString()
	return fmt.Sprintf("from %s wk%d", month[:min(3, len(month))], cmd.faker.Number(1, 4))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Println(`CSDM Scenario Generator

USAGE:
    csdm generate [OPTIONS]

OPTIONS:
    -output <DIR>       Output directory for generated files (required)
    -weeks <N>          Weeks of sales history per product (default 15)
    -plan-weeks <N>     Weeks in the supply plan (default 4)
    -seed <N>           Random seed for reproducible generation (optional)
    -verbose            Enable verbose output
    -help               Show this help message

EXAMPLES:
    # Generate a scenario and serve it
    csdm generate -output ./scenario -seed 12345
    csdm serve -scenario ./scenario`)
}
