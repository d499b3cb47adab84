package csv

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/vsinha/csdm/pkg/domain/entities"
)

// Scenario file names inside a scenario directory
const (
	ProductsFile       = "products.csv"
	BaseSalesFile      = "base_sales.csv"
	ReferenceSalesFile = "reference_sales.csv"
	SupplyFile         = "supply.csv"
	ProgramsFile       = "programs.csv"
	ProgramDemandFile  = "program_demand.csv"
	ChannelDemandFile  = "channel_demand.csv"
)

// Product roles in products.csv
const (
	RoleBase      = "base"
	RoleReference = "reference"
	RoleForecast  = "forecast"
)

// Program roles in programs.csv
const (
	RoleTarget      = "target"
	RolePrioritized = "prioritized"
	RoleOther       = "other"
)

//go:embed scenario/default/*.csv
var defaultScenarioFS embed.FS

// DefaultScenarioFS returns the built-in case study tables
func DefaultScenarioFS() fs.FS {
	sub, err := fs.Sub(defaultScenarioFS, "scenario/default")
	if err != nil {
		panic(fmt.Sprintf("default scenario missing from binary: %v", err))
	}
	return sub
}

// Loader handles loading case study tables from CSV files
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a new CSV loader reading from fsys
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadScenario loads and validates every table of a scenario
func (l *Loader) LoadScenario() (*entities.Scenario, error) {
	products, err := l.LoadProducts(ProductsFile)
	if err != nil {
		return nil, err
	}
	for _, role := range []string{RoleBase, RoleReference, RoleForecast} {
		if _, ok := products[role]; !ok {
			return nil, fmt.Errorf("products CSV has no %s product", role)
		}
	}

	base, err := l.LoadSalesHistory(BaseSalesFile, products[RoleBase])
	if err != nil {
		return nil, fmt.Errorf("error loading base sales: %w", err)
	}

	reference, err := l.LoadSalesHistory(ReferenceSalesFile, products[RoleReference])
	if err != nil {
		return nil, fmt.Errorf("error loading reference sales: %w", err)
	}

	plan, err := l.LoadSupplyPlan()
	if err != nil {
		return nil, fmt.Errorf("error loading supply plan: %w", err)
	}

	return &entities.Scenario{
		Base:            base,
		Reference:       reference,
		ForecastProduct: products[RoleForecast],
		Plan:            plan,
	}, nil
}

// LoadProducts loads product descriptions keyed by role
func (l *Loader) LoadProducts(filename string) (map[string]entities.Product, error) {
	records, err := l.readAll(filename, "products")
	if err != nil {
		return nil, err
	}

	expectedHeader := []string{"role", "name", "price_label", "launch_note", "start_note"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("products CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	products := make(map[string]entities.Product)
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("products CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		role := strings.ToLower(strings.TrimSpace(record[0]))
		switch role {
		case RoleBase, RoleReference, RoleForecast:
		default:
			return nil, fmt.Errorf("products CSV row %d: unknown role %q", i+2, record[0])
		}
		if _, dup := products[role]; dup {
			return nil, fmt.Errorf("products CSV row %d: duplicate role %s", i+2, role)
		}

		products[role] = entities.Product{
			Name:       strings.TrimSpace(record[1]),
			PriceLabel: strings.TrimSpace(record[2]),
			LaunchNote: strings.TrimSpace(record[3]),
			StartNote:  strings.TrimSpace(record[4]),
		}
	}

	return products, nil
}

// LoadSalesHistory loads a week-by-region sales table. The header is
// "week" followed by one column per region.
func (l *Loader) LoadSalesHistory(filename string, product entities.Product) (*entities.SalesHistory, error) {
	records, err := l.readAll(filename, "sales")
	if err != nil {
		return nil, err
	}

	header := records[0]
	if len(header) < 2 || normalize(header[0]) != "week" {
		return nil, fmt.Errorf("sales CSV header must start with week and list at least one region, got %v", header)
	}

	regions := make([]entities.Region, 0, len(header)-1)
	byRegion := make(map[entities.Region][]entities.Units, len(header)-1)
	for _, col := range header[1:] {
		region := entities.Region(strings.TrimSpace(col))
		regions = append(regions, region)
		byRegion[region] = make([]entities.Units, 0, len(records)-1)
	}

	weeks := make([]string, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("sales CSV row %d: expected %d columns, got %d", i+2, len(header), len(record))
		}

		weeks = append(weeks, strings.TrimSpace(record[0]))
		for j, region := range regions {
			units, err := parseUnits(record[j+1])
			if err != nil {
				return nil, fmt.Errorf("sales CSV row %d: invalid %s value: %w", i+2, region, err)
			}
			byRegion[region] = append(byRegion[region], units)
		}
	}

	return entities.NewSalesHistory(product, weeks, regions, byRegion)
}

// LoadSupplyPlan loads supply, program and channel tables into a validated plan
func (l *Loader) LoadSupplyPlan() (*entities.SupplyPlan, error) {
	plan := &entities.SupplyPlan{
		CumSupply:     make(map[string]entities.Units),
		ProgramDemand: make(map[entities.Program]map[string]entities.Units),
		ChannelAsk:    make(map[entities.Channel]map[string]entities.Units),
		ActualBuild:   make(map[entities.Program]entities.Units),
	}

	if err := l.loadSupply(plan); err != nil {
		return nil, err
	}
	if err := l.loadPrograms(plan); err != nil {
		return nil, err
	}
	if err := l.loadProgramDemand(plan); err != nil {
		return nil, err
	}
	if err := l.loadChannelDemand(plan); err != nil {
		return nil, err
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (l *Loader) loadSupply(plan *entities.SupplyPlan) error {
	records, err := l.readAll(SupplyFile, "supply")
	if err != nil {
		return err
	}

	expectedHeader := []string{"week", "total_cum_supply"}
	if !validateHeader(records[0], expectedHeader) {
		return fmt.Errorf("supply CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return fmt.Errorf("supply CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}
		week := strings.TrimSpace(record[0])
		if _, dup := plan.CumSupply[week]; dup {
			return fmt.Errorf("supply CSV row %d: duplicate week %s", i+2, week)
		}
		supply, err := parseUnits(record[1])
		if err != nil {
			return fmt.Errorf("supply CSV row %d: invalid total_cum_supply: %w", i+2, err)
		}
		plan.Weeks = append(plan.Weeks, week)
		plan.CumSupply[week] = supply
	}
	return nil
}

// loadPrograms reads program roles. The third column holds the build already
// completed and its header names that build, e.g. Jan_Wk1_Build.
func (l *Loader) loadPrograms(plan *entities.SupplyPlan) error {
	records, err := l.readAll(ProgramsFile, "programs")
	if err != nil {
		return err
	}

	header := records[0]
	if len(header) != 3 || normalize(header[0]) != "program" || normalize(header[1]) != "role" {
		return fmt.Errorf("programs CSV header mismatch. Expected: [program role <build>], Got: %v", header)
	}
	plan.BuildLabel = strings.TrimSpace(header[2])

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return fmt.Errorf("programs CSV row %d: expected %d columns, got %d", i+2, len(header), len(record))
		}

		program := entities.Program(strings.TrimSpace(record[0]))
		switch normalize(record[1]) {
		case RoleTarget:
			if plan.TargetProgram != "" {
				return fmt.Errorf("programs CSV row %d: more than one target program", i+2)
			}
			plan.TargetProgram = program
		case RolePrioritized:
			plan.PrioritizedPrograms = append(plan.PrioritizedPrograms, program)
		case RoleOther:
		default:
			return fmt.Errorf("programs CSV row %d: unknown role %q", i+2, record[1])
		}

		build, err := parseUnits(record[2])
		if err != nil {
			return fmt.Errorf("programs CSV row %d: invalid %s: %w", i+2, plan.BuildLabel, err)
		}
		plan.ActualBuild[program] = build
	}
	return nil
}

func (l *Loader) loadProgramDemand(plan *entities.SupplyPlan) error {
	records, err := l.readAll(ProgramDemandFile, "program demand")
	if err != nil {
		return err
	}

	header := records[0]
	if len(header) < 2 || normalize(header[0]) != "week" {
		return fmt.Errorf("program demand CSV header must start with week and list at least one program, got %v", header)
	}

	for _, col := range header[1:] {
		program := entities.Program(strings.TrimSpace(col))
		plan.Programs = append(plan.Programs, program)
		plan.ProgramDemand[program] = make(map[string]entities.Units)
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return fmt.Errorf("program demand CSV row %d: expected %d columns, got %d", i+2, len(header), len(record))
		}
		week := strings.TrimSpace(record[0])
		for j, program := range plan.Programs {
			demand, err := parseUnits(record[j+1])
			if err != nil {
				return fmt.Errorf("program demand CSV row %d: invalid %s demand: %w", i+2, program, err)
			}
			plan.ProgramDemand[program][week] = demand
		}
	}
	return nil
}

// loadChannelDemand reads the channel ask table, one row per channel and one
// column per week
func (l *Loader) loadChannelDemand(plan *entities.SupplyPlan) error {
	records, err := l.readAll(ChannelDemandFile, "channel demand")
	if err != nil {
		return err
	}

	header := records[0]
	if len(header) < 2 || normalize(header[0]) != "channel" {
		return fmt.Errorf("channel demand CSV header must start with channel and list at least one week, got %v", header)
	}
	weeks := make([]string, 0, len(header)-1)
	for _, col := range header[1:] {
		weeks = append(weeks, strings.TrimSpace(col))
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return fmt.Errorf("channel demand CSV row %d: expected %d columns, got %d", i+2, len(header), len(record))
		}
		channel := entities.Channel(strings.TrimSpace(record[0]))
		if _, dup := plan.ChannelAsk[channel]; dup {
			return fmt.Errorf("channel demand CSV row %d: duplicate channel %s", i+2, channel)
		}
		asks := make(map[string]entities.Units, len(weeks))
		for j, week := range weeks {
			ask, err := parseUnits(record[j+1])
			if err != nil {
				return fmt.Errorf("channel demand CSV row %d: invalid %s ask: %w", i+2, week, err)
			}
			asks[week] = ask
		}
		plan.Channels = append(plan.Channels, channel)
		plan.ChannelAsk[channel] = asks
	}
	return nil
}

// Helper functions for parsing CSV records

func (l *Loader) readAll(filename, kind string) ([][]string, error) {
	file, err := l.fsys.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}
	return records, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if normalize(actual[i]) != col {
			return false
		}
	}

	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func parseUnits(s string) (entities.Units, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return entities.Units(v), nil
}
