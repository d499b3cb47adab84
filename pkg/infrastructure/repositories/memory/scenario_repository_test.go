package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/vsinha/csdm/pkg/domain/entities"
)

func buildHistory(t *testing.T, name string, regions []entities.Region, weeks int) *entities.SalesHistory {
	t.Helper()
	labels := make([]string, weeks)
	byRegion := make(map[entities.Region][]entities.Units, len(regions))
	for i := range labels {
		labels[i] = "Week " + string(rune('1'+i))
	}
	for _, region := range regions {
		byRegion[region] = make([]entities.Units, weeks)
	}
	h, err := entities.NewSalesHistory(entities.Product{Name: name}, labels, regions, byRegion)
	if err != nil {
		t.Fatalf("Failed to build history: %v", err)
	}
	return h
}

func TestScenarioRepository_Empty(t *testing.T) {
	repo := NewScenarioRepository()

	if _, err := repo.GetBaseHistory(); err == nil {
		t.Error("Expected error for missing base history")
	}
	if _, err := repo.GetReferenceHistory(); err == nil {
		t.Error("Expected error for missing reference history")
	}
	if _, err := repo.GetSupplyPlan(); err == nil {
		t.Error("Expected error for missing supply plan")
	}
}

func TestScenarioRepository_LoadSalesHistories(t *testing.T) {
	repo := NewScenarioRepository()
	regions := []entities.Region{"AMR", "Europe", "PAC"}

	base := buildHistory(t, "Princess Plus", regions, 3)
	reference := buildHistory(t, "Dwarf Plus", regions, 3)

	if err := repo.LoadSalesHistories(base, reference); err != nil {
		t.Fatalf("Failed to load histories: %v", err)
	}

	got, err := repo.GetBaseHistory()
	if err != nil {
		t.Fatalf("Failed to get base history: %v", err)
	}
	if got.Product.Name != "Princess Plus" {
		t.Errorf("Expected base Princess Plus, got %s", got.Product.Name)
	}

	got, err = repo.GetReferenceHistory()
	if err != nil {
		t.Fatalf("Failed to get reference history: %v", err)
	}
	if got.Product.Name != "Dwarf Plus" {
		t.Errorf("Expected reference Dwarf Plus, got %s", got.Product.Name)
	}
}

func TestScenarioRepository_RejectsMismatchedHistories(t *testing.T) {
	repo := NewScenarioRepository()

	base := buildHistory(t, "Princess Plus", []entities.Region{"AMR", "PAC"}, 3)
	reference := buildHistory(t, "Dwarf Plus", []entities.Region{"AMR", "PAC"}, 2)

	err := repo.LoadSalesHistories(base, reference)
	if err == nil {
		t.Fatal("Expected error for mismatched histories")
	}
	if !errors.Is(err, entities.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "histories cannot be blended") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestScenarioRepository_LoadSupplyPlan(t *testing.T) {
	repo := NewScenarioRepository()

	invalid := &entities.SupplyPlan{}
	if err := repo.LoadSupplyPlan(invalid); !errors.Is(err, entities.ErrInvalidScenario) {
		t.Errorf("Expected ErrInvalidScenario for empty plan, got %v", err)
	}

	plan := &entities.SupplyPlan{
		Weeks:               []string{"Jan Wk2"},
		CumSupply:           map[string]entities.Units{"Jan Wk2": 230},
		ProgramDemand:       map[entities.Program]map[string]entities.Units{"Superman_Plus": {"Jan Wk2": 85}},
		Programs:            []entities.Program{"Superman_Plus"},
		TargetProgram:       "Superman_Plus",
		Channels:            []entities.Channel{"Online Store"},
		ChannelAsk:          map[entities.Channel]map[string]entities.Units{"Online Store": {"Jan Wk2": 20}},
		PrioritizedPrograms: nil,
	}
	if err := repo.LoadSupplyPlan(plan); err != nil {
		t.Fatalf("Failed to load plan: %v", err)
	}

	got, err := repo.GetSupplyPlan()
	if err != nil {
		t.Fatalf("Failed to get plan: %v", err)
	}
	if got.TargetProgram != "Superman_Plus" {
		t.Errorf("Expected target Superman_Plus, got %s", got.TargetProgram)
	}
}

func TestScenarioRepository_LoadScenario(t *testing.T) {
	repo := NewScenarioRepository()
	regions := []entities.Region{"AMR"}

	scenario := &entities.Scenario{
		Base:      buildHistory(t, "Princess Plus", regions, 2),
		Reference: buildHistory(t, "Dwarf Plus", regions, 2),
		Plan: &entities.SupplyPlan{
			Weeks:         []string{"Jan Wk2"},
			CumSupply:     map[string]entities.Units{"Jan Wk2": 10},
			ProgramDemand: map[entities.Program]map[string]entities.Units{"Superman_Plus": {"Jan Wk2": 5}},
			Programs:      []entities.Program{"Superman_Plus"},
			TargetProgram: "Superman_Plus",
			Channels:      []entities.Channel{"Online Store"},
			ChannelAsk:    map[entities.Channel]map[string]entities.Units{"Online Store": {"Jan Wk2": 5}},
		},
	}

	if err := repo.LoadScenario(scenario); !errors.Is(err, entities.ErrInvalidScenario) {
		t.Fatalf("Expected ErrInvalidScenario without forecast product, got %v", err)
	}

	scenario.ForecastProduct = entities.Product{Name: "Superman Plus"}
	if err := repo.LoadScenario(scenario); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	product, err := repo.GetForecastProduct()
	if err != nil {
		t.Fatalf("Failed to get forecast product: %v", err)
	}
	if product.Name != "Superman Plus" {
		t.Errorf("Expected Superman Plus, got %s", product.Name)
	}
}
