package testing

import (
	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/csdm/pkg/infrastructure/repositories/memory"
)

// BuildCaseStudyScenario loads the built-in case study tables into a fresh
// in-memory repository, panicking if the embedded data is broken
func BuildCaseStudyScenario() *memory.ScenarioRepository {
	scenario, err := csv.NewLoader(csv.DefaultScenarioFS()).LoadScenario()
	if err != nil {
		panic(err)
	}
	repo := memory.NewScenarioRepository()
	if err := repo.LoadScenario(scenario); err != nil {
		panic(err)
	}
	return repo
}

// mustCreateHistory is a helper for tests - panics on validation error
func mustCreateHistory(name string, weeks []string, byRegion map[entities.Region][]entities.Units, regions ...entities.Region) *entities.SalesHistory {
	h, err := entities.NewSalesHistory(entities.Product{Name: name}, weeks, regions, byRegion)
	if err != nil {
		panic(err)
	}
	return h
}

// BuildTwoWeekScenario returns a small two-region scenario with a single
// channel plan, for tests that need hand-checkable numbers
func BuildTwoWeekScenario() *memory.ScenarioRepository {
	weeks := []string{"Week 1", "Week 2"}
	base := mustCreateHistory("Base", weeks, map[entities.Region][]entities.Units{
		"AMR":    {100, 200},
		"Europe": {150, 250},
	}, "AMR", "Europe")
	reference := mustCreateHistory("Reference", weeks, map[entities.Region][]entities.Units{
		"AMR":    {120, 180},
		"Europe": {130, 220},
	}, "AMR", "Europe")

	plan := &entities.SupplyPlan{
		Weeks:     []string{"Wk1", "Wk2"},
		CumSupply: map[string]entities.Units{"Wk1": 50, "Wk2": 10},
		ProgramDemand: map[entities.Program]map[string]entities.Units{
			"Core":   {"Wk1": 20, "Wk2": 20},
			"Target": {"Wk1": 30, "Wk2": 30},
		},
		Programs:            []entities.Program{"Core", "Target"},
		PrioritizedPrograms: []entities.Program{"Core"},
		TargetProgram:       "Target",
		Channels:            []entities.Channel{"Direct", "Partner"},
		ChannelAsk: map[entities.Channel]map[string]entities.Units{
			"Direct":  {"Wk1": 10, "Wk2": 10},
			"Partner": {"Wk1": 20, "Wk2": 20},
		},
		ActualBuild: map[entities.Program]entities.Units{"Core": 5, "Target": 5},
		BuildLabel:  "Wk0_Build",
	}

	repo := memory.NewScenarioRepository()
	err := repo.LoadScenario(&entities.Scenario{
		Base:            base,
		Reference:       reference,
		ForecastProduct: entities.Product{Name: "Target"},
		Plan:            plan,
	})
	if err != nil {
		panic(err)
	}
	return repo
}
