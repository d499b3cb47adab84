package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/csdm/pkg/domain/entities"
)

// WriteScenario writes every table of a scenario into dir using the layout
// LoadScenario expects
func WriteScenario(dir string, scenario *entities.Scenario) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	plan := scenario.Plan
	tables := map[string][][]string{
		ProductsFile:       productRecords(scenario),
		BaseSalesFile:      salesRecords(scenario.Base),
		ReferenceSalesFile: salesRecords(scenario.Reference),
		SupplyFile:         supplyRecords(plan),
		ProgramsFile:       programRecords(plan),
		ProgramDemandFile:  programDemandRecords(plan),
		ChannelDemandFile:  channelDemandRecords(plan),
	}

	for name, records := range tables {
		if err := writeRecords(filepath.Join(dir, name), records); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func writeRecords(filename string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return file.Close()
}

func productRecords(s *entities.Scenario) [][]string {
	row := func(role string, p entities.Product) []string {
		return []string{role, p.Name, p.PriceLabel, p.LaunchNote, p.StartNote}
	}
	return [][]string{
		{"role", "name", "price_label", "launch_note", "start_note"},
		row(RoleBase, s.Base.Product),
		row(RoleReference, s.Reference.Product),
		row(RoleForecast, s.ForecastProduct),
	}
}

func salesRecords(h *entities.SalesHistory) [][]string {
	header := []string{"week"}
	for _, region := range h.Regions {
		header = append(header, string(region))
	}
	records := [][]string{header}
	for i, week := range h.Weeks {
		record := []string{week}
		for _, region := range h.Regions {
			record = append(record, formatUnits(h.ByRegion[region][i]))
		}
		records = append(records, record)
	}
	return records
}

func supplyRecords(p *entities.SupplyPlan) [][]string {
	records := [][]string{{"week", "total_cum_supply"}}
	for _, week := range p.Weeks {
		records = append(records, []string{week, formatUnits(p.CumSupply[week])})
	}
	return records
}

func programRecords(p *entities.SupplyPlan) [][]string {
	label := p.BuildLabel
	if label == "" {
		label = "actual_build"
	}
	prioritized := make(map[entities.Program]bool, len(p.PrioritizedPrograms))
	for _, program := range p.PrioritizedPrograms {
		prioritized[program] = true
	}

	records := [][]string{{"program", "role", label}}
	for _, program := range p.Programs {
		role := RoleOther
		switch {
		case program == p.TargetProgram:
			role = RoleTarget
		case prioritized[program]:
			role = RolePrioritized
		}
		records = append(records, []string{string(program), role, formatUnits(p.ActualBuild[program])})
	}
	return records
}

func programDemandRecords(p *entities.SupplyPlan) [][]string {
	header := []string{"week"}
	for _, program := range p.Programs {
		header = append(header, string(program))
	}
	records := [][]string{header}
	for _, week := range p.Weeks {
		record := []string{week}
		for _, program := range p.Programs {
			record = append(record, formatUnits(p.ProgramDemand[program][week]))
		}
		records = append(records, record)
	}
	return records
}

func channelDemandRecords(p *entities.SupplyPlan) [][]string {
	header := append([]string{"channel"}, p.Weeks...)
	records := [][]string{header}
	for _, channel := range p.Channels {
		record := []string{string(channel)}
		for _, week := range p.Weeks {
			record = append(record, formatUnits(p.ChannelAsk[channel][week]))
		}
		records = append(records, record)
	}
	return records
}

func formatUnits(u entities.Units) string {
	return strconv.FormatInt(int64(u), 10)
}
