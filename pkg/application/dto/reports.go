package dto

import (
	"github.com/vsinha/csdm/pkg/domain/entities"
)

// RegionSeries is one region's weekly units
type RegionSeries struct {
	Region entities.Region  `json:"region"`
	Units  []entities.Units `json:"units"`
	Total  entities.Units   `json:"total"`
}

// ForecastReport is the rendered Case 1 output: the forecast, the blend that
// produced it and the comparison with both sales histories
type ForecastReport struct {
	Product    string                    `json:"product"`
	Weight     string                    `json:"weight"`
	Uplift     string                    `json:"uplift"`
	Blend      string                    `json:"blend"`
	NormFactor string                    `json:"norm_factor"`
	Weeks      []string                  `json:"weeks"`
	Series     []RegionSeries            `json:"series"`
	Total      entities.Units            `json:"total"`
	Comparison entities.DemandComparison `json:"comparison"`
}

// NewForecastReport flattens a forecast and its comparison into a report
func NewForecastReport(forecast *entities.Forecast, comparison *entities.DemandComparison) *ForecastReport {
	report := &ForecastReport{
		Product:    forecast.Product,
		Weight:     forecast.Params.Weight.StringFixed(2),
		Uplift:     forecast.Params.Uplift.StringFixed(2),
		Blend:      forecast.Params.BlendLabel(comparison.BaseProduct, comparison.ReferenceProduct),
		NormFactor: forecast.NormFactor.StringFixed(6),
		Weeks:      forecast.Weeks,
		Total:      forecast.Total(),
		Comparison: *comparison,
	}
	for _, region := range forecast.Regions {
		units := forecast.ByRegion[region]
		report.Series = append(report.Series, RegionSeries{
			Region: region,
			Units:  units,
			Total:  entities.SumUnits(units),
		})
	}
	return report
}

// ProgramBuild is one program's build before the plan window
type ProgramBuild struct {
	Program entities.Program `json:"program"`
	Units   entities.Units   `json:"units"`
}

// AllocationReport is the rendered Case 2 output
type AllocationReport struct {
	Program     entities.Program          `json:"program"`
	BuildLabel  string                    `json:"build_label"`
	ActualBuild []ProgramBuild            `json:"actual_build"`
	Protection  entities.ProtectionRule   `json:"protection"`
	Channels    []entities.Channel        `json:"channels"`
	Supply      []entities.WeekSupply     `json:"supply"`
	Weeks       []entities.WeekAllocation `json:"weeks"`
	Edits       []entities.AllocationEdit `json:"edits,omitempty"`
}

// NewAllocationReport combines an allocation result with the build context of its plan
func NewAllocationReport(result *entities.AllocationResult, plan *entities.SupplyPlan) *AllocationReport {
	report := &AllocationReport{
		Program:    result.Program,
		BuildLabel: plan.BuildLabel,
		Protection: result.Protection,
		Channels:   result.Channels,
		Supply:     result.Supply,
		Weeks:      result.Weeks,
		Edits:      result.Edits,
	}
	// plan order, as the programs table lists them
	for _, program := range plan.Programs {
		if units, ok := plan.ActualBuild[program]; ok {
			report.ActualBuild = append(report.ActualBuild, ProgramBuild{Program: program, Units: units})
		}
	}
	return report
}
