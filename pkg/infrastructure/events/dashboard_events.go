package events

import (
	"github.com/vsinha/csdm/pkg/domain/entities"
)

const (
	ForecastGeneratedEvent  = "forecast.generated"
	AllocationComputedEvent = "allocation.computed"
	AllocationEditedEvent   = "allocation.edited"
)

// Stream ids
const (
	ForecastStream   = "case1"
	AllocationStream = "case2"
)

type ForecastGenerated struct {
	Product    string                             `json:"product"`
	Weight     string                             `json:"weight"`
	Uplift     string                             `json:"uplift"`
	NormFactor string                             `json:"norm_factor"`
	Totals     map[entities.Region]entities.Units `json:"totals"`
}

type AllocationComputed struct {
	Program    entities.Program        `json:"program"`
	Protection entities.ProtectionRule `json:"protection"`
	Shortfalls []string                `json:"shortfall_weeks"`
}

type AllocationEdited struct {
	Program entities.Program          `json:"program"`
	Edits   []entities.AllocationEdit `json:"edits"`
}

func NewForecastGeneratedEvent(forecast *entities.Forecast) Event {
	return NewEvent(ForecastGeneratedEvent, ForecastStream, ForecastGenerated{
		Product:    forecast.Product,
		Weight:     forecast.Params.Weight.String(),
		Uplift:     forecast.Params.Uplift.String(),
		NormFactor: forecast.NormFactor.StringFixed(6),
		Totals:     forecast.RegionTotals(),
	})
}

func NewAllocationComputedEvent(result *entities.AllocationResult) Event {
	var shortfalls []string
	for _, week := range result.Weeks {
		if week.Shortfall {
			shortfalls = append(shortfalls, week.Week)
		}
	}
	return NewEvent(AllocationComputedEvent, AllocationStream, AllocationComputed{
		Program:    result.Program,
		Protection: result.Protection,
		Shortfalls: shortfalls,
	})
}

func NewAllocationEditedEvent(program entities.Program, edits []entities.AllocationEdit) Event {
	return NewEvent(AllocationEditedEvent, AllocationStream, AllocationEdited{
		Program: program,
		Edits:   edits,
	})
}
