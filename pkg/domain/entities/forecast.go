package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bounds for forecast parameters as exposed on the dashboard
var (
	MinWeight = decimal.Zero
	MaxWeight = decimal.NewFromInt(1)
	MinUplift = decimal.NewFromInt(1)
	MaxUplift = decimal.NewFromInt(2)
)

// ForecastParams controls how two sales histories are blended into a forecast
type ForecastParams struct {
	Weight decimal.Decimal // share of the base product, the reference gets 1-Weight
	Uplift decimal.Decimal // demand multiplier, e.g. 1.15 for +15%
}

// DefaultForecastParams returns the blend used when nothing is specified
func DefaultForecastParams() ForecastParams {
	return ForecastParams{
		Weight: decimal.RequireFromString("0.7"),
		Uplift: decimal.RequireFromString("1.15"),
	}
}

// NewForecastParams creates validated ForecastParams
func NewForecastParams(weight, uplift decimal.Decimal) (ForecastParams, error) {
	p := ForecastParams{Weight: weight, Uplift: uplift}
	if err := p.Validate(); err != nil {
		return ForecastParams{}, err
	}
	return p, nil
}

// Validate checks that both parameters are inside their dashboard bounds
func (p ForecastParams) Validate() error {
	if p.Weight.LessThan(MinWeight) || p.Weight.GreaterThan(MaxWeight) {
		return fmt.Errorf("%w: weight must be between %s and %s, got %s",
			ErrInvalidParams, MinWeight, MaxWeight, p.Weight)
	}
	if p.Uplift.LessThan(MinUplift) || p.Uplift.GreaterThan(MaxUplift) {
		return fmt.Errorf("%w: uplift must be between %s and %s, got %s",
			ErrInvalidParams, MinUplift, MaxUplift, p.Uplift)
	}
	return nil
}

// ReferenceWeight returns the share given to the reference product
func (p ForecastParams) ReferenceWeight() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(p.Weight)
}

// BlendLabel renders the blend, e.g. "0.70 x Princess + 0.30 x Dwarf"
func (p ForecastParams) BlendLabel(baseName, referenceName string) string {
	return fmt.Sprintf("%s x %s + %s x %s",
		p.Weight.StringFixed(2), baseName, p.ReferenceWeight().StringFixed(2), referenceName)
}

// Forecast holds forecasted weekly units by region
type Forecast struct {
	Product    string
	Params     ForecastParams
	NormFactor decimal.Decimal
	Weeks      []string
	Regions    []Region
	ByRegion   map[Region][]Units
}

// RegionTotals returns forecasted units per region across all weeks
func (f *Forecast) RegionTotals() map[Region]Units {
	totals := make(map[Region]Units, len(f.Regions))
	for _, region := range f.Regions {
		totals[region] = SumUnits(f.ByRegion[region])
	}
	return totals
}

// Total returns forecasted units across every region and week
func (f *Forecast) Total() Units {
	var total Units
	for _, region := range f.Regions {
		total += SumUnits(f.ByRegion[region])
	}
	return total
}

// DemandComparisonRow holds per-region totals for the two references and the forecast
type DemandComparisonRow struct {
	Region    Region `json:"region"`
	Reference Units  `json:"reference"`
	Base      Units  `json:"base"`
	Forecast  Units  `json:"forecast"`
}

// DemandComparison compares region totals of both histories and the forecast
type DemandComparison struct {
	ReferenceProduct string                `json:"reference_product"`
	BaseProduct      string                `json:"base_product"`
	ForecastProduct  string                `json:"forecast_product"`
	Rows             []DemandComparisonRow `json:"rows"`
}
