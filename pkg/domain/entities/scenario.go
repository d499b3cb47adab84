package entities

// Scenario bundles every input table of the case study
type Scenario struct {
	Base            *SalesHistory
	Reference       *SalesHistory
	ForecastProduct Product
	Plan            *SupplyPlan
}
