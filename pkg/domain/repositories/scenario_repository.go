package repositories

import "github.com/vsinha/csdm/pkg/domain/entities"

// ScenarioRepository provides access to the case study input tables
type ScenarioRepository interface {
	// GetBaseHistory returns the history the forecast is anchored to
	GetBaseHistory() (*entities.SalesHistory, error)
	// GetReferenceHistory returns the history blended in for trend
	GetReferenceHistory() (*entities.SalesHistory, error)
	// GetForecastProduct returns the product being forecast
	GetForecastProduct() (entities.Product, error)
	GetSupplyPlan() (*entities.SupplyPlan, error)
}
