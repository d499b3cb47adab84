package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/domain/repositories"
)

// ScenarioRepository provides in-memory storage for the case study tables
type ScenarioRepository struct {
	mu        sync.RWMutex
	base      *entities.SalesHistory
	reference *entities.SalesHistory
	product   entities.Product
	plan      *entities.SupplyPlan
}

// NewScenarioRepository creates a new empty in-memory scenario repository
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{}
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// LoadScenario stores every table of a scenario
func (r *ScenarioRepository) LoadScenario(scenario *entities.Scenario) error {
	if scenario == nil {
		return fmt.Errorf("scenario is required")
	}
	if scenario.ForecastProduct.Name == "" {
		return fmt.Errorf("%w: forecast product name cannot be empty", entities.ErrInvalidScenario)
	}
	if err := r.LoadSalesHistories(scenario.Base, scenario.Reference); err != nil {
		return err
	}
	if err := r.LoadSupplyPlan(scenario.Plan); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.product = scenario.ForecastProduct
	return nil
}

// LoadSalesHistories stores the base and reference histories after checking
// that they can be blended
func (r *ScenarioRepository) LoadSalesHistories(base, reference *entities.SalesHistory) error {
	if base == nil || reference == nil {
		return fmt.Errorf("both base and reference histories are required")
	}
	if err := base.SameShape(reference); err != nil {
		return fmt.Errorf("histories cannot be blended: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = base
	r.reference = reference
	return nil
}

// LoadSupplyPlan stores a validated supply plan
func (r *ScenarioRepository) LoadSupplyPlan(plan *entities.SupplyPlan) error {
	if plan == nil {
		return fmt.Errorf("supply plan is required")
	}
	if err := plan.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plan = plan
	return nil
}

// GetBaseHistory returns the base sales history
func (r *ScenarioRepository) GetBaseHistory() (*entities.SalesHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.base == nil {
		return nil, fmt.Errorf("base sales history not loaded")
	}
	return r.base, nil
}

// GetReferenceHistory returns the reference sales history
func (r *ScenarioRepository) GetReferenceHistory() (*entities.SalesHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.reference == nil {
		return nil, fmt.Errorf("reference sales history not loaded")
	}
	return r.reference, nil
}

// GetForecastProduct returns the product being forecast
func (r *ScenarioRepository) GetForecastProduct() (entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.product.Name == "" {
		return entities.Product{}, fmt.Errorf("forecast product not loaded")
	}
	return r.product, nil
}

// GetSupplyPlan returns the supply plan
func (r *ScenarioRepository) GetSupplyPlan() (*entities.SupplyPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.plan == nil {
		return nil, fmt.Errorf("supply plan not loaded")
	}
	return r.plan, nil
}
