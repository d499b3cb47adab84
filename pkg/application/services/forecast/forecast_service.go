package forecast

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/domain/repositories"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
)

// Service produces demand forecasts for a new product by blending the sales
// histories of two similar products
type Service struct {
	repo       repositories.ScenarioRepository
	eventStore events.EventStore
}

// NewService creates a forecast service. eventStore may be nil.
func NewService(repo repositories.ScenarioRepository, eventStore events.EventStore) *Service {
	return &Service{
		repo:       repo,
		eventStore: eventStore,
	}
}

// Generate forecasts the scenario's forecast product with the given parameters
func (s *Service) Generate(ctx context.Context, params entities.ForecastParams) (*entities.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	base, reference, err := s.histories()
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetForecastProduct()
	if err != nil {
		return nil, err
	}

	forecast, err := GenerateForecast(base, reference, params)
	if err != nil {
		return nil, err
	}
	forecast.Product = product.Name

	if s.eventStore != nil {
		if err := s.eventStore.AppendEvent(events.ForecastStream, events.NewForecastGeneratedEvent(forecast)); err != nil {
			return nil, fmt.Errorf("failed to record forecast: %w", err)
		}
	}
	return forecast, nil
}

// Compare builds the per-region totals table of both histories and the forecast
func (s *Service) Compare(ctx context.Context, forecast *entities.Forecast) (*entities.DemandComparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, reference, err := s.histories()
	if err != nil {
		return nil, err
	}
	return CompareTotals(base, reference, forecast), nil
}

// Histories returns the base and reference sales histories
func (s *Service) Histories() (*entities.SalesHistory, *entities.SalesHistory, error) {
	return s.histories()
}

func (s *Service) histories() (*entities.SalesHistory, *entities.SalesHistory, error) {
	base, err := s.repo.GetBaseHistory()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get base history: %w", err)
	}
	reference, err := s.repo.GetReferenceHistory()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get reference history: %w", err)
	}
	return base, reference, nil
}

// GenerateForecast blends base and reference weekly sales with weight given to
// base, rounds the blend, then scales it by uplift and by the factor that
// keeps the blend's volume on the base product's. Arithmetic is float64 in
// the order blend, uplift, norm factor, with each intermediate product
// rounded to float64 before the next operation. Rounding to whole units is
// half to even on the float64 value, so a blend at a .5 boundary follows the
// binary value: weight 0.55 blends 70 and 180 to 119.49999999999999, giving 119.
func GenerateForecast(base, reference *entities.SalesHistory, params entities.ForecastParams) (*entities.Forecast, error) {
	if err := base.SameShape(reference); err != nil {
		return nil, err
	}

	weight := params.Weight.InexactFloat64()
	refWeight := 1.0 - weight
	uplift := params.Uplift.InexactFloat64()

	baseSum := float64(base.Total())
	refSum := float64(reference.Total())
	denominator := float64(weight*baseSum) + float64(refWeight*refSum)
	if denominator == 0 {
		return nil, fmt.Errorf("%w: blended sales volume is zero", entities.ErrInvalidParams)
	}
	normFactor := baseSum / denominator

	byRegion := make(map[entities.Region][]entities.Units, len(base.Regions))
	for _, region := range base.Regions {
		baseValues := base.ByRegion[region]
		refValues := reference.ByRegion[region]
		values := make([]entities.Units, len(baseValues))
		for i := range baseValues {
			blended := roundHalfEven(float64(weight*float64(baseValues[i])) + float64(refWeight*float64(refValues[i])))
			values[i] = entities.Units(roundHalfEven(float64(float64(blended)*uplift) * normFactor))
		}
		byRegion[region] = values
	}

	return &entities.Forecast{
		Params:     params,
		NormFactor: decimal.NewFromFloat(normFactor),
		Weeks:      append([]string(nil), base.Weeks...),
		Regions:    append([]entities.Region(nil), base.Regions...),
		ByRegion:   byRegion,
	}, nil
}

// roundHalfEven rounds the exact float64 value to a whole number of units
func roundHalfEven(x float64) int64 {
	return decimal.NewFromFloat(x).RoundBank(0).IntPart()
}

// CompareTotals returns region totals for reference, base and forecast in
// base region order
func CompareTotals(base, reference *entities.SalesHistory, forecast *entities.Forecast) *entities.DemandComparison {
	baseTotals := base.RegionTotals()
	refTotals := reference.RegionTotals()
	forecastTotals := forecast.RegionTotals()

	comparison := &entities.DemandComparison{
		ReferenceProduct: reference.Product.Name,
		BaseProduct:      base.Product.Name,
		ForecastProduct:  forecast.Product,
	}
	for _, region := range base.Regions {
		comparison.Rows = append(comparison.Rows, entities.DemandComparisonRow{
			Region:    region,
			Reference: refTotals[region],
			Base:      baseTotals[region],
			Forecast:  forecastTotals[region],
		})
	}
	return comparison
}
