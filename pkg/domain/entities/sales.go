package entities

import "fmt"

// Product describes a product whose weekly sales are tracked
type Product struct {
	Name       string
	PriceLabel string // e.g. "$200"
	LaunchNote string // e.g. "last year"
	StartNote  string // where week 1 sits in the calendar, e.g. "from Oct wk4"
}

// SalesHistory holds weekly unit sales of one product broken down by region
type SalesHistory struct {
	Product  Product
	Weeks    []string
	Regions  []Region
	ByRegion map[Region][]Units
}

// NewSalesHistory creates a validated SalesHistory
func NewSalesHistory(product Product, weeks []string, regions []Region, byRegion map[Region][]Units) (*SalesHistory, error) {
	if product.Name == "" {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrInvalidScenario)
	}
	if len(weeks) == 0 {
		return nil, fmt.Errorf("%w: sales history for %s has no weeks", ErrInvalidScenario, product.Name)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: sales history for %s has no regions", ErrInvalidScenario, product.Name)
	}
	if len(byRegion) != len(regions) {
		return nil, fmt.Errorf("%w: sales history for %s lists %d regions but has data for %d",
			ErrInvalidScenario, product.Name, len(regions), len(byRegion))
	}

	seen := make(map[Region]bool, len(regions))
	for _, region := range regions {
		if seen[region] {
			return nil, fmt.Errorf("%w: duplicate region %s", ErrInvalidScenario, region)
		}
		seen[region] = true

		values, ok := byRegion[region]
		if !ok {
			return nil, fmt.Errorf("%w: no sales for region %s", ErrInvalidScenario, region)
		}
		if len(values) != len(weeks) {
			return nil, fmt.Errorf("%w: region %s has %d weeks, expected %d",
				ErrInvalidScenario, region, len(values), len(weeks))
		}
		for i, v := range values {
			if v < 0 {
				return nil, fmt.Errorf("%w: region %s %s has negative sales %d",
					ErrInvalidScenario, region, weeks[i], v)
			}
		}
	}

	return &SalesHistory{
		Product:  product,
		Weeks:    weeks,
		Regions:  regions,
		ByRegion: byRegion,
	}, nil
}

// Total returns units sold across every region and week
func (h *SalesHistory) Total() Units {
	var total Units
	for _, region := range h.Regions {
		total += SumUnits(h.ByRegion[region])
	}
	return total
}

// RegionTotals returns units sold per region across all weeks
func (h *SalesHistory) RegionTotals() map[Region]Units {
	totals := make(map[Region]Units, len(h.Regions))
	for _, region := range h.Regions {
		totals[region] = SumUnits(h.ByRegion[region])
	}
	return totals
}

// SameShape reports whether other covers the same regions and number of weeks
func (h *SalesHistory) SameShape(other *SalesHistory) error {
	if len(h.Regions) != len(other.Regions) {
		return fmt.Errorf("%w: %s has %d regions, %s has %d",
			ErrShapeMismatch, h.Product.Name, len(h.Regions), other.Product.Name, len(other.Regions))
	}
	for _, region := range h.Regions {
		values, ok := other.ByRegion[region]
		if !ok {
			return fmt.Errorf("%w: region %s missing from %s", ErrShapeMismatch, region, other.Product.Name)
		}
		if len(values) != len(h.ByRegion[region]) {
			return fmt.Errorf("%w: region %s has %d weeks in %s and %d in %s",
				ErrShapeMismatch, region, len(h.ByRegion[region]), h.Product.Name, len(values), other.Product.Name)
		}
	}
	return nil
}
