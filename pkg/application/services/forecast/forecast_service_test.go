package forecast

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	testhelpers "github.com/vsinha/csdm/pkg/application/services/testing"
	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
)

func params(t *testing.T, weight, uplift string) entities.ForecastParams {
	t.Helper()
	p, err := entities.NewForecastParams(decimal.RequireFromString(weight), decimal.RequireFromString(uplift))
	if err != nil {
		t.Fatalf("Invalid params: %v", err)
	}
	return p
}

func TestGenerate_DefaultCaseStudy(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	forecast, err := service.Generate(context.Background(), entities.DefaultForecastParams())
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	if forecast.Product != "Superman Plus" {
		t.Errorf("Expected product Superman Plus, got %s", forecast.Product)
	}
	if len(forecast.Weeks) != 15 {
		t.Errorf("Expected 15 weeks, got %d", len(forecast.Weeks))
	}

	expected := map[entities.Region][]entities.Units{
		"AMR":    {283, 198, 152, 129, 147, 152, 134, 134, 128, 143, 110, 119, 126, 115, 129},
		"Europe": {101, 92, 87, 92, 85, 74, 71, 71, 63, 60, 66, 86, 86, 71, 60},
		"PAC":    {186, 233, 225, 159, 143, 138, 128, 131, 128, 104, 119, 130, 155, 122, 104},
	}
	for region, want := range expected {
		if got := forecast.ByRegion[region]; !reflect.DeepEqual(got, want) {
			t.Errorf("%s forecast:\n  expected %v\n  got      %v", region, want, got)
		}
	}

	totals := forecast.RegionTotals()
	if totals["AMR"] != 2199 || totals["Europe"] != 1165 || totals["PAC"] != 2205 {
		t.Errorf("Unexpected region totals %v", totals)
	}
	if got := forecast.NormFactor.StringFixed(6); got != "0.931898" {
		t.Errorf("Expected norm factor 0.931898, got %s", got)
	}
}

func TestGenerate_BlendExtremes(t *testing.T) {
	repo := testhelpers.BuildCaseStudyScenario()
	service := NewService(repo, nil)
	base, _ := repo.GetBaseHistory()

	allBase, err := service.Generate(context.Background(), params(t, "1", "1"))
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	for _, region := range base.Regions {
		if !reflect.DeepEqual(allBase.ByRegion[region], base.ByRegion[region]) {
			t.Errorf("%s: weight 1 and uplift 1 should reproduce base sales, got %v", region, allBase.ByRegion[region])
		}
	}

	allReference, err := service.Generate(context.Background(), params(t, "0", "1"))
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	want := []entities.Units{257, 177, 137, 153, 161, 137, 129, 129, 113, 113, 145, 129, 129, 137, 153}
	if !reflect.DeepEqual(allReference.ByRegion["AMR"], want) {
		t.Errorf("AMR with weight 0: expected %v, got %v", want, allReference.ByRegion["AMR"])
	}
}

func TestGenerateForecast_SmallExample(t *testing.T) {
	repo := testhelpers.BuildTwoWeekScenario()
	base, _ := repo.GetBaseHistory()
	reference, _ := repo.GetReferenceHistory()

	forecast, err := GenerateForecast(base, reference, params(t, "0.7", "1.1"))
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	expected := map[entities.Region][]entities.Units{
		"AMR":    {119, 218},
		"Europe": {162, 271},
	}
	if !reflect.DeepEqual(forecast.ByRegion, expected) {
		t.Errorf("Expected %v, got %v", expected, forecast.ByRegion)
	}
}

func TestGenerateForecast_RoundsHalfToEven(t *testing.T) {
	weeks := []string{"Week 1", "Week 2"}
	base, _ := entities.NewSalesHistory(entities.Product{Name: "Base"}, weeks, []entities.Region{"AMR"},
		map[entities.Region][]entities.Units{"AMR": {2, 3}})
	reference, _ := entities.NewSalesHistory(entities.Product{Name: "Reference"}, weeks, []entities.Region{"AMR"},
		map[entities.Region][]entities.Units{"AMR": {3, 2}})

	forecast, err := GenerateForecast(base, reference, params(t, "0.5", "1"))
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	// both weeks blend to 2.5
	want := []entities.Units{2, 2}
	if !reflect.DeepEqual(forecast.ByRegion["AMR"], want) {
		t.Errorf("Expected %v, got %v", want, forecast.ByRegion["AMR"])
	}
}

func TestGenerate_FloatBoundaries(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	tests := []struct {
		name     string
		weight   string
		uplift   string
		region   entities.Region
		expected []entities.Units
	}{
		{
			// 0.55*70 + (1-0.55)*180 is 119.49999999999999 in float64
			name:     "weight 0.55",
			weight:   "0.55",
			uplift:   "1",
			region:   "AMR",
			expected: []entities.Units{249, 173, 133, 122, 135, 133, 119, 119, 112, 121, 107, 110, 114, 108, 122},
		},
		{
			name:     "weight 0.55 europe",
			weight:   "0.55",
			uplift:   "1.00",
			region:   "Europe",
			expected: []entities.Units{82, 80, 68, 80, 76, 67, 62, 62, 58, 53, 61, 72, 72, 62, 53},
		},
		{
			// seven slider steps of 0.05 accumulate to this weight
			name:     "accumulated weight",
			weight:   "0.35000000000000003",
			uplift:   "1",
			region:   "Europe",
			expected: []entities.Units{75, 80, 60, 80, 77, 69, 63, 63, 60, 54, 66, 69, 69, 63, 54},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecast, err := service.Generate(context.Background(), params(t, tt.weight, tt.uplift))
			if err != nil {
				t.Fatalf("Forecast failed: %v", err)
			}
			if got := forecast.ByRegion[tt.region]; !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("%s forecast:\n  expected %v\n  got      %v", tt.region, tt.expected, got)
			}
		})
	}
}

func TestGenerate_OtherBlendTotals(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	tests := []struct {
		weight, uplift string
		expected       map[entities.Region]entities.Units
	}{
		{"0.5", "1.2", map[entities.Region]entities.Units{"AMR": 2402, "Europe": 1209, "PAC": 2198}},
		{"0.35", "1", map[entities.Region]entities.Units{"AMR": 2063, "Europe": 1003, "PAC": 1773}},
		{"0", "2", map[entities.Region]entities.Units{"AMR": 4389, "Europe": 1998, "PAC": 3296}},
	}

	for _, tt := range tests {
		forecast, err := service.Generate(context.Background(), params(t, tt.weight, tt.uplift))
		if err != nil {
			t.Fatalf("Forecast failed: %v", err)
		}
		if got := forecast.RegionTotals(); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("weight %s uplift %s: expected totals %v, got %v", tt.weight, tt.uplift, tt.expected, got)
		}
	}
}

func TestGenerateForecast_Errors(t *testing.T) {
	weeks := []string{"Week 1"}
	base, _ := entities.NewSalesHistory(entities.Product{Name: "Base"}, weeks, []entities.Region{"AMR"},
		map[entities.Region][]entities.Units{"AMR": {0}})
	zero, _ := entities.NewSalesHistory(entities.Product{Name: "Reference"}, weeks, []entities.Region{"AMR"},
		map[entities.Region][]entities.Units{"AMR": {0}})
	otherRegion, _ := entities.NewSalesHistory(entities.Product{Name: "Reference"}, weeks, []entities.Region{"PAC"},
		map[entities.Region][]entities.Units{"PAC": {5}})

	if _, err := GenerateForecast(base, zero, params(t, "0.5", "1")); !errors.Is(err, entities.ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for zero volume, got %v", err)
	}
	if _, err := GenerateForecast(base, otherRegion, params(t, "0.5", "1")); !errors.Is(err, entities.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for differing regions, got %v", err)
	}
}

func TestGenerate_RejectsInvalidParams(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	bad := entities.ForecastParams{Weight: decimal.RequireFromString("1.5"), Uplift: decimal.NewFromInt(1)}
	if _, err := service.Generate(context.Background(), bad); !errors.Is(err, entities.ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams, got %v", err)
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := service.Generate(ctx, entities.DefaultForecastParams()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGenerate_RecordsEvent(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := events.NewInMemoryEventStore(logger, 0)
	service := NewService(testhelpers.BuildCaseStudyScenario(), store)

	if _, err := service.Generate(context.Background(), entities.DefaultForecastParams()); err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	recorded, _ := store.ReadEvents(events.ForecastStream, 1)
	if len(recorded) != 1 {
		t.Fatalf("Expected 1 recorded event, got %d", len(recorded))
	}
	data, ok := recorded[0].Data().(events.ForecastGenerated)
	if !ok {
		t.Fatalf("Unexpected payload type %T", recorded[0].Data())
	}
	if data.Weight != "0.7" || data.Uplift != "1.15" {
		t.Errorf("Unexpected params in event: %+v", data)
	}
	if data.Totals["PAC"] != 2205 {
		t.Errorf("Expected PAC total 2205 in event, got %d", data.Totals["PAC"])
	}
}

func TestCompare(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)
	ctx := context.Background()

	forecast, err := service.Generate(ctx, entities.DefaultForecastParams())
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	comparison, err := service.Compare(ctx, forecast)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if comparison.ReferenceProduct != "Dwarf Plus" || comparison.BaseProduct != "Princess Plus" {
		t.Errorf("Unexpected products %s / %s", comparison.ReferenceProduct, comparison.BaseProduct)
	}

	want := []entities.DemandComparisonRow{
		{Region: "AMR", Reference: 2730, Base: 1760, Forecast: 2199},
		{Region: "Europe", Reference: 1240, Base: 1020, Forecast: 1165},
		{Region: "PAC", Reference: 2049, Base: 2060, Forecast: 2205},
	}
	if !reflect.DeepEqual(comparison.Rows, want) {
		t.Errorf("Expected rows %v, got %v", want, comparison.Rows)
	}
}
