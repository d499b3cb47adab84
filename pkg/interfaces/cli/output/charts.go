package output

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vsinha/csdm/pkg/domain/entities"
)

// Chart size in pixels
const (
	ChartWidth  = 900
	ChartHeight = 360
)

var errNoChartData = errors.New("no data to chart")

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// RenderHistoryChart draws a sales history as one line per region
func RenderHistoryChart(w io.Writer, history *entities.SalesHistory, title string) error {
	return renderRegionLines(w, title, "Units Sold", history.Weeks, history.Regions, history.ByRegion)
}

// RenderForecastChart draws a forecast as one line per region
func RenderForecastChart(w io.Writer, forecast *entities.Forecast, title string) error {
	return renderRegionLines(w, title, "Forecasted Units", forecast.Weeks, forecast.Regions, forecast.ByRegion)
}

func renderRegionLines(w io.Writer, title, yName string, weeks []string, regions []entities.Region, byRegion map[entities.Region][]entities.Units) error {
	if len(weeks) == 0 || len(regions) == 0 {
		return errNoChartData
	}

	xs := make([]float64, len(weeks))
	ticks := make([]chart.Tick, len(weeks))
	for i, week := range weeks {
		xs[i] = float64(i + 1)
		ticks[i] = chart.Tick{Value: xs[i], Label: week}
	}
	// go-chart needs two distinct X values to build a range
	if len(xs) == 1 {
		xs = append(xs, 2)
	}

	series := make([]chart.Series, 0, len(regions))
	for i, region := range regions {
		units := byRegion[region]
		ys := make([]float64, len(xs))
		for j := range xs {
			k := j
			if k >= len(units) {
				k = len(units) - 1
			}
			if k >= 0 {
				ys[j] = float64(units[k])
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    string(region),
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(chart.GetDefaultColor(i)),
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      ChartWidth,
		Height:     ChartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Week", Ticks: ticks},
		YAxis:      chart.YAxis{Name: yName},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render %q: %w", title, err)
	}
	return nil
}

// RenderSupplyChart draws, for each week, the supply left for program next
// to the total channel ask
func RenderSupplyChart(w io.Writer, weeks []entities.WeekAllocation, program entities.Program) error {
	if len(weeks) == 0 {
		return errNoChartData
	}

	supplyStyle := chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue}
	demandStyle := chart.Style{FillColor: chart.ColorOrange, StrokeColor: chart.ColorOrange}

	bars := make([]chart.Value, 0, 2*len(weeks))
	lowest, highest := 0.0, 0.0
	for _, week := range weeks {
		lowest = math.Min(lowest, math.Min(float64(week.Supply), float64(week.TotalAsk)))
		highest = math.Max(highest, math.Max(float64(week.Supply), float64(week.TotalAsk)))
		bars = append(bars,
			chart.Value{Label: week.Week + " supply", Value: float64(week.Supply), Style: supplyStyle},
			chart.Value{Label: week.Week + " demand", Value: float64(week.TotalAsk), Style: demandStyle},
		)
	}

	bc := chart.BarChart{
		Title:        fmt.Sprintf("Supply vs Demand for %s by Week", program),
		Width:        ChartWidth,
		Height:       ChartHeight,
		Background:   chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:     60,
		BarSpacing:   20,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Range: supplyRange(lowest, highest)},
		Bars:         bars,
	}

	if err := bc.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render supply chart: %w", err)
	}
	return nil
}

// supplyRange anchors the axis at zero so bar heights compare, and keeps it
// non-empty when every bar is zero
func supplyRange(lowest, highest float64) *chart.ContinuousRange {
	if highest <= lowest {
		highest = lowest + 1
	}
	return &chart.ContinuousRange{Min: lowest, Max: highest}
}
