package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vsinha/csdm/pkg/application/dto"
)

// Download file names
const (
	ForecastCSVFilename   = "superman_plus_15Wk_forecast.csv"
	AllocationCSVFilename = "superman_plus_allocation.csv"
)

// WriteForecastCSV writes one row per week with a column per region
func WriteForecastCSV(w io.Writer, report *dto.ForecastReport) error {
	writer := csv.NewWriter(w)

	header := []string{"Week"}
	for _, series := range report.Series {
		header = append(header, string(series.Region))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, week := range report.Weeks {
		record := []string{week}
		for _, series := range report.Series {
			record = append(record, strconv.FormatInt(int64(series.Units[i]), 10))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", week, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteAllocationCSV writes one row per week with the allocated units of
// each channel
func WriteAllocationCSV(w io.Writer, report *dto.AllocationReport) error {
	writer := csv.NewWriter(w)

	header := []string{"Week"}
	for _, channel := range report.Channels {
		header = append(header, string(channel))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, week := range report.Weeks {
		record := []string{week.Week}
		for _, c := range week.Channels {
			record = append(record, strconv.FormatInt(int64(c.Allocated), 10))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", week.Week, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
