package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/csdm/pkg/application/dto"
	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
	"github.com/vsinha/csdm/pkg/interfaces/cli/output"
)

const defaultEventLimit = 50

type welcomeView struct {
	Title string
	Cases []string
}

type case1View struct {
	Title     string
	Base      entities.Product
	Reference entities.Product
	Report    *dto.ForecastReport
	Params    entities.ForecastParams
	Query     template.URL
}

type diffCell struct {
	Field     string
	Ask       entities.Units
	Allocated entities.Units
	Diff      entities.Units
}

type diffRow struct {
	Channel entities.Channel
	Cells   []diffCell
}

type case2View struct {
	Title  string
	Report *dto.AllocationReport
	Rows   []diffRow
	Edited bool
	Query  template.URL
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.render(w, pageWelcome, welcomeView{
		Title: "CSDM Case Study Dashboard",
		Cases: []string{
			"Case 1: Superman Plus Demand Forecast",
			"Case 2: Allocate Remaining Supply for Superman Plus in Wk4",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleCase1(w http.ResponseWriter, r *http.Request) {
	report, params, err := s.forecastReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	base, reference, err := s.forecasts.Histories()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, pageCase1, case1View{
		Title:     report.Product + " Demand Forecast",
		Base:      base.Product,
		Reference: reference.Product,
		Report:    report,
		Params:    params,
		Query:     template.URL(forecastQuery(params)),
	})
}

func (s *Server) handleForecastCSV(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.forecastReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := output.WriteForecastCSV(&buf, report); err != nil {
		s.fail(w, r, err)
		return
	}
	writeDownload(w, output.ForecastCSVFilename, buf.Bytes())
}

func (s *Server) handleCase1Chart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	switch r.PathValue("chart") {
	case "princess.svg", "dwarf.svg":
		base, reference, err := s.forecasts.Histories()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		history := base
		if r.PathValue("chart") == "dwarf.svg" {
			history = reference
		}
		title := history.Product.Name + " – Historical Demand"
		if history.Product.StartNote != "" {
			title += " (" + history.Product.StartNote + ")"
		}
		if err := output.RenderHistoryChart(&buf, history, title); err != nil {
			s.fail(w, r, err)
			return
		}
	case "forecast.svg":
		params, err := forecastParams(r, s.defaults.Forecast)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		forecast, err := s.forecasts.Generate(r.Context(), params)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := output.RenderForecastChart(&buf, forecast, "Forecasted Demand for "+forecast.Product); err != nil {
			s.fail(w, r, err)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}
	writeSVG(w, buf.Bytes())
}

func (s *Server) handleCase2(w http.ResponseWriter, r *http.Request) {
	report, rule, err := s.allocationReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows := make([]diffRow, 0, len(report.Channels))
	for i, channel := range report.Channels {
		row := diffRow{Channel: channel}
		for _, week := range report.Weeks {
			c := week.Channels[i]
			row.Cells = append(row.Cells, diffCell{
				Field:     diffField(week.Week, channel),
				Ask:       c.Ask,
				Allocated: c.Allocated,
				Diff:      c.Diff,
			})
		}
		rows = append(rows, row)
	}

	s.render(w, pageCase2, case2View{
		Title:  "Allocate Remaining Supply for " + string(report.Program),
		Report: report,
		Rows:   rows,
		Edited: len(report.Edits) > 0,
		Query:  template.URL(allocationQuery(rule, report.Edits)),
	})
}

func (s *Server) handleAllocationCSV(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.allocationReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := output.WriteAllocationCSV(&buf, report); err != nil {
		s.fail(w, r, err)
		return
	}
	writeDownload(w, output.AllocationCSVFilename, buf.Bytes())
}

func (s *Server) handleCase2Chart(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("chart") != "supply.svg" {
		http.NotFound(w, r)
		return
	}
	report, _, err := s.allocationReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := output.RenderSupplyChart(&buf, report.Weeks, report.Program); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSVG(w, buf.Bytes())
}

func (s *Server) handleForecastAPI(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.forecastReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAllocationAPI(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.allocationReport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleEventsAPI lists the newest events, or with stream set the events of
// that stream from version since on, oldest first
func (s *Server) handleEventsAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := countParam(q.Get("limit"), "limit", defaultEventLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stream := q.Get("stream")
	since, err := countParam(q.Get("since"), "since", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if stream == "" && q.Has("since") {
		s.fail(w, r, fmt.Errorf("%w: since needs a stream", entities.ErrInvalidParams))
		return
	}

	recorded := []events.Event{}
	switch {
	case s.events == nil:
	case stream == "":
		recorded = s.events.Recent(limit)
	default:
		recorded, err = s.events.ReadEvents(stream, since)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if limit > 0 && len(recorded) > limit {
			recorded = recorded[:limit]
		}
	}
	writeJSON(w, http.StatusOK, recorded)
}

func countParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", entities.ErrInvalidParams, name, raw)
	}
	return n, nil
}

func (s *Server) forecastReport(r *http.Request) (*dto.ForecastReport, entities.ForecastParams, error) {
	params, err := forecastParams(r, s.defaults.Forecast)
	if err != nil {
		return nil, params, err
	}
	ctx := r.Context()
	forecast, err := s.forecasts.Generate(ctx, params)
	if err != nil {
		return nil, params, err
	}
	comparison, err := s.forecasts.Compare(ctx, forecast)
	if err != nil {
		return nil, params, err
	}
	return dto.NewForecastReport(forecast, comparison), params, nil
}

// allocationReport applies the requested edits under the requested rule.
// Diffs computed under a different protection rule than the one requested
// no longer describe the grid and are dropped.
func (s *Server) allocationReport(r *http.Request) (*dto.AllocationReport, entities.ProtectionRule, error) {
	edits, err := allocationEdits(r)
	if err != nil {
		return nil, entities.ProtectionRule{}, err
	}
	rule, err := protectionRule(r, s.defaults.Protection)
	if err != nil {
		return nil, rule, err
	}
	grid, err := toggleParam(r, gridProtectField, s.defaults.Protection.Enabled)
	if err != nil {
		return nil, rule, err
	}
	if grid != rule.Enabled && len(edits) > 0 {
		s.logger.WithFields(logrus.Fields{
			"protect": rule.Enabled,
			"edits":   len(edits),
		}).Debug("protection changed, discarding edits")
		edits = nil
	}

	result, err := s.allocations.ApplyEdits(r.Context(), rule, edits)
	if err != nil {
		return nil, rule, err
	}
	plan, err := s.allocations.Plan()
	if err != nil {
		return nil, rule, err
	}
	return dto.NewAllocationReport(result, plan), rule, nil
}

func (s *Server) render(w http.ResponseWriter, page string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages[page].Execute(&buf, data); err != nil {
		s.logger.WithError(err).WithField("page", page).Error("template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// fail maps domain errors to 400 and everything else to 500
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entities.ErrInvalidParams),
		errors.Is(err, entities.ErrUnknownWeek),
		errors.Is(err, entities.ErrUnknownChannel):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSVG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(data)
}

func writeDownload(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}
