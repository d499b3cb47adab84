package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/csdm/pkg/application/services/allocation"
	"github.com/vsinha/csdm/pkg/application/services/forecast"
	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Page names, each rendered inside the shared layout
const (
	pageWelcome = "welcome"
	pageCase1   = "case1"
	pageCase2   = "case2"
)

// EventLister reads recorded events, either newest first across streams or
// one stream in version order
type EventLister interface {
	Recent(limit int) []events.Event
	ReadEvents(streamID string, fromVersion int) ([]events.Event, error)
}

// Defaults are used for any parameter a request leaves out
type Defaults struct {
	Forecast   entities.ForecastParams
	Protection entities.ProtectionRule
}

// Server renders the dashboard pages, downloads, charts and JSON API
type Server struct {
	forecasts   *forecast.Service
	allocations *allocation.Service
	events      EventLister
	defaults    Defaults
	pages       map[string]*template.Template
	logger      *logrus.Logger
}

// New parses the page templates once. events may be nil.
func New(forecasts *forecast.Service, allocations *allocation.Service, eventLister EventLister, defaults Defaults, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{pageWelcome, pageCase1, pageCase2} {
		tmpl, err := template.New("layout.gohtml").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.gohtml", "templates/"+name+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Server{
		forecasts:   forecasts,
		allocations: allocations,
		events:      eventLister,
		defaults:    defaults,
		pages:       pages,
		logger:      logger,
	}, nil
}

// Handler exposes every route behind the request logger
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /case1", s.handleCase1)
	mux.HandleFunc("GET /case1/forecast.csv", s.handleForecastCSV)
	mux.HandleFunc("GET /case1/charts/{chart}", s.handleCase1Chart)

	mux.HandleFunc("GET /case2", s.handleCase2)
	mux.HandleFunc("POST /case2", s.handleCase2)
	mux.HandleFunc("GET /case2/allocation.csv", s.handleAllocationCSV)
	mux.HandleFunc("GET /case2/charts/{chart}", s.handleCase2Chart)

	mux.HandleFunc("GET /api/forecast", s.handleForecastAPI)
	mux.HandleFunc("GET /api/allocation", s.handleAllocationAPI)
	mux.HandleFunc("GET /api/events", s.handleEventsAPI)

	return requestLogger(s.logger, mux)
}

var templateFuncs = template.FuncMap{
	"signed": func(v entities.Units) string {
		return fmt.Sprintf("%+d", v)
	},
}
