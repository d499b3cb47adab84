package web

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/csdm/pkg/domain/entities"
)

// Edited diffs travel as form or query values named diff|<week>|<channel>
const diffFieldPrefix = "diff|"

func diffField(week string, channel entities.Channel) string {
	return diffFieldPrefix + week + "|" + string(channel)
}

// forecastParams reads weight and uplift, falling back to defaults for
// missing values
func forecastParams(r *http.Request, defaults entities.ForecastParams) (entities.ForecastParams, error) {
	q := r.URL.Query()
	weight, err := decimalParam(q, "weight", defaults.Weight)
	if err != nil {
		return entities.ForecastParams{}, err
	}
	uplift, err := decimalParam(q, "uplift", defaults.Uplift)
	if err != nil {
		return entities.ForecastParams{}, err
	}
	return entities.NewForecastParams(weight, uplift)
}

func decimalParam(q url.Values, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s must be a number, got %q", entities.ErrInvalidParams, name, raw)
	}
	return d, nil
}

// Form field names for the protection toggle. grid_protect is the rule the
// posted diffs were computed under.
const (
	protectField     = "protect"
	gridProtectField = "grid_protect"
)

// protectionRule toggles the default rule with the protect value
func protectionRule(r *http.Request, defaults entities.ProtectionRule) (entities.ProtectionRule, error) {
	rule := defaults
	enabled, err := toggleParam(r, protectField, defaults.Enabled)
	if err != nil {
		return entities.ProtectionRule{}, err
	}
	rule.Enabled = enabled
	return rule, nil
}

// toggleParam reads a checkbox style field. The checkbox form sends a
// hidden "off" alongside "on", so the toggle is set when any value is on.
// Every value must be a boolean, "on" or "off".
func toggleParam(r *http.Request, name string, fallback bool) (bool, error) {
	if err := r.ParseForm(); err != nil {
		return false, fmt.Errorf("%w: %v", entities.ErrInvalidParams, err)
	}
	values := r.Form[name]
	if len(values) == 0 {
		return fallback, nil
	}

	enabled := false
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		var on bool
		switch strings.ToLower(raw) {
		case "on":
			on = true
		case "off":
		default:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return false, fmt.Errorf("%w: %s must be a boolean, got %q", entities.ErrInvalidParams, name, raw)
			}
			on = b
		}
		enabled = enabled || on
	}
	return enabled, nil
}

// allocationEdits collects diff fields from the query string and form body,
// ordered by week and channel name
func allocationEdits(r *http.Request) ([]entities.AllocationEdit, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidParams, err)
	}

	keys := make([]string, 0)
	for key := range r.Form {
		if strings.HasPrefix(key, diffFieldPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	edits := make([]entities.AllocationEdit, 0, len(keys))
	for _, key := range keys {
		parts := strings.SplitN(strings.TrimPrefix(key, diffFieldPrefix), "|", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: malformed field %q", entities.ErrInvalidParams, key)
		}
		raw := strings.TrimSpace(r.Form.Get(key))
		diff, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: diff for %s %s must be a whole number, got %q",
				entities.ErrInvalidParams, parts[1], parts[0], raw)
		}
		edit, err := entities.NewAllocationEdit(parts[0], entities.Channel(parts[1]), entities.Units(diff))
		if err != nil {
			return nil, err
		}
		edits = append(edits, *edit)
	}
	return edits, nil
}

func forecastQuery(params entities.ForecastParams) string {
	q := url.Values{}
	q.Set("weight", params.Weight.String())
	q.Set("uplift", params.Uplift.String())
	return q.Encode()
}

func allocationQuery(rule entities.ProtectionRule, edits []entities.AllocationEdit) string {
	q := url.Values{}
	q.Set(protectField, strconv.FormatBool(rule.Enabled))
	q.Set(gridProtectField, strconv.FormatBool(rule.Enabled))
	for _, edit := range edits {
		q.Set(diffField(edit.Week, edit.Channel), strconv.FormatInt(int64(edit.Diff), 10))
	}
	return q.Encode()
}
