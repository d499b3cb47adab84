package entities

import "errors"

// Units represents a discrete count of finished goods
type Units int64

// MaxUnits bounds any single quantity in a scenario or edit, keeping sums
// and products of plan values well inside int64
const MaxUnits Units = 1_000_000_000

// Region represents a sales region
type Region string

// Channel represents a sales channel that asks for supply
type Channel string

// Program represents a product program competing for the same supply
type Program string

var (
	// ErrInvalidScenario is returned when scenario tables fail validation
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrShapeMismatch is returned when two series cannot be combined
	ErrShapeMismatch = errors.New("series shape mismatch")
	// ErrInvalidParams is returned when user supplied parameters are out of range
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrUnknownWeek is returned when a week label is not part of the plan
	ErrUnknownWeek = errors.New("unknown week")
	// ErrUnknownChannel is returned when a channel is not part of the plan
	ErrUnknownChannel = errors.New("unknown channel")
)

// SumUnits returns the total of the given values
func SumUnits(values []Units) Units {
	var total Units
	for _, v := range values {
		total += v
	}
	return total
}
