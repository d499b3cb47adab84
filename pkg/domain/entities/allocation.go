package entities

import "fmt"

// ProtectionRule guarantees a channel its full ask in one week when supply is short
type ProtectionRule struct {
	Enabled bool    `json:"enabled"`
	Channel Channel `json:"channel"`
	Week    string  `json:"week"`
}

// Applies reports whether the rule covers the given week
func (r ProtectionRule) Applies(week string) bool {
	return r.Enabled && r.Week == week
}

// ChannelAllocation is the allocation decision for one channel in one week
type ChannelAllocation struct {
	Week      string  `json:"week"`
	Channel   Channel `json:"channel"`
	Ask       Units   `json:"ask"`
	Allocated Units   `json:"allocated"`
	Diff      Units   `json:"diff"`
}

// WeekAllocation groups the channel allocations of one week
type WeekAllocation struct {
	Week      string              `json:"week"`
	Supply    Units               `json:"supply"`
	TotalAsk  Units               `json:"total_ask"`
	Shortfall bool                `json:"shortfall"`
	Protected bool                `json:"protected"`
	Channels  []ChannelAllocation `json:"channels"`
}

// Allocated returns the units allocated across all channels
func (w WeekAllocation) Allocated() Units {
	var total Units
	for _, c := range w.Channels {
		total += c.Allocated
	}
	return total
}

// Get returns the allocation for a channel
func (w WeekAllocation) Get(channel Channel) (ChannelAllocation, bool) {
	for _, c := range w.Channels {
		if c.Channel == channel {
			return c, true
		}
	}
	return ChannelAllocation{}, false
}

// AllocationResult is the outcome of splitting remaining supply across channels
type AllocationResult struct {
	Program    Program          `json:"program"`
	Protection ProtectionRule   `json:"protection"`
	Channels   []Channel        `json:"channels"`
	Supply     []WeekSupply     `json:"supply"`
	Weeks      []WeekAllocation `json:"weeks"`
	Edits      []AllocationEdit `json:"edits,omitempty"` // edits that changed a computed cell
}

// Week returns the allocation for a week label
func (r *AllocationResult) Week(week string) (WeekAllocation, bool) {
	for _, w := range r.Weeks {
		if w.Week == week {
			return w, true
		}
	}
	return WeekAllocation{}, false
}

// AllocationEdit overrides the allocated-minus-ask difference for one cell
type AllocationEdit struct {
	Week    string  `json:"week"`
	Channel Channel `json:"channel"`
	Diff    Units   `json:"diff"`
}

// NewAllocationEdit creates a validated AllocationEdit
func NewAllocationEdit(week string, channel Channel, diff Units) (*AllocationEdit, error) {
	if week == "" {
		return nil, fmt.Errorf("%w: week cannot be empty", ErrInvalidParams)
	}
	if channel == "" {
		return nil, fmt.Errorf("%w: channel cannot be empty", ErrInvalidParams)
	}
	if diff > MaxUnits || diff < -MaxUnits {
		return nil, fmt.Errorf("%w: diff for %s %s is out of range, got %d", ErrInvalidParams, channel, week, diff)
	}
	return &AllocationEdit{Week: week, Channel: channel, Diff: diff}, nil
}
