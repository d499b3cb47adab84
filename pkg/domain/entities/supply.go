package entities

import "fmt"

// SupplyPlan holds the weekly supply picture for a family of programs and the
// channel asks for the target program
type SupplyPlan struct {
	Weeks               []string
	CumSupply           map[string]Units             // total cumulative supply per week
	ProgramDemand       map[Program]map[string]Units // demand forecast per program per week
	Programs            []Program
	PrioritizedPrograms []Program
	TargetProgram       Program
	Channels            []Channel
	ChannelAsk          map[Channel]map[string]Units
	ActualBuild         map[Program]Units // build already completed before the plan window
	BuildLabel          string            // e.g. "Jan_Wk1_Build"
}

// Validate checks that every table covers every week and that the program
// roles are consistent
func (p *SupplyPlan) Validate() error {
	if len(p.Weeks) == 0 {
		return fmt.Errorf("%w: supply plan has no weeks", ErrInvalidScenario)
	}
	if len(p.Channels) == 0 {
		return fmt.Errorf("%w: supply plan has no channels", ErrInvalidScenario)
	}
	if p.TargetProgram == "" {
		return fmt.Errorf("%w: target program cannot be empty", ErrInvalidScenario)
	}

	for _, week := range p.Weeks {
		supply, ok := p.CumSupply[week]
		if !ok {
			return fmt.Errorf("%w: no supply for %s", ErrInvalidScenario, week)
		}
		if supply < 0 {
			return fmt.Errorf("%w: supply for %s cannot be negative, got %d", ErrInvalidScenario, week, supply)
		}
		if supply > MaxUnits {
			return fmt.Errorf("%w: supply for %s exceeds %d, got %d", ErrInvalidScenario, week, MaxUnits, supply)
		}
	}

	known := make(map[Program]bool, len(p.Programs))
	for _, program := range p.Programs {
		known[program] = true
		demand, ok := p.ProgramDemand[program]
		if !ok {
			return fmt.Errorf("%w: no demand for program %s", ErrInvalidScenario, program)
		}
		for _, week := range p.Weeks {
			units, ok := demand[week]
			if !ok {
				return fmt.Errorf("%w: program %s has no demand for %s", ErrInvalidScenario, program, week)
			}
			if units < 0 || units > MaxUnits {
				return fmt.Errorf("%w: program %s demand for %s must be between 0 and %d, got %d",
					ErrInvalidScenario, program, week, MaxUnits, units)
			}
		}
	}
	if !known[p.TargetProgram] {
		return fmt.Errorf("%w: target program %s has no demand", ErrInvalidScenario, p.TargetProgram)
	}
	for _, program := range p.PrioritizedPrograms {
		if !known[program] {
			return fmt.Errorf("%w: prioritized program %s has no demand", ErrInvalidScenario, program)
		}
		if program == p.TargetProgram {
			return fmt.Errorf("%w: target program %s cannot also be prioritized", ErrInvalidScenario, program)
		}
	}

	for _, channel := range p.Channels {
		asks, ok := p.ChannelAsk[channel]
		if !ok {
			return fmt.Errorf("%w: no ask for channel %s", ErrInvalidScenario, channel)
		}
		for _, week := range p.Weeks {
			ask, ok := asks[week]
			if !ok {
				return fmt.Errorf("%w: channel %s has no ask for %s", ErrInvalidScenario, channel, week)
			}
			if ask < 0 {
				return fmt.Errorf("%w: channel %s ask for %s cannot be negative, got %d",
					ErrInvalidScenario, channel, week, ask)
			}
			if ask > MaxUnits {
				return fmt.Errorf("%w: channel %s ask for %s exceeds %d, got %d",
					ErrInvalidScenario, channel, week, MaxUnits, ask)
			}
		}
	}
	return nil
}

// HasWeek reports whether week is part of the plan
func (p *SupplyPlan) HasWeek(week string) bool {
	_, ok := p.CumSupply[week]
	return ok
}

// HasChannel reports whether channel is part of the plan
func (p *SupplyPlan) HasChannel(channel Channel) bool {
	_, ok := p.ChannelAsk[channel]
	return ok
}

// TotalAsk returns the sum of all channel asks for a week
func (p *SupplyPlan) TotalAsk(week string) Units {
	var total Units
	for _, channel := range p.Channels {
		total += p.ChannelAsk[channel][week]
	}
	return total
}

// WeekSupply describes supply left for the target program in one week
type WeekSupply struct {
	Week               string `json:"week"`
	TotalCumSupply     Units  `json:"total_cum_supply"`
	PrioritizedDemand  Units  `json:"prioritized_demand"`
	RemainingForTarget Units  `json:"remaining_for_target"`
	TargetDemand       Units  `json:"target_demand"`
	Gap                Units  `json:"gap"`
}
