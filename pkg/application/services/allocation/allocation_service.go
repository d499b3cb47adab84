package allocation

import (
	"context"
	"fmt"
	"math/bits"
	"sort"

	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/domain/repositories"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
)

// Service splits the supply left for the target program across its channels
type Service struct {
	repo       repositories.ScenarioRepository
	eventStore events.EventStore
}

// NewService creates an allocation service. eventStore may be nil.
func NewService(repo repositories.ScenarioRepository, eventStore events.EventStore) *Service {
	return &Service{
		repo:       repo,
		eventStore: eventStore,
	}
}

// Plan returns the supply plan the service allocates from
func (s *Service) Plan() (*entities.SupplyPlan, error) {
	plan, err := s.repo.GetSupplyPlan()
	if err != nil {
		return nil, fmt.Errorf("failed to get supply plan: %w", err)
	}
	return plan, nil
}

// Allocate computes the remaining supply per week and allocates it to channels
func (s *Service) Allocate(ctx context.Context, rule entities.ProtectionRule) (*entities.AllocationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plan, err := s.Plan()
	if err != nil {
		return nil, err
	}
	if err := validateRule(plan, rule); err != nil {
		return nil, err
	}

	result := AllocatePlan(plan, rule)

	if s.eventStore != nil {
		if err := s.eventStore.AppendEvent(events.AllocationStream, events.NewAllocationComputedEvent(result)); err != nil {
			return nil, fmt.Errorf("failed to record allocation: %w", err)
		}
	}
	return result, nil
}

// ApplyEdits allocates with rule and then overrides the allocated-minus-ask
// difference of each edited cell, so the edited allocation is ask + diff.
// Edits matching the computed diff are dropped; result.Edits holds the rest.
func (s *Service) ApplyEdits(ctx context.Context, rule entities.ProtectionRule, edits []entities.AllocationEdit) (*entities.AllocationResult, error) {
	result, err := s.Allocate(ctx, rule)
	if err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return result, nil
	}

	plan, err := s.Plan()
	if err != nil {
		return nil, err
	}
	if err := applyEdits(plan, result, edits); err != nil {
		return nil, err
	}

	if s.eventStore != nil && len(result.Edits) > 0 {
		if err := s.eventStore.AppendEvent(events.AllocationStream, events.NewAllocationEditedEvent(result.Program, result.Edits)); err != nil {
			return nil, fmt.Errorf("failed to record allocation edits: %w", err)
		}
	}
	return result, nil
}

// RemainingSupply returns, per week, the cumulative supply left for the
// target program once prioritized programs are served, and its gap to the
// target program's own demand
func RemainingSupply(plan *entities.SupplyPlan) []entities.WeekSupply {
	rows := make([]entities.WeekSupply, 0, len(plan.Weeks))
	for _, week := range plan.Weeks {
		var prioritized entities.Units
		for _, program := range plan.PrioritizedPrograms {
			prioritized += plan.ProgramDemand[program][week]
		}
		remaining := plan.CumSupply[week] - prioritized
		target := plan.ProgramDemand[plan.TargetProgram][week]
		rows = append(rows, entities.WeekSupply{
			Week:               week,
			TotalCumSupply:     plan.CumSupply[week],
			PrioritizedDemand:  prioritized,
			RemainingForTarget: remaining,
			TargetDemand:       target,
			Gap:                remaining - target,
		})
	}
	return rows
}

// AllocatePlan allocates every week of plan. Weeks where supply covers the
// total channel ask get exactly their ask. Short weeks are split in
// proportion to ask, with the units lost to flooring handed out by largest
// remainder.
func AllocatePlan(plan *entities.SupplyPlan, rule entities.ProtectionRule) *entities.AllocationResult {
	supply := RemainingSupply(plan)
	result := &entities.AllocationResult{
		Program:    plan.TargetProgram,
		Protection: rule,
		Channels:   append([]entities.Channel(nil), plan.Channels...),
		Supply:     supply,
	}

	for _, row := range supply {
		week := row.Week
		asks := make([]entities.Units, len(plan.Channels))
		for i, channel := range plan.Channels {
			asks[i] = plan.ChannelAsk[channel][week]
		}
		totalAsk := entities.SumUnits(asks)

		wa := entities.WeekAllocation{
			Week:     week,
			Supply:   row.RemainingForTarget,
			TotalAsk: totalAsk,
		}

		var allocated []entities.Units
		if row.RemainingForTarget >= totalAsk {
			allocated = append([]entities.Units(nil), asks...)
		} else {
			wa.Shortfall = true
			allocated = LargestRemainder(asks, row.RemainingForTarget)
			if rule.Applies(week) {
				wa.Protected = protect(plan.Channels, asks, allocated, rule.Channel)
			}
		}

		for i, channel := range plan.Channels {
			wa.Channels = append(wa.Channels, entities.ChannelAllocation{
				Week:      week,
				Channel:   channel,
				Ask:       asks[i],
				Allocated: allocated[i],
				Diff:      allocated[i] - asks[i],
			})
		}
		result.Weeks = append(result.Weeks, wa)
	}
	return result
}

// LargestRemainder splits supply across asks in proportion to each ask.
// Each share is floored first, then leftover units go one at a time to the
// largest remainders, earlier positions winning ties. A non-positive supply
// or a zero total ask allocates nothing, and negative asks count as zero.
func LargestRemainder(asks []entities.Units, supply entities.Units) []entities.Units {
	allocated := make([]entities.Units, len(asks))
	var total uint64
	for _, ask := range asks {
		if ask > 0 {
			total += uint64(ask)
		}
	}
	if supply <= 0 || total == 0 {
		return allocated
	}

	remainders := make([]uint64, len(asks))
	var assigned entities.Units
	for i, ask := range asks {
		if ask <= 0 {
			continue
		}
		// ask*supply in 128 bits; the quotient is at most supply
		hi, lo := bits.Mul64(uint64(ask), uint64(supply))
		share, rem := bits.Div64(hi, lo, total)
		allocated[i] = entities.Units(share)
		remainders[i] = rem
		assigned += allocated[i]
	}

	order := make([]int, len(asks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for _, idx := range order[:int(supply-assigned)] {
		allocated[idx]++
	}
	return allocated
}

// protect raises the protected channel to its full ask and takes the
// difference from the other channels, largest allocation first. It reports
// whether anything changed.
func protect(channels []entities.Channel, asks, allocated []entities.Units, protected entities.Channel) bool {
	target := -1
	for i, channel := range channels {
		if channel == protected {
			target = i
			break
		}
	}
	if target < 0 || allocated[target] >= asks[target] {
		return false
	}

	shortage := asks[target] - allocated[target]
	allocated[target] = asks[target]

	others := make([]int, 0, len(channels)-1)
	for i := range channels {
		if i != target {
			others = append(others, i)
		}
	}
	sort.SliceStable(others, func(a, b int) bool {
		return allocated[others[a]] > allocated[others[b]]
	})

	for _, idx := range others {
		reducible := allocated[idx]
		if reducible > shortage {
			reducible = shortage
		}
		allocated[idx] -= reducible
		shortage -= reducible
		if shortage <= 0 {
			break
		}
	}
	return true
}

func applyEdits(plan *entities.SupplyPlan, result *entities.AllocationResult, edits []entities.AllocationEdit) error {
	weekIndex := make(map[string]int, len(result.Weeks))
	for i, w := range result.Weeks {
		weekIndex[w.Week] = i
	}
	channelIndex := make(map[entities.Channel]int, len(plan.Channels))
	for i, channel := range plan.Channels {
		channelIndex[channel] = i
	}

	for _, edit := range edits {
		wi, ok := weekIndex[edit.Week]
		if !ok {
			return fmt.Errorf("%w: %s", entities.ErrUnknownWeek, edit.Week)
		}
		ci, ok := channelIndex[edit.Channel]
		if !ok {
			return fmt.Errorf("%w: %s", entities.ErrUnknownChannel, edit.Channel)
		}

		cell := &result.Weeks[wi].Channels[ci]
		if cell.Ask+edit.Diff < 0 {
			return fmt.Errorf("%w: %s %s would receive %d units",
				entities.ErrInvalidParams, edit.Channel, edit.Week, cell.Ask+edit.Diff)
		}
		if cell.Diff == edit.Diff {
			continue
		}
		cell.Diff = edit.Diff
		cell.Allocated = cell.Ask + edit.Diff
		result.Edits = append(result.Edits, edit)
	}
	return nil
}

func validateRule(plan *entities.SupplyPlan, rule entities.ProtectionRule) error {
	if !rule.Enabled {
		return nil
	}
	if !plan.HasChannel(rule.Channel) {
		return fmt.Errorf("%w: protected channel %s", entities.ErrUnknownChannel, rule.Channel)
	}
	if !plan.HasWeek(rule.Week) {
		return fmt.Errorf("%w: protected week %s", entities.ErrUnknownWeek, rule.Week)
	}
	return nil
}
