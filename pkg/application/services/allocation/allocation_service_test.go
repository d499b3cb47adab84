package allocation

import (
	"context"
	"errors"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	testhelpers "github.com/vsinha/csdm/pkg/application/services/testing"
	"github.com/vsinha/csdm/pkg/domain/entities"
	"github.com/vsinha/csdm/pkg/infrastructure/events"
)

var caseStudyRule = entities.ProtectionRule{Enabled: true, Channel: "Parter-PAC", Week: "Jan Wk4"}

func allocations(t *testing.T, result *entities.AllocationResult, week string) []entities.Units {
	t.Helper()
	wa, ok := result.Week(week)
	if !ok {
		t.Fatalf("Week %s missing from result", week)
	}
	units := make([]entities.Units, 0, len(wa.Channels))
	for _, c := range wa.Channels {
		units = append(units, c.Allocated)
	}
	return units
}

func TestRemainingSupply_CaseStudy(t *testing.T) {
	plan, err := NewService(testhelpers.BuildCaseStudyScenario(), nil).Plan()
	if err != nil {
		t.Fatalf("Failed to get plan: %v", err)
	}

	rows := RemainingSupply(plan)
	if len(rows) != 4 {
		t.Fatalf("Expected 4 weeks, got %d", len(rows))
	}

	expected := []struct {
		week      string
		remaining entities.Units
		gap       entities.Units
	}{
		{"Jan Wk2", 105, 20},
		{"Jan Wk3", 110, -10},
		{"Jan Wk4", 140, -10},
		{"Jan Wk5", 185, 10},
	}
	for i, want := range expected {
		row := rows[i]
		if row.Week != want.week {
			t.Errorf("Row %d: expected week %s, got %s", i, want.week, row.Week)
		}
		if row.RemainingForTarget != want.remaining {
			t.Errorf("%s: expected remaining %d, got %d", want.week, want.remaining, row.RemainingForTarget)
		}
		if row.Gap != want.gap {
			t.Errorf("%s: expected gap %d, got %d", want.week, want.gap, row.Gap)
		}
	}
}

func TestAllocate_CaseStudy(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	tests := []struct {
		name     string
		rule     entities.ProtectionRule
		week     string
		expected []entities.Units
		short    bool
		protect  bool
	}{
		{"full ask wk2", caseStudyRule, "Jan Wk2", []entities.Units{20, 15, 20, 5, 25}, false, false},
		{"proportional wk3", caseStudyRule, "Jan Wk3", []entities.Units{28, 23, 23, 9, 27}, true, false},
		{"protected wk4", caseStudyRule, "Jan Wk4", []entities.Units{35, 28, 28, 14, 35}, true, true},
		{"unprotected wk4", entities.ProtectionRule{}, "Jan Wk4", []entities.Units{37, 28, 28, 14, 33}, true, false},
		{"full ask wk5", caseStudyRule, "Jan Wk5", []entities.Units{50, 35, 35, 15, 40}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Allocate(context.Background(), tt.rule)
			if err != nil {
				t.Fatalf("Allocate failed: %v", err)
			}
			if got := allocations(t, result, tt.week); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
			wa, _ := result.Week(tt.week)
			if wa.Shortfall != tt.short {
				t.Errorf("Expected shortfall %v, got %v", tt.short, wa.Shortfall)
			}
			if wa.Protected != tt.protect {
				t.Errorf("Expected protected %v, got %v", tt.protect, wa.Protected)
			}
			if wa.Shortfall && wa.Allocated() != wa.Supply {
				t.Errorf("Expected short week to allocate all %d units, got %d", wa.Supply, wa.Allocated())
			}
			for _, c := range wa.Channels {
				if c.Diff != c.Allocated-c.Ask {
					t.Errorf("%s: diff %d does not match allocated %d - ask %d", c.Channel, c.Diff, c.Allocated, c.Ask)
				}
			}
		})
	}
}

func TestAllocate_NegativeSupplyAllocatesNothing(t *testing.T) {
	service := NewService(testhelpers.BuildTwoWeekScenario(), nil)

	result, err := service.Allocate(context.Background(), entities.ProtectionRule{})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if got := allocations(t, result, "Wk1"); !reflect.DeepEqual(got, []entities.Units{10, 20}) {
		t.Errorf("Expected Wk1 full ask [10 20], got %v", got)
	}
	if got := allocations(t, result, "Wk2"); !reflect.DeepEqual(got, []entities.Units{0, 0}) {
		t.Errorf("Expected Wk2 nothing allocated, got %v", got)
	}

	if result.Supply[1].RemainingForTarget != -10 {
		t.Errorf("Expected Wk2 remaining -10, got %d", result.Supply[1].RemainingForTarget)
	}
	if result.Supply[1].Gap != -40 {
		t.Errorf("Expected Wk2 gap -40, got %d", result.Supply[1].Gap)
	}
	wk2, _ := result.Week("Wk2")
	direct, _ := wk2.Get("Direct")
	if direct.Diff != -10 {
		t.Errorf("Expected Direct diff -10, got %d", direct.Diff)
	}
}

func TestLargestRemainder(t *testing.T) {
	tests := []struct {
		name     string
		asks     []entities.Units
		supply   entities.Units
		expected []entities.Units
	}{
		{"exact split", []entities.Units{10, 20, 30}, 30, []entities.Units{5, 10, 15}},
		{"ties go to earlier channel", []entities.Units{1, 1, 1}, 2, []entities.Units{1, 1, 0}},
		{"zero supply", []entities.Units{5, 5}, 0, []entities.Units{0, 0}},
		{"negative supply", []entities.Units{5, 5}, -3, []entities.Units{0, 0}},
		{"zero asks", []entities.Units{0, 0}, 10, []entities.Units{0, 0}},
		{"zero ask gets nothing", []entities.Units{0, 7, 3}, 5, []entities.Units{0, 4, 1}},
		{"negative ask counts as zero", []entities.Units{-4, 7, 3}, 5, []entities.Units{0, 4, 1}},
		{"product beyond int64", []entities.Units{math.MaxInt64 / 2, math.MaxInt64 / 2}, 3, []entities.Units{2, 1}},
		{"large supply", []entities.Units{1, 2}, math.MaxInt64, []entities.Units{3074457345618258602, 6148914691236517205}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LargestRemainder(tt.asks, tt.supply)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestProtect_NeverGoesNegative(t *testing.T) {
	channels := []entities.Channel{"A", "B", "C"}
	asks := []entities.Units{2, 1, 10}
	allocated := []entities.Units{1, 0, 3}

	if !protect(channels, asks, allocated, "C") {
		t.Fatal("Expected protection to apply")
	}
	expected := []entities.Units{0, 0, 10}
	if !reflect.DeepEqual(allocated, expected) {
		t.Errorf("Expected %v, got %v", expected, allocated)
	}

	if protect(channels, asks, allocated, "C") {
		t.Error("Expected no change when protected channel already has its ask")
	}
	if protect(channels, asks, allocated, "Missing") {
		t.Error("Expected no change for unknown channel")
	}
}

func TestAllocate_InvalidRule(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	_, err := service.Allocate(context.Background(), entities.ProtectionRule{Enabled: true, Channel: "Nobody", Week: "Jan Wk4"})
	if !errors.Is(err, entities.ErrUnknownChannel) {
		t.Errorf("Expected ErrUnknownChannel, got %v", err)
	}

	_, err = service.Allocate(context.Background(), entities.ProtectionRule{Enabled: true, Channel: "Parter-PAC", Week: "Feb Wk1"})
	if !errors.Is(err, entities.ErrUnknownWeek) {
		t.Errorf("Expected ErrUnknownWeek, got %v", err)
	}

	// Disabled rules are not checked
	if _, err := service.Allocate(context.Background(), entities.ProtectionRule{Channel: "Nobody"}); err != nil {
		t.Errorf("Expected disabled rule to be ignored, got %v", err)
	}
}

func TestAllocate_CancelledContext(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := service.Allocate(ctx, caseStudyRule); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestApplyEdits(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	edits := []entities.AllocationEdit{
		{Week: "Jan Wk3", Channel: "Online Store", Diff: 0},
		{Week: "Jan Wk4", Channel: "Parter-Europe", Diff: -5},
	}
	result, err := service.ApplyEdits(context.Background(), caseStudyRule, edits)
	if err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}

	wk3, _ := result.Week("Jan Wk3")
	online, _ := wk3.Get("Online Store")
	if online.Allocated != 30 || online.Diff != 0 {
		t.Errorf("Expected Online Store Jan Wk3 30 (diff 0), got %d (diff %d)", online.Allocated, online.Diff)
	}

	wk4, _ := result.Week("Jan Wk4")
	europe, _ := wk4.Get("Parter-Europe")
	if europe.Allocated != 10 || europe.Diff != -5 {
		t.Errorf("Expected Parter-Europe Jan Wk4 10 (diff -5), got %d (diff %d)", europe.Allocated, europe.Diff)
	}

	// Unedited cells keep the computed values
	pac, _ := wk4.Get("Parter-PAC")
	if pac.Allocated != 35 {
		t.Errorf("Expected Parter-PAC Jan Wk4 35, got %d", pac.Allocated)
	}
	if !reflect.DeepEqual(result.Edits, edits) {
		t.Errorf("Expected both edits to take effect, got %v", result.Edits)
	}
}

func TestApplyEdits_SkipsUnchangedCells(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := events.NewInMemoryEventStore(logger, 0)
	service := NewService(testhelpers.BuildCaseStudyScenario(), store)

	// both match the protected Jan Wk4 allocation
	unchanged := []entities.AllocationEdit{
		{Week: "Jan Wk4", Channel: "Parter-PAC", Diff: 0},
		{Week: "Jan Wk4", Channel: "Parter-Europe", Diff: -1},
	}
	result, err := service.ApplyEdits(context.Background(), caseStudyRule, unchanged)
	if err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}
	if len(result.Edits) != 0 {
		t.Errorf("Expected no effective edits, got %v", result.Edits)
	}
	recorded, _ := store.ReadEvents(events.AllocationStream, 0)
	if len(recorded) != 1 || recorded[0].Type() != events.AllocationComputedEvent {
		t.Fatalf("Expected only the computed event, got %v", recorded)
	}

	changed := append(unchanged, entities.AllocationEdit{Week: "Jan Wk5", Channel: "Online Store", Diff: -2})
	result, err = service.ApplyEdits(context.Background(), caseStudyRule, changed)
	if err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}
	if !reflect.DeepEqual(result.Edits, changed[2:]) {
		t.Errorf("Expected only the Jan Wk5 edit, got %v", result.Edits)
	}
	recorded, _ = store.ReadEvents(events.AllocationStream, 3)
	if len(recorded) != 1 || recorded[0].Type() != events.AllocationEditedEvent {
		t.Fatalf("Expected an edited event, got %v", recorded)
	}
	data := recorded[0].Data().(events.AllocationEdited)
	if len(data.Edits) != 1 || data.Edits[0].Week != "Jan Wk5" {
		t.Errorf("Expected the event to carry the Jan Wk5 edit only, got %v", data.Edits)
	}
}

func TestApplyEdits_Errors(t *testing.T) {
	service := NewService(testhelpers.BuildCaseStudyScenario(), nil)

	tests := []struct {
		name     string
		edit     entities.AllocationEdit
		expected error
	}{
		{"unknown week", entities.AllocationEdit{Week: "Feb Wk1", Channel: "Online Store"}, entities.ErrUnknownWeek},
		{"unknown channel", entities.AllocationEdit{Week: "Jan Wk3", Channel: "Kiosk"}, entities.ErrUnknownChannel},
		{"below zero", entities.AllocationEdit{Week: "Jan Wk3", Channel: "Online Store", Diff: -31}, entities.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ApplyEdits(context.Background(), caseStudyRule, []entities.AllocationEdit{tt.edit})
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestAllocate_RecordsEvents(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := events.NewInMemoryEventStore(logger, 0)
	service := NewService(testhelpers.BuildCaseStudyScenario(), store)

	edits := []entities.AllocationEdit{{Week: "Jan Wk4", Channel: "Online Store", Diff: -3}}
	if _, err := service.ApplyEdits(context.Background(), caseStudyRule, edits); err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}

	recorded, err := store.ReadEvents(events.AllocationStream, 0)
	if err != nil {
		t.Fatalf("Failed to read events: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(recorded))
	}
	if recorded[0].Type() != events.AllocationComputedEvent {
		t.Errorf("Expected first event %s, got %s", events.AllocationComputedEvent, recorded[0].Type())
	}
	computed, ok := recorded[0].Data().(events.AllocationComputed)
	if !ok {
		t.Fatalf("Unexpected payload type %T", recorded[0].Data())
	}
	if !reflect.DeepEqual(computed.Shortfalls, []string{"Jan Wk3", "Jan Wk4"}) {
		t.Errorf("Expected shortfall weeks [Jan Wk3 Jan Wk4], got %v", computed.Shortfalls)
	}
	if recorded[1].Type() != events.AllocationEditedEvent {
		t.Errorf("Expected second event %s, got %s", events.AllocationEditedEvent, recorded[1].Type())
	}
}
