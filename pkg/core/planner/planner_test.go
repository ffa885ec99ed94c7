package planner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benevolat/permaplan/pkg/core/roster"
)

// buildRoster is a test helper around roster.Build for December 2024.
func buildRoster(t *testing.T, records []roster.Record) *roster.Roster {
	t.Helper()
	r, err := roster.Build(time.December, 2024, records)
	require.NoError(t, err)
	return r
}

func record(name, preferred, referent string, days ...int) roster.Record {
	return roster.Record{
		Name:              name,
		PreferredCountRaw: preferred,
		IsReferentRaw:     referent,
		AvailableDays:     days,
	}
}

// verifySchedule checks every hard rule against the annotated roster:
// staffing bounds and referent presence on open shifts, workload ceilings,
// rest-window separation, referent caps and cooldowns.
func verifySchedule(t *testing.T, r *roster.Roster, rules Rules) {
	t.Helper()

	for _, s := range r.Shifts {
		if !s.IsOpen {
			assert.Empty(t, s.AssignedVolunteers, "closed shift %d must stay unassigned", s.Day)
			continue
		}

		available := 0
		referent := false
		for _, v := range s.AssignedVolunteers {
			if r.IsAvailable(v, s) {
				available++
				if v.IsReferent {
					referent = true
				}
			}
		}
		assert.GreaterOrEqual(t, available, rules.MinStaff, "shift %d understaffed", s.Day)
		assert.LessOrEqual(t, available, rules.MaxStaff, "shift %d overstaffed", s.Day)
		assert.True(t, referent, "shift %d has no referent", s.Day)
	}

	for _, v := range r.Volunteers {
		ceiling := min(rules.WorkloadCap, v.PreferredCount)
		assert.LessOrEqual(t, v.AssignedCount, ceiling, "volunteer %s over workload cap", v.Name)

		if v.IsReferent {
			assert.LessOrEqual(t, v.AssignedCount, rules.ReferentCap, "referent %s over cap", v.Name)
		}

		for i, a := range v.AssignedShifts {
			for _, b := range v.AssignedShifts[i+1:] {
				gap := int(b.Date.Sub(a.Date).Hours() / 24)
				if gap < 0 {
					gap = -gap
				}
				assert.Greater(t, gap, rules.RestWindowDays,
					"volunteer %s assigned to days %d and %d inside the rest window", v.Name, a.Day, b.Day)
			}

			if v.LastAssignment != nil {
				since := int(a.Date.Sub(*v.LastAssignment).Hours() / 24)
				assert.Greater(t, since, rules.RestWindowDays,
					"volunteer %s assigned on day %d during cooldown", v.Name, a.Day)
			}
		}
	}
}

func TestPlan_FullMonth(t *testing.T) {
	// Six volunteers, two of them referents, four well-spaced Mondays.
	// Capacity is 16 assignment slots against 18 preferred, so the best
	// schedule opens all four shifts fully staffed and leaves the two
	// referents one short of their preference (the referent cap stops them
	// at two shifts each).
	days := []int{2, 9, 16, 23}
	records := []roster.Record{
		record("Rachida", "3", "TRUE", days...),
		record("Rémi", "3", "TRUE", days...),
		record("Alice", "3", "", days...),
		record("Bruno", "3", "", days...),
		record("Chloé", "3", "", days...),
		record("Diane", "3", "", days...),
	}
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, outcome.Status)
	assert.Equal(t, 4, outcome.OpenShifts)
	assert.Equal(t, int64(2), outcome.Objective)
	assert.False(t, outcome.TimedOut)
	assert.NotEmpty(t, outcome.PlanID)

	verifySchedule(t, r, DefaultConfig().Rules)

	total := 0
	for _, v := range r.Volunteers {
		total += v.AssignedCount
	}
	assert.Equal(t, 16, total)
}

func TestPlan_NoReferents(t *testing.T) {
	// Without a single referent no shift can open. That is an empty
	// schedule, not an error.
	records := []roster.Record{
		record("Alice", "2", "", 5, 12),
		record("Bruno", "2", "", 5, 12),
		record("Chloé", "2", "", 5, 12),
		record("Diane", "2", "", 5, 12),
	}
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, outcome.Status)
	assert.Equal(t, 0, outcome.OpenShifts)
	for _, s := range r.Shifts {
		assert.False(t, s.IsOpen)
		assert.Empty(t, s.AssignedVolunteers)
	}
	require.Len(t, outcome.Grid, 4)
	for _, row := range outcome.Grid {
		for _, cell := range row {
			assert.Equal(t, CellAvailable, cell)
		}
	}
}

func TestPlan_TooFewVolunteers(t *testing.T) {
	// One volunteer cannot reach minimum staffing anywhere.
	records := []roster.Record{
		record("Rachida", "3", "TRUE", 3, 6),
	}
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, outcome.Status)
	assert.Equal(t, 0, outcome.OpenShifts)
	assert.Equal(t, 0, r.Volunteers[0].AssignedCount)
}

func TestPlan_CooldownExcludesRecentVolunteer(t *testing.T) {
	records := []roster.Record{
		record("Rachida", "1", "TRUE", 3),
		record("Alice", "1", "", 3),
		record("Bruno", "1", "", 3),
		record("Diane", "1", "", 3),
	}
	// Diane worked three days before the shift; the rest window is still
	// running.
	records[3].LastAssignmentRaw = "30/11/2024"
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	require.Equal(t, 1, outcome.OpenShifts)
	verifySchedule(t, r, DefaultConfig().Rules)

	diane := r.Volunteers[3]
	assert.Equal(t, 0, diane.AssignedCount)

	s := r.ShiftOnDay(3)
	require.True(t, s.IsOpen)
	require.Len(t, s.AssignedVolunteers, 3)

	// Grid rows follow volunteer order; Diane stayed a mere availability
	// mark while the crew shows as assigned.
	assert.Equal(t, CellAssignedReferent, outcome.Grid[0][0])
	assert.Equal(t, CellAssigned, outcome.Grid[1][0])
	assert.Equal(t, CellAssigned, outcome.Grid[2][0])
	assert.Equal(t, CellAvailable, outcome.Grid[3][0])
}

func TestPlan_CooldownCoversLastAssignmentDay(t *testing.T) {
	records := []roster.Record{
		record("Rachida", "1", "TRUE", 3),
		record("Alice", "1", "", 3),
		record("Bruno", "1", "", 3),
		record("Diane", "1", "", 3),
	}
	// Diane's last assignment falls on the shift day itself; day zero of
	// the rest window still counts.
	records[3].LastAssignmentRaw = "3/12/2024"
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	require.Equal(t, 1, outcome.OpenShifts)
	assert.Equal(t, 0, r.Volunteers[3].AssignedCount)

	s := r.ShiftOnDay(3)
	require.True(t, s.IsOpen)
	assert.Len(t, s.AssignedVolunteers, 3)
}

func TestPlan_RestWindowForcesDisjointCrews(t *testing.T) {
	// Two shifts three days apart: nobody can serve both.
	days := []int{5, 8}
	records := []roster.Record{
		record("Rachida", "2", "TRUE", days...),
		record("Rémi", "2", "TRUE", days...),
		record("Alice", "2", "", days...),
		record("Bruno", "2", "", days...),
		record("Chloé", "2", "", days...),
		record("Diane", "2", "", days...),
		record("Émile", "2", "", days...),
		record("Fatou", "2", "", days...),
	}
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, outcome.Status)
	assert.Equal(t, 2, outcome.OpenShifts)
	assert.Equal(t, int64(-6), outcome.Objective)
	verifySchedule(t, r, DefaultConfig().Rules)

	first := r.ShiftOnDay(5)
	second := r.ShiftOnDay(8)
	for _, v := range first.AssignedVolunteers {
		assert.NotContains(t, second.AssignedVolunteers, v,
			"volunteer %s serves both shifts inside the rest window", v.Name)
	}
}

func TestPlan_RelaxedRestWindowNeverWorse(t *testing.T) {
	records := []roster.Record{
		record("Rachida", "2", "TRUE", 5, 8),
		record("Alice", "2", "", 5, 8),
		record("Bruno", "2", "", 5, 8),
		record("Chloé", "2", "", 5, 8),
	}

	strict := DefaultConfig()
	relaxed := DefaultConfig()
	relaxed.Rules.RestWindowDays = 2

	strictOutcome, err := Plan(context.Background(), buildRoster(t, records), strict, nil)
	require.NoError(t, err)
	relaxedOutcome, err := Plan(context.Background(), buildRoster(t, records), relaxed, nil)
	require.NoError(t, err)

	require.Equal(t, StatusOptimal, strictOutcome.Status)
	require.Equal(t, StatusOptimal, relaxedOutcome.Status)
	assert.GreaterOrEqual(t, relaxedOutcome.Objective, strictOutcome.Objective)

	// With the three-day spacing allowed, all four volunteers cover both
	// shifts and every preference is met exactly.
	assert.Equal(t, 2, relaxedOutcome.OpenShifts)
	assert.Equal(t, int64(2), relaxedOutcome.Objective)
	verifySchedule(t, relaxedOutcome.Roster, relaxed.Rules)
}

func TestPlan_ReferentCapLimitsOpenShifts(t *testing.T) {
	// One referent, three well-spaced shifts: the cap of two anchored
	// shifts leaves the third closed no matter how many helpers exist.
	days := []int{2, 9, 16}
	records := []roster.Record{
		record("Rachida", "2", "TRUE", days...),
		record("Alice", "1", "", days...),
		record("Bruno", "1", "", days...),
		record("Chloé", "1", "", days...),
		record("Diane", "1", "", days...),
		record("Émile", "1", "", days...),
		record("Fatou", "1", "", days...),
	}
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, outcome.Status)
	assert.Equal(t, 2, outcome.OpenShifts)
	assert.Equal(t, int64(2), outcome.Objective)
	verifySchedule(t, r, DefaultConfig().Rules)
	assert.LessOrEqual(t, r.Volunteers[0].AssignedCount, 2)
}

func TestPlan_OutsideAvailabilityNeverStaffs(t *testing.T) {
	days := []int{2, 9, 16}
	records := []roster.Record{
		record("Rachida", "3", "TRUE", days...),
		record("Rémi", "3", "TRUE", days...),
		record("Alice", "3", "", days...),
		record("Bruno", "3", "", days...),
		record("Chloé", "3", "", days...),
		// Émile declared nothing at all.
		record("Émile", "3", ""),
	}

	permissive := DefaultConfig()
	strict := DefaultConfig()
	strict.Rules.AllowOutsideAvailability = false

	permissiveOutcome, err := Plan(context.Background(), buildRoster(t, records), permissive, nil)
	require.NoError(t, err)
	strictOutcome, err := Plan(context.Background(), buildRoster(t, records), strict, nil)
	require.NoError(t, err)

	// Both runs must respect staffing bounds counted over available
	// volunteers only, whatever extra placements the permissive mode adds.
	verifySchedule(t, permissiveOutcome.Roster, permissive.Rules)
	verifySchedule(t, strictOutcome.Roster, strict.Rules)

	assert.Equal(t, 0, strictOutcome.Roster.Volunteers[5].AssignedCount)
	assert.GreaterOrEqual(t, permissiveOutcome.Objective, strictOutcome.Objective)
}

func TestPlan_PauseVolunteerNeverAssigned(t *testing.T) {
	records := []roster.Record{
		record("Rachida", "3", "TRUE", 2, 9),
		record("Alice", "3", "", 2, 9),
		record("Bruno", "3", "", 2, 9),
		record("Chloé", "Pause", "", 2, 9),
	}
	r := buildRoster(t, records)

	outcome, err := Plan(context.Background(), r, DefaultConfig(), nil)
	require.NoError(t, err)

	require.NotEqual(t, StatusNoSolution, outcome.Status)
	assert.Equal(t, 0, r.Volunteers[3].AssignedCount)
	verifySchedule(t, r, DefaultConfig().Rules)
}

func TestPlan_Deterministic(t *testing.T) {
	records := []roster.Record{
		record("Rachida", "2", "TRUE", 5, 12),
		record("Alice", "2", "", 5, 12),
		record("Bruno", "2", "", 5, 12),
		record("Chloé", "2", "", 5, 12),
	}

	first, err := Plan(context.Background(), buildRoster(t, records), DefaultConfig(), nil)
	require.NoError(t, err)
	second, err := Plan(context.Background(), buildRoster(t, records), DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Objective, second.Objective)
	assert.Equal(t, first.OpenShifts, second.OpenShifts)
	assert.NotEqual(t, first.PlanID, second.PlanID)
}

func TestPlan_BudgetExhaustedWithoutSolution(t *testing.T) {
	days := []int{1, 4, 7, 10, 13, 16, 19, 22}
	var records []roster.Record
	for i := 0; i < 40; i++ {
		records = append(records, record(fmt.Sprintf("v%02d", i), "3", "", days...))
	}
	r := buildRoster(t, records)

	cfg := DefaultConfig()
	cfg.TimeBudget = time.Nanosecond
	cfg.Workers = 1

	outcome, err := Plan(context.Background(), r, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusNoSolution, outcome.Status)
	assert.True(t, outcome.TimedOut)
	assert.Equal(t, 0, outcome.OpenShifts)
	require.Len(t, outcome.Grid, 40)
	for _, s := range r.Shifts {
		assert.False(t, s.IsOpen)
	}
}

func TestPlan_BudgetExpiryDegradesToFeasible(t *testing.T) {
	// Large enough that no optimality proof fits in the budget, small
	// enough that the search banks an incumbent within it: the outcome
	// degrades to a valid, possibly suboptimal schedule.
	days := []int{1, 4, 7, 10, 13, 16, 19, 22}
	var records []roster.Record
	for i := 0; i < 8; i++ {
		records = append(records, record(fmt.Sprintf("ref%d", i), "3", "TRUE", days...))
	}
	for i := 0; i < 32; i++ {
		records = append(records, record(fmt.Sprintf("v%02d", i), "3", "", days...))
	}
	r := buildRoster(t, records)

	cfg := DefaultConfig()
	cfg.TimeBudget = 500 * time.Millisecond

	outcome, err := Plan(context.Background(), r, cfg, nil)
	require.NoError(t, err)

	require.Equal(t, StatusFeasible, outcome.Status)
	assert.True(t, outcome.TimedOut)
	verifySchedule(t, r, cfg.Rules)
}

func TestPlan_LargeRosterWithinBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping solver scale test in short mode")
	}

	days := []int{1, 4, 7, 10, 13, 16, 19, 22}
	var records []roster.Record
	for i := 0; i < 5; i++ {
		records = append(records, record(fmt.Sprintf("ref%d", i), "2", "TRUE", days...))
	}
	for i := 0; i < 19; i++ {
		records = append(records, record(fmt.Sprintf("v%02d", i), "1", "", days...))
	}
	r := buildRoster(t, records)

	cfg := DefaultConfig()
	cfg.TimeBudget = 5 * time.Second

	outcome, err := Plan(context.Background(), r, cfg, nil)
	require.NoError(t, err)

	require.NotEqual(t, StatusNoSolution, outcome.Status)
	verifySchedule(t, r, cfg.Rules)
	assert.Positive(t, outcome.SolveStats.Nodes)
}

func TestExplain_ReportsModelSize(t *testing.T) {
	// Two volunteers (one referent) and two shifts far enough apart that
	// no rest-window constraints arise. Per volunteer and shift the model
	// carries: 4 assignment booleans, feasibility + generosity per shift,
	// 2 acting-referent booleans, 2 gap slacks; and 10 shift constraints,
	// 2 workload caps, 5 referent-cap links, 4 gap linkages.
	records := []roster.Record{
		record("Rachida", "2", "TRUE", 5, 12),
		record("Alice", "2", "", 5, 12),
	}
	r := buildRoster(t, records)

	stats, err := Explain(r, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Variables)
	assert.Equal(t, 21, stats.Constraints)

	// The dry run must not annotate anything.
	for _, s := range r.Shifts {
		assert.False(t, s.IsOpen)
		assert.Empty(t, s.AssignedVolunteers)
	}

	// A full run over the same roster compiles the identical model.
	outcome, err := Plan(context.Background(), buildRoster(t, records), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, stats, outcome.ModelStats)
}

func TestExplain_RejectsInvalidConfig(t *testing.T) {
	r := buildRoster(t, []roster.Record{record("Alice", "1", "", 5)})

	cfg := DefaultConfig()
	cfg.Rules.MinStaff = 0
	_, err := Explain(r, cfg)
	assert.Error(t, err)
}

func TestPlan_RejectsInvalidConfig(t *testing.T) {
	r := buildRoster(t, []roster.Record{record("Alice", "1", "", 5)})

	cfg := DefaultConfig()
	cfg.Rules.MaxStaff = cfg.Rules.MinStaff - 1
	_, err := Plan(context.Background(), r, cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Rules.MinStaff = 0
	_, err = Plan(context.Background(), r, cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Weights.PreferenceGap = -1
	_, err = Plan(context.Background(), r, cfg, nil)
	assert.Error(t, err)
}
