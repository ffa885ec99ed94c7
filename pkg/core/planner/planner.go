package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benevolat/permaplan/pkg/core/roster"
	"github.com/benevolat/permaplan/pkg/sat"
)

// Rules is the business rule set compiled into hard constraints. Every
// field is a parameter; DefaultRules returns the reference values.
type Rules struct {
	// MinStaff and MaxStaff bound the available-assigned headcount of a
	// feasible shift.
	MinStaff int
	MaxStaff int

	// RestWindowDays is the minimum day gap between two assignments of the
	// same volunteer, and the cooldown length after the previous horizon's
	// last assignment.
	RestWindowDays int

	// ReferentCap bounds the shifts one referent can anchor.
	ReferentCap int

	// WorkloadCap is the hard ceiling on assignments per volunteer; the
	// effective cap is min(WorkloadCap, preferred count).
	WorkloadCap int

	// AllowOutsideAvailability keeps the historical behavior of letting a
	// volunteer be assigned to a day they did not declare. Such
	// assignments never count toward staffing, but still consume the
	// workload cap and still respect rest windows. Set false to forbid
	// them outright.
	AllowOutsideAvailability bool
}

// DefaultRules returns the reference rule set: 3-4 staff per shift, 6-day
// rest window, 2 shifts per referent, 3 assignments per volunteer.
func DefaultRules() Rules {
	return Rules{
		MinStaff:                 3,
		MaxStaff:                 4,
		RestWindowDays:           6,
		ReferentCap:              2,
		WorkloadCap:              3,
		AllowOutsideAvailability: true,
	}
}

// Weights scales the objective terms. The defaults (1, 0, 1) realize the
// canonical objective: maximize feasible shifts, break ties by lower
// aggregate preference gap. A positive Generosity recovers the historical
// bonus for fully staffed shifts.
type Weights struct {
	Feasibility   int64
	Generosity    int64
	PreferenceGap int64
}

// DefaultWeights returns the canonical objective weights.
func DefaultWeights() Weights {
	return Weights{Feasibility: 1, Generosity: 0, PreferenceGap: 1}
}

// Config gathers everything one planning run needs besides the roster.
type Config struct {
	Rules   Rules
	Weights Weights

	// TimeBudget bounds the solve step wall-clock time. Zero means no
	// limit.
	TimeBudget time.Duration

	// Workers is the number of parallel search workers inside the solve.
	Workers int
}

// DefaultConfig returns the reference configuration with a 30 second solve
// budget.
func DefaultConfig() Config {
	return Config{
		Rules:      DefaultRules(),
		Weights:    DefaultWeights(),
		TimeBudget: 30 * time.Second,
		Workers:    2,
	}
}

// Status reports the outcome class of a planning run.
type Status int

const (
	// StatusNoSolution: no constraint-satisfying assignment exists, or
	// none was found before the budget ran out. The schedule is empty.
	StatusNoSolution Status = iota

	// StatusOptimal: the schedule is proved best possible.
	StatusOptimal

	// StatusFeasible: the budget expired first; the schedule satisfies
	// every hard constraint but may be suboptimal.
	StatusFeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	default:
		return "no solution"
	}
}

// ModelStats summarizes the compiled decision model.
type ModelStats struct {
	Variables   int
	Constraints int
}

// Outcome is the full result of one planning run. NoSolution and timeout
// degradation are values here, never faults: a schedule (possibly empty) is
// always renderable from the grid.
type Outcome struct {
	// PlanID uniquely identifies this run in logs and reports.
	PlanID string

	Status Status

	// TimedOut is true when the budget expired before an optimality
	// proof, i.e. the result may be suboptimal.
	TimedOut bool

	// Objective is the achieved objective value; only meaningful when
	// Status is not StatusNoSolution.
	Objective int64

	// OpenShifts counts the shifts that met minimum staffing.
	OpenShifts int

	// Roster is the annotated roster: shift open flags and assignments,
	// volunteer assignment counts.
	Roster *roster.Roster

	// Grid is the volunteer×shift cell matrix for rendering.
	Grid [][]CellState

	ModelStats ModelStats
	SolveStats sat.Stats
}

// Explain compiles the roster and rules without solving and reports the
// resulting model size. Dry runs use it to preview what a solve would chew
// on; the roster is left untouched.
func Explain(r *roster.Roster, cfg Config) (ModelStats, error) {
	if err := validateConfig(cfg); err != nil {
		return ModelStats{}, err
	}
	c := compile(r, cfg.Rules)
	buildObjective(c, cfg.Weights)
	return ModelStats{
		Variables:   c.model.NumVars(),
		Constraints: c.model.NumConstraints(),
	}, nil
}

// Plan runs the whole pipeline once: compile the roster and rules into a
// decision model, solve it within the budget, and extract the schedule.
// The roster must be freshly built; annotations are applied to it in place,
// exactly once. An error is only returned for an invalid configuration -
// infeasibility and timeouts are reported through the outcome status.
func Plan(ctx context.Context, r *roster.Roster, cfg Config, logger *zap.Logger) (*Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	planID := uuid.NewString()
	logger.Info("Planning run starting",
		zap.String("plan_id", planID),
		zap.Int("volunteers", len(r.Volunteers)),
		zap.Int("shifts", len(r.Shifts)),
		zap.Duration("time_budget", cfg.TimeBudget))

	c := compile(r, cfg.Rules)
	buildObjective(c, cfg.Weights)

	stats := ModelStats{
		Variables:   c.model.NumVars(),
		Constraints: c.model.NumConstraints(),
	}
	logger.Debug("Model compiled",
		zap.String("plan_id", planID),
		zap.Int("variables", stats.Variables),
		zap.Int("constraints", stats.Constraints))

	res := sat.Solve(ctx, c.model, sat.Options{
		TimeLimit: cfg.TimeBudget,
		Workers:   cfg.Workers,
	})

	outcome := &Outcome{
		PlanID:     planID,
		Roster:     r,
		ModelStats: stats,
		SolveStats: res.Stats,
	}

	switch res.Status {
	case sat.StatusOptimal:
		outcome.Status = StatusOptimal
	case sat.StatusFeasible:
		outcome.Status = StatusFeasible
		outcome.TimedOut = true
	default:
		outcome.Status = StatusNoSolution
		outcome.TimedOut = res.Status == sat.StatusUnknown
	}

	if res.HasSolution() {
		outcome.Objective = res.Objective
		outcome.OpenShifts = extract(r, c, res)
	}
	outcome.Grid = buildGrid(r)

	logger.Info("Planning run finished",
		zap.String("plan_id", planID),
		zap.String("status", outcome.Status.String()),
		zap.Int64("objective", outcome.Objective),
		zap.Int("open_shifts", outcome.OpenShifts),
		zap.Int64("nodes", res.Stats.Nodes),
		zap.Duration("elapsed", res.Stats.Elapsed))

	return outcome, nil
}

func validateConfig(cfg Config) error {
	r := cfg.Rules
	switch {
	case r.MinStaff < 1:
		return fmt.Errorf("invalid rules: minStaff must be at least 1, got %d", r.MinStaff)
	case r.MaxStaff < r.MinStaff:
		return fmt.Errorf("invalid rules: maxStaff %d below minStaff %d", r.MaxStaff, r.MinStaff)
	case r.RestWindowDays < 0:
		return fmt.Errorf("invalid rules: restWindowDays must not be negative, got %d", r.RestWindowDays)
	case r.ReferentCap < 0:
		return fmt.Errorf("invalid rules: referentCap must not be negative, got %d", r.ReferentCap)
	case r.WorkloadCap < 0:
		return fmt.Errorf("invalid rules: workloadCap must not be negative, got %d", r.WorkloadCap)
	}
	if cfg.Weights.Feasibility < 0 || cfg.Weights.Generosity < 0 || cfg.Weights.PreferenceGap < 0 {
		return fmt.Errorf("invalid weights: objective weights must not be negative")
	}
	return nil
}
