package planner

import (
	"fmt"

	"github.com/benevolat/permaplan/pkg/core/roster"
	"github.com/benevolat/permaplan/pkg/sat"
)

// compilation holds the decision-variable model for one planning run and
// the dense variable matrices needed to read the solution back. Everything
// here is rebuilt from scratch per run; nothing leaks between runs.
type compilation struct {
	model *sat.Model

	// x[v][s] is true iff volunteer v is assigned to shift s.
	x [][]sat.IntVar

	// feasible[s] is true iff shift s met its staffing and referent
	// requirements. generous[s] is true iff staffing reached the upper
	// encouraged bound; it only feeds the objective.
	feasible []sat.IntVar
	generous []sat.IntVar

	// gap[v] is the absolute deviation between volunteer v's assigned and
	// preferred counts, in [0, 3].
	gap []sat.IntVar
}

// compile translates the roster and rules into the full constraint set over
// dense [volunteer][shift] assignment booleans.
func compile(r *roster.Roster, rules Rules) *compilation {
	m := sat.NewModel()
	c := &compilation{
		model:    m,
		x:        make([][]sat.IntVar, len(r.Volunteers)),
		feasible: make([]sat.IntVar, len(r.Shifts)),
		generous: make([]sat.IntVar, len(r.Shifts)),
		gap:      make([]sat.IntVar, len(r.Volunteers)),
	}

	for _, v := range r.Volunteers {
		c.x[v.Index] = make([]sat.IntVar, len(r.Shifts))
		for _, s := range r.Shifts {
			c.x[v.Index][s.Index] = m.NewBoolVar(fmt.Sprintf("x_v%d_s%d", v.Index, s.Index))
		}
	}

	c.compileShiftConstraints(r, rules)
	c.compileVolunteerConstraints(r, rules)
	return c
}

// compileShiftConstraints emits the per-shift feasibility and generosity
// linkages. A volunteer only counts toward staffing when both assigned and
// available that day, so the staffing sums range over available volunteers
// only.
func (c *compilation) compileShiftConstraints(r *roster.Roster, rules Rules) {
	for _, s := range r.Shifts {
		var staffed, referents []sat.Term
		for _, v := range r.AvailableVolunteers(s) {
			staffed = append(staffed, sat.Term{Var: c.x[v.Index][s.Index], Coef: 1})
			if v.IsReferent {
				referents = append(referents, sat.Term{Var: c.x[v.Index][s.Index], Coef: 1})
			}
		}

		feasible := c.model.NewBoolVar(fmt.Sprintf("feasible_s%d", s.Index))
		generous := c.model.NewBoolVar(fmt.Sprintf("generous_s%d", s.Index))
		c.feasible[s.Index] = feasible
		c.generous[s.Index] = generous

		// feasible => minStaff <= staffed <= maxStaff and >= 1 referent.
		// The implication is one-directional: the objective rewards the
		// indicator, so it is never claimed true unless the staffing holds.
		c.model.AddLinear(staffed, int64(rules.MinStaff), sat.NoUpperBound).OnlyEnforceIf(feasible.Lit())
		c.model.AddLinear(staffed, sat.NoLowerBound, int64(rules.MaxStaff)).OnlyEnforceIf(feasible.Lit())
		c.model.AddLinear(referents, 1, sat.NoUpperBound).OnlyEnforceIf(feasible.Lit())

		// generous <=> staffed == maxStaff, linked in both directions so
		// the indicator is exact whichever way the objective weighs it.
		c.model.AddLinear(staffed, int64(rules.MaxStaff), sat.NoUpperBound).OnlyEnforceIf(generous.Lit())
		c.model.AddLinear(staffed, sat.NoLowerBound, int64(rules.MaxStaff)-1).OnlyEnforceIf(generous.Not())
	}
}

// compileVolunteerConstraints emits the workload cap, acting-referent cap,
// rest-window and cooldown exclusions, and the preference-gap linkage for
// every volunteer.
func (c *compilation) compileVolunteerConstraints(r *roster.Roster, rules Rules) {
	for _, v := range r.Volunteers {
		assigned := make([]sat.Term, len(r.Shifts))
		for _, s := range r.Shifts {
			assigned[s.Index] = sat.Term{Var: c.x[v.Index][s.Index], Coef: 1}
		}

		// Workload cap: never beyond the hard ceiling, never beyond the
		// volunteer's stated preference.
		ceiling := min(rules.WorkloadCap, v.PreferredCount)
		c.model.AddLinear(assigned, 0, int64(ceiling))

		if v.IsReferent {
			c.compileReferentCap(r, rules, v)
		}

		// Rest window: an assignment excludes every shift within the
		// window after it, the anchor shift included in the sum.
		for _, s := range r.Shifts {
			window := r.ShiftsWithinRestWindow(s, rules.RestWindowDays)
			if len(window) == 0 {
				continue
			}
			terms := []sat.Term{{Var: c.x[v.Index][s.Index], Coef: 1}}
			for _, w := range window {
				terms = append(terms, sat.Term{Var: c.x[v.Index][w.Index], Coef: 1})
			}
			c.model.AddLinear(terms, 0, 1)
		}

		// Cooldown from the previous horizon's last assignment.
		if v.LastAssignment != nil {
			for _, s := range r.Shifts {
				d := int(s.Date.Sub(*v.LastAssignment).Hours() / 24)
				if d >= 0 && d <= rules.RestWindowDays {
					c.model.AddFixed(c.x[v.Index][s.Index], 0)
				}
			}
		}

		// Assignments outside declared availability never count toward
		// staffing; optionally forbid them outright.
		if !rules.AllowOutsideAvailability {
			for _, s := range r.Shifts {
				if !r.IsAvailable(v, s) {
					c.model.AddFixed(c.x[v.Index][s.Index], 0)
				}
			}
		}

		// Preference gap: gap >= preferred - assigned and
		// gap >= assigned - preferred, so it solves to the absolute
		// deviation once the objective pushes it down.
		gap := c.model.NewIntVar(0, 3, fmt.Sprintf("gap_v%d", v.Index))
		c.gap[v.Index] = gap

		atLeastShort := append([]sat.Term{{Var: gap, Coef: 1}}, assigned...)
		c.model.AddLinear(atLeastShort, int64(v.PreferredCount), sat.NoUpperBound)

		atLeastOver := []sat.Term{{Var: gap, Coef: 1}}
		for _, t := range assigned {
			atLeastOver = append(atLeastOver, sat.Term{Var: t.Var, Coef: -1})
		}
		c.model.AddLinear(atLeastOver, -int64(v.PreferredCount), sat.NoUpperBound)
	}
}

// compileReferentCap bounds the shifts a referent can anchor. The
// acting-referent indicator is bounded above by the assignment variable and
// the (constant) referent flag, and below by their sum minus one, which for
// a referent ties it to the assignment exactly.
func (c *compilation) compileReferentCap(r *roster.Roster, rules Rules, v *roster.Volunteer) {
	acting := make([]sat.Term, len(r.Shifts))
	for _, s := range r.Shifts {
		ar := c.model.NewBoolVar(fmt.Sprintf("referent_v%d_s%d", v.Index, s.Index))
		acting[s.Index] = sat.Term{Var: ar, Coef: 1}

		// ar <= x (the flag upper bound is constant 1, so vacuous here).
		c.model.AddLinear([]sat.Term{{Var: ar, Coef: 1}, {Var: c.x[v.Index][s.Index], Coef: -1}}, sat.NoLowerBound, 0)
		// ar >= x + 1 - 1.
		c.model.AddLinear([]sat.Term{{Var: ar, Coef: 1}, {Var: c.x[v.Index][s.Index], Coef: -1}}, 0, sat.NoUpperBound)
	}
	c.model.AddLinear(acting, 0, int64(rules.ReferentCap))
}
