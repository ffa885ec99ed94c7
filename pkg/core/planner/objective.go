package planner

import "github.com/benevolat/permaplan/pkg/sat"

// buildObjective sets the scalar objective: reward every feasible shift,
// optionally reward generously staffed ones, and penalize every day of
// deviation from a volunteer's preference. With the default weights this is
// exactly sum(feasible) - sum(gap): coverage dominates, ties are broken
// purely by lower aggregate preference gap.
func buildObjective(c *compilation, w Weights) {
	var terms []sat.Term

	for _, feasible := range c.feasible {
		terms = append(terms, sat.Term{Var: feasible, Coef: w.Feasibility})
	}
	if w.Generosity != 0 {
		for _, generous := range c.generous {
			terms = append(terms, sat.Term{Var: generous, Coef: w.Generosity})
		}
	}
	for _, gap := range c.gap {
		terms = append(terms, sat.Term{Var: gap, Coef: -w.PreferenceGap})
	}

	c.model.Maximize(terms)
}
