package planner

import (
	"github.com/benevolat/permaplan/pkg/core/roster"
	"github.com/benevolat/permaplan/pkg/sat"
)

// extract reads the solved assignment back into the roster: every shift
// whose feasibility indicator solved true is marked open and receives its
// assigned volunteers, in volunteer index order. This is the only step that
// mutates roster entities, and it runs exactly once per solve.
//
// Returns the number of opened shifts.
func extract(r *roster.Roster, c *compilation, res *sat.Result) int {
	open := 0
	for _, s := range r.Shifts {
		if !res.BoolValue(c.feasible[s.Index].Lit()) {
			continue
		}
		s.MarkOpen()
		open++
		for _, v := range r.Volunteers {
			if res.Value(c.x[v.Index][s.Index]) == 1 {
				s.AssignVolunteer(v)
			}
		}
	}
	return open
}
