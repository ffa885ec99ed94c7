package planner

import "github.com/benevolat/permaplan/pkg/core/roster"

// CellState is the state of one volunteer×shift cell in the rendered
// schedule grid.
type CellState int

const (
	// CellUnavailable: the volunteer did not declare the day.
	CellUnavailable CellState = iota

	// CellAvailable: declared available but not placed on the shift.
	CellAvailable

	// CellAssigned: placed on the shift.
	CellAssigned

	// CellAssignedReferent: placed on the shift as a referent.
	CellAssignedReferent
)

func (c CellState) String() string {
	switch c {
	case CellAvailable:
		return "available"
	case CellAssigned:
		return "assigned"
	case CellAssignedReferent:
		return "assigned-referent"
	default:
		return "unavailable"
	}
}

// Symbol returns the single-character rendering used in the console grid.
func (c CellState) Symbol() string {
	switch c {
	case CellAvailable:
		return "·"
	case CellAssigned:
		return "X"
	case CellAssignedReferent:
		return "R"
	default:
		return " "
	}
}

// buildGrid derives the volunteer×shift cell matrix from the annotated
// roster. Safe to call on an unsolved roster: every cell is then simply
// available or unavailable.
func buildGrid(r *roster.Roster) [][]CellState {
	grid := make([][]CellState, len(r.Volunteers))
	for _, v := range r.Volunteers {
		row := make([]CellState, len(r.Shifts))
		for _, s := range r.Shifts {
			row[s.Index] = cellFor(r, v, s)
		}
		grid[v.Index] = row
	}
	return grid
}

func cellFor(r *roster.Roster, v *roster.Volunteer, s *roster.Shift) CellState {
	for _, assigned := range s.AssignedVolunteers {
		if assigned.Index == v.Index {
			if v.IsReferent {
				return CellAssignedReferent
			}
			return CellAssigned
		}
	}
	if r.IsAvailable(v, s) {
		return CellAvailable
	}
	return CellUnavailable
}
