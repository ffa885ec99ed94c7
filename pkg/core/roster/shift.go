package roster

import "time"

// Shift is one dated unit of work. IsOpen and AssignedVolunteers are
// written by the solution extractor; everything else is fixed at roster
// construction.
type Shift struct {
	// Index is the position in the canonical day-ascending ordering of all
	// shifts, strictly increasing with Date.
	Index int

	// Day is the day-of-month, Date the full calendar date. Both are kept
	// because rest-window arithmetic across a month boundary needs true
	// date differences.
	Day  int
	Date time.Time

	// IsSurstaff distinguishes an overflow/backup shift from a regular one.
	IsSurstaff bool

	// IsOpen is true once the solved schedule staffed this shift.
	IsOpen bool

	// AssignedVolunteers lists the volunteers placed on this shift, in
	// volunteer index order. Empty until solved.
	AssignedVolunteers []*Volunteer
}

// MarkOpen flags the shift as adequately staffed in the chosen solution.
func (s *Shift) MarkOpen() {
	s.IsOpen = true
}

// AssignVolunteer attaches a volunteer to the shift and updates the
// volunteer's assignment tally. Only the solution extractor calls this.
func (s *Shift) AssignVolunteer(v *Volunteer) {
	s.AssignedVolunteers = append(s.AssignedVolunteers, v)
	v.AssignedCount++
	v.AssignedShifts = append(v.AssignedShifts, s)
}

// HasReferent reports whether any assigned volunteer is a referent.
func (s *Shift) HasReferent() bool {
	for _, v := range s.AssignedVolunteers {
		if v.IsReferent {
			return true
		}
	}
	return false
}
