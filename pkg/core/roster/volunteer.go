package roster

import (
	"sort"
	"time"
)

// Volunteer is one member of the roster. Scalar fields are set at
// construction and read-only afterwards; AssignedCount and AssignedShifts
// are written exactly once, by the solution extractor.
type Volunteer struct {
	// Index is the dense, zero-based identifier used to key decision
	// variables and lookups. Unique across the roster.
	Index int

	// Name is the display identity; never used for keying.
	Name string

	// PreferredCount is the desired number of assignments this month,
	// always in {0, 1, 2, 3}.
	PreferredCount int

	// IsReferent marks a senior volunteer able to anchor a shift.
	IsReferent bool

	// LastAssignment is the date of the most recent assignment from the
	// previous horizon, or nil when there is none on record.
	LastAssignment *time.Time

	// AssignedCount and AssignedShifts are filled in by the extractor
	// after a successful solve.
	AssignedCount  int
	AssignedShifts []*Shift

	availableDays map[int]bool
	surstaffDays  map[int]bool
}

// NewVolunteer builds a volunteer with the given availability day sets.
// Day validation happens at roster construction, not here.
func NewVolunteer(index int, name string, preferredCount int, isReferent bool, lastAssignment *time.Time, availableDays, surstaffDays []int) *Volunteer {
	v := &Volunteer{
		Index:          index,
		Name:           name,
		PreferredCount: preferredCount,
		IsReferent:     isReferent,
		LastAssignment: lastAssignment,
		availableDays:  make(map[int]bool, len(availableDays)),
		surstaffDays:   make(map[int]bool, len(surstaffDays)),
	}
	for _, d := range availableDays {
		v.availableDays[d] = true
	}
	for _, d := range surstaffDays {
		v.surstaffDays[d] = true
	}
	return v
}

// IsAvailableOn reports declared availability for a day. Overflow (surstaff)
// shifts consult the surstaff day set, regular shifts the regular one.
func (v *Volunteer) IsAvailableOn(day int, surstaff bool) bool {
	if surstaff {
		return v.surstaffDays[day]
	}
	return v.availableDays[day]
}

// AvailableDays returns the declared regular availability days, ascending.
func (v *Volunteer) AvailableDays() []int {
	return sortedDays(v.availableDays)
}

// SurstaffDays returns the declared overflow availability days, ascending.
func (v *Volunteer) SurstaffDays() []int {
	return sortedDays(v.surstaffDays)
}

func sortedDays(set map[int]bool) []int {
	days := make([]int, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
