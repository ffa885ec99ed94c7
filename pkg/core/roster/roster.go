package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// Record is the raw volunteer record the roster is built from, as produced
// by whichever collaborator loaded it (roster file, spreadsheet export, ...).
type Record struct {
	Name              string
	PreferredCountRaw string
	IsReferentRaw     string
	LastAssignmentRaw string
	AvailableDays     []int
	SurstaffDays      []int
}

// Roster is the immutable-after-construction model of one month's
// volunteers and shifts, plus the derived indices the planner needs.
// Solution annotations (open flags, assignments) are applied exactly once
// by the solution extractor; nothing else mutates it.
type Roster struct {
	Month time.Month
	Year  int

	// Volunteers in index order; Volunteers[i].Index == i.
	Volunteers []*Volunteer

	// Shifts in canonical day-ascending order; Shifts[i].Index == i.
	Shifts []*Shift

	daysInMonth int
	shiftByDay  map[int]*Shift
}

// Option customizes roster construction.
type Option func(*buildOptions)

type buildOptions struct {
	pattern *rrule.RRule
}

// WithShiftPattern restricts which days of the month may host shifts.
// Availability days outside the recurrence are dropped, not an error: a
// volunteer box ticked on a non-shift day simply has no shift to point at.
func WithShiftPattern(pattern *rrule.RRule) Option {
	return func(o *buildOptions) {
		o.pattern = pattern
	}
}

// Build parses raw records and constructs the roster for the target month.
// One shift is generated per distinct day observed in the records' regular
// availability; days seen only in surstaff availability become overflow
// shifts. Returns a DataError (wrapped with the volunteer's name) for
// malformed records.
func Build(month time.Month, year int, records []Record, opts ...Option) (*Roster, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	allowed, err := allowedDays(o.pattern, month, year, daysInMonth)
	if err != nil {
		return nil, err
	}

	volunteers := make([]*Volunteer, 0, len(records))
	regularDays := make(map[int]bool)
	surstaffDays := make(map[int]bool)

	for i, rec := range records {
		preferred, err := ParsePreferredCount(rec.PreferredCountRaw)
		if err != nil {
			return nil, fmt.Errorf("volunteer %q: %w", rec.Name, err)
		}

		last, err := ParseLastAssignment(rec.LastAssignmentRaw)
		if err != nil {
			return nil, fmt.Errorf("volunteer %q: %w", rec.Name, err)
		}

		avail, err := cleanDays(rec.AvailableDays, daysInMonth, allowed)
		if err != nil {
			return nil, fmt.Errorf("volunteer %q: %w", rec.Name, err)
		}
		surstaff, err := cleanDays(rec.SurstaffDays, daysInMonth, allowed)
		if err != nil {
			return nil, fmt.Errorf("volunteer %q: %w", rec.Name, err)
		}

		for _, d := range avail {
			regularDays[d] = true
		}
		for _, d := range surstaff {
			surstaffDays[d] = true
		}

		volunteers = append(volunteers, NewVolunteer(i, rec.Name, preferred, ParseReferent(rec.IsReferentRaw), last, avail, surstaff))
	}

	shifts := generateShifts(month, year, regularDays, surstaffDays)
	return New(month, year, volunteers, shifts)
}

// New assembles a roster from already-constructed volunteers and shifts,
// validating the data-model invariants: dense unique volunteer indices,
// date-sorted duplicate-free shifts, and every declared availability day
// backed by a shift.
func New(month time.Month, year int, volunteers []*Volunteer, shifts []*Shift) (*Roster, error) {
	r := &Roster{
		Month:       month,
		Year:        year,
		Volunteers:  volunteers,
		Shifts:      shifts,
		daysInMonth: time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(),
		shiftByDay:  make(map[int]*Shift, len(shifts)),
	}

	for i, s := range shifts {
		if s.Index != i {
			return nil, &DataError{Field: "shift.index", Reason: fmt.Sprintf("shift %d carries index %d", i, s.Index)}
		}
		if i > 0 && !shifts[i-1].Date.Before(s.Date) {
			return nil, &DataError{Field: "shift.date", Reason: fmt.Sprintf("shifts %d and %d are not strictly date-ascending", i-1, i)}
		}
		if r.shiftByDay[s.Day] != nil {
			return nil, &DataError{Field: "shift.day", Reason: fmt.Sprintf("duplicate shift on day %d", s.Day)}
		}
		r.shiftByDay[s.Day] = s
	}

	seen := make(map[int]bool, len(volunteers))
	for i, v := range volunteers {
		if v.Index != i || seen[v.Index] {
			return nil, &DataError{Field: "volunteer.index", Reason: fmt.Sprintf("volunteer %q: index %d is not dense and unique", v.Name, v.Index)}
		}
		seen[v.Index] = true

		if v.PreferredCount < 0 || v.PreferredCount > maxPreferredCount {
			return nil, &DataError{Field: "preferredCount", Reason: fmt.Sprintf("volunteer %q: %d outside {0..%d}", v.Name, v.PreferredCount, maxPreferredCount)}
		}

		for _, d := range append(v.AvailableDays(), v.SurstaffDays()...) {
			if r.shiftByDay[d] == nil {
				return nil, &DataError{Field: "availableDays", Reason: fmt.Sprintf("volunteer %q: day %d has no shift", v.Name, d)}
			}
		}
	}

	return r, nil
}

// IsAvailable reports whether the volunteer declared availability for the
// shift's day, against the day set matching the shift type. O(1).
func (r *Roster) IsAvailable(v *Volunteer, s *Shift) bool {
	return v.IsAvailableOn(s.Day, s.IsSurstaff)
}

// AvailableVolunteers returns the volunteers available for a shift, in
// index order.
func (r *Roster) AvailableVolunteers(s *Shift) []*Volunteer {
	var out []*Volunteer
	for _, v := range r.Volunteers {
		if r.IsAvailable(v, s) {
			out = append(out, v)
		}
	}
	return out
}

// ShiftsWithinRestWindow returns every shift after s whose date is within
// windowDays days of s. Shifts are date-sorted, so this is a forward scan
// stopping at the first shift beyond the window.
func (r *Roster) ShiftsWithinRestWindow(s *Shift, windowDays int) []*Shift {
	var out []*Shift
	for i := s.Index + 1; i < len(r.Shifts); i++ {
		next := r.Shifts[i]
		if daysBetween(s.Date, next.Date) > windowDays {
			break
		}
		out = append(out, next)
	}
	return out
}

// MaxDay returns the day number of the latest shift, or zero for an empty
// roster.
func (r *Roster) MaxDay() int {
	if len(r.Shifts) == 0 {
		return 0
	}
	return r.Shifts[len(r.Shifts)-1].Day
}

// DaysInMonth returns the number of calendar days in the target month.
func (r *Roster) DaysInMonth() int {
	return r.daysInMonth
}

// ShiftOnDay returns the shift hosted on a day, or nil.
func (r *Roster) ShiftOnDay(day int) *Shift {
	return r.shiftByDay[day]
}

func generateShifts(month time.Month, year int, regular, surstaff map[int]bool) []*Shift {
	days := make([]int, 0, len(regular)+len(surstaff))
	for d := range regular {
		days = append(days, d)
	}
	for d := range surstaff {
		if !regular[d] {
			days = append(days, d)
		}
	}
	sort.Ints(days)

	shifts := make([]*Shift, len(days))
	for i, d := range days {
		shifts[i] = &Shift{
			Index:      i,
			Day:        d,
			Date:       time.Date(year, month, d, 0, 0, 0, 0, time.UTC),
			IsSurstaff: !regular[d],
		}
	}
	return shifts
}

func cleanDays(days []int, daysInMonth int, allowed map[int]bool) ([]int, error) {
	set := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 1 || d > daysInMonth {
			return nil, &DataError{Field: "availableDays", Reason: fmt.Sprintf("day %d is outside 1..%d", d, daysInMonth)}
		}
		if allowed != nil && !allowed[d] {
			continue
		}
		set[d] = true
	}
	return sortedDays(set), nil
}

func allowedDays(pattern *rrule.RRule, month time.Month, year, daysInMonth int) (map[int]bool, error) {
	if pattern == nil {
		return nil, nil
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, daysInMonth, 23, 59, 59, 0, time.UTC)

	allowed := make(map[int]bool)
	for _, occ := range pattern.Between(first, last, true) {
		allowed[occ.Day()] = true
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("shift pattern has no occurrences in %s %d", month, year)
	}
	return allowed, nil
}

// daysBetween returns the whole-day difference between two dates.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
