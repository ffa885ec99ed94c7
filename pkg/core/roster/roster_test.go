package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func testRecord(name, preferred string, days ...int) Record {
	return Record{
		Name:              name,
		PreferredCountRaw: preferred,
		AvailableDays:     days,
	}
}

func TestBuild_GeneratesShiftsFromAvailability(t *testing.T) {
	records := []Record{
		testRecord("Alice", "2", 5, 12),
		testRecord("Bruno", "1", 12, 19),
		{Name: "Chloé", PreferredCountRaw: "3", SurstaffDays: []int{12, 26}},
	}

	r, err := Build(time.December, 2024, records)
	require.NoError(t, err)

	require.Len(t, r.Shifts, 4)
	for i, want := range []int{5, 12, 19, 26} {
		assert.Equal(t, i, r.Shifts[i].Index)
		assert.Equal(t, want, r.Shifts[i].Day)
		assert.Equal(t, time.Date(2024, time.December, want, 0, 0, 0, 0, time.UTC), r.Shifts[i].Date)
	}

	// Day 12 is covered by regular availability, so the overflow tick on it
	// does not spawn a second shift. Day 26 is overflow-only.
	assert.False(t, r.Shifts[1].IsSurstaff)
	assert.True(t, r.Shifts[3].IsSurstaff)
}

func TestBuild_ParsesVolunteerFields(t *testing.T) {
	records := []Record{
		{
			Name:              "Alice",
			PreferredCountRaw: "Peu importe",
			IsReferentRaw:     "TRUE",
			LastAssignmentRaw: "28/11/2024",
			AvailableDays:     []int{5},
		},
	}

	r, err := Build(time.December, 2024, records)
	require.NoError(t, err)
	require.Len(t, r.Volunteers, 1)

	v := r.Volunteers[0]
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 3, v.PreferredCount)
	assert.True(t, v.IsReferent)
	require.NotNil(t, v.LastAssignment)
	assert.Equal(t, time.Date(2024, time.November, 28, 0, 0, 0, 0, time.UTC), *v.LastAssignment)
	assert.Equal(t, []int{5}, v.AvailableDays())
}

func TestBuild_MalformedRecordNamesVolunteer(t *testing.T) {
	records := []Record{testRecord("Alice", "cinq", 5)}

	_, err := Build(time.December, 2024, records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alice")

	var dataErr *DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestBuild_DayOutsideMonth(t *testing.T) {
	_, err := Build(time.December, 2024, []Record{testRecord("Alice", "1", 32)})
	require.Error(t, err)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "availableDays", dataErr.Field)
}

func TestBuild_ShiftPatternFiltersDays(t *testing.T) {
	// Tuesdays of December 2024: 3, 10, 17, 24, 31.
	pattern, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.TU},
		Dtstart:   time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	records := []Record{testRecord("Alice", "2", 3, 4, 10)}

	r, err := Build(time.December, 2024, records, WithShiftPattern(pattern))
	require.NoError(t, err)

	require.Len(t, r.Shifts, 2)
	assert.Equal(t, 3, r.Shifts[0].Day)
	assert.Equal(t, 10, r.Shifts[1].Day)
	assert.Equal(t, []int{3, 10}, r.Volunteers[0].AvailableDays())
}

func TestBuild_ShiftPatternWithoutOccurrences(t *testing.T) {
	pattern, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.TU},
		Dtstart:   time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
		Until:     time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = Build(time.December, 2024, []Record{testRecord("Alice", "1", 3)}, WithShiftPattern(pattern))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no occurrences")
}

func TestRoster_ShiftsWithinRestWindow(t *testing.T) {
	records := []Record{testRecord("Alice", "3", 2, 5, 8, 20)}
	r, err := Build(time.December, 2024, records)
	require.NoError(t, err)

	within := r.ShiftsWithinRestWindow(r.Shifts[0], 6)
	require.Len(t, within, 2)
	assert.Equal(t, 5, within[0].Day)
	assert.Equal(t, 8, within[1].Day)

	within = r.ShiftsWithinRestWindow(r.Shifts[2], 6)
	assert.Empty(t, within)

	within = r.ShiftsWithinRestWindow(r.Shifts[3], 6)
	assert.Empty(t, within)
}

func TestRoster_AvailabilityPerShiftType(t *testing.T) {
	records := []Record{
		testRecord("Alice", "2", 5),
		{Name: "Chloé", PreferredCountRaw: "2", SurstaffDays: []int{26}},
	}
	r, err := Build(time.December, 2024, records)
	require.NoError(t, err)

	regular := r.ShiftOnDay(5)
	overflow := r.ShiftOnDay(26)
	require.NotNil(t, regular)
	require.NotNil(t, overflow)
	require.True(t, overflow.IsSurstaff)

	assert.True(t, r.IsAvailable(r.Volunteers[0], regular))
	assert.False(t, r.IsAvailable(r.Volunteers[0], overflow))
	assert.False(t, r.IsAvailable(r.Volunteers[1], regular))
	assert.True(t, r.IsAvailable(r.Volunteers[1], overflow))

	avail := r.AvailableVolunteers(overflow)
	require.Len(t, avail, 1)
	assert.Equal(t, "Chloé", avail[0].Name)
}

func TestNew_RejectsDuplicateShiftDay(t *testing.T) {
	day := time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)
	shifts := []*Shift{
		{Index: 0, Day: 5, Date: day},
		{Index: 1, Day: 5, Date: day},
	}

	_, err := New(time.December, 2024, nil, shifts)
	require.Error(t, err)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "shift.date", dataErr.Field)
}

func TestNew_RejectsUnsortedShifts(t *testing.T) {
	shifts := []*Shift{
		{Index: 0, Day: 12, Date: time.Date(2024, time.December, 12, 0, 0, 0, 0, time.UTC)},
		{Index: 1, Day: 5, Date: time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)},
	}

	_, err := New(time.December, 2024, nil, shifts)
	require.Error(t, err)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "shift.date", dataErr.Field)
}

func TestNew_RejectsAvailabilityWithoutShift(t *testing.T) {
	shifts := []*Shift{
		{Index: 0, Day: 5, Date: time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)},
	}
	volunteers := []*Volunteer{
		NewVolunteer(0, "Alice", 1, false, nil, []int{5, 9}, nil),
	}

	_, err := New(time.December, 2024, volunteers, shifts)
	require.Error(t, err)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "availableDays", dataErr.Field)
}

func TestRoster_MaxDay(t *testing.T) {
	r, err := Build(time.December, 2024, []Record{testRecord("Alice", "1", 5, 19)})
	require.NoError(t, err)
	assert.Equal(t, 19, r.MaxDay())
	assert.Equal(t, 31, r.DaysInMonth())

	empty, err := Build(time.December, 2024, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.MaxDay())
}
