package roster

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel values accepted in raw volunteer records. They come straight from
// the availability form the roster is exported from.
const (
	// SentinelNoPreference maps to the maximum preferred count.
	SentinelNoPreference = "Peu importe"

	// SentinelPause maps to zero assignments for the month.
	SentinelPause = "Pause"

	// ReferentTrue is the only raw value treated as a referent flag.
	ReferentTrue = "TRUE"

	// DateLayout is the day/month/year layout of raw assignment dates.
	DateLayout = "2/1/2006"
)

// maxPreferredCount is the upper end of the preference domain {0..3}.
const maxPreferredCount = 3

// ParsePreferredCount turns a raw preference value into a count in {0..3}.
// "Peu importe" means no preference and maps to 3, "Pause" maps to 0,
// anything else must parse as an integer already inside the domain.
func ParsePreferredCount(raw string) (int, error) {
	switch strings.TrimSpace(raw) {
	case SentinelNoPreference:
		return maxPreferredCount, nil
	case SentinelPause:
		return 0, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &DataError{
			Field:  "preferredCount",
			Reason: fmt.Sprintf("%q is neither a sentinel nor an integer", raw),
		}
	}
	if n < 0 || n > maxPreferredCount {
		return 0, &DataError{
			Field:  "preferredCount",
			Reason: fmt.Sprintf("%d is outside {0..%d}", n, maxPreferredCount),
		}
	}
	return n, nil
}

// ParseReferent reports whether a raw referent flag is truthy. Only the
// exact "TRUE" sentinel counts; every other value is false.
func ParseReferent(raw string) bool {
	return strings.TrimSpace(raw) == ReferentTrue
}

// ParseLastAssignment parses a raw day/month/year date, returning nil for an
// empty value (no prior assignment on record).
func ParseLastAssignment(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, &DataError{
			Field:  "lastAssignment",
			Reason: fmt.Sprintf("%q does not parse as day/month/year", raw),
		}
	}
	return &t, nil
}
