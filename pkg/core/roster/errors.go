package roster

import "fmt"

// DataError reports malformed or inconsistent roster input. It is returned
// from roster construction, before any planning work happens, and is never
// retried.
type DataError struct {
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid roster data (%s): %s", e.Field, e.Reason)
}
