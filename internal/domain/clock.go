package domain

import "time"

// Now returns the current time in UTC at millisecond precision, which is
// what every persisted timestamp is stored with.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
