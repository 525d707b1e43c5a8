package driven

import "time"

// Clock returns the current time. Services take one so tests can pin timestamps.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}
