package utils

import "time"

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// NowUTC returns the current time in UTC truncated to milliseconds, the
// precision of a BSON datetime, so values read back compare equal.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
