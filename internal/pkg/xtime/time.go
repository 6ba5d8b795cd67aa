package xtime

import "time"

// UTCNow returns the current time in UTC.
func UTCNow() time.Time {
	return time.Now().UTC()
}

var utcNowFunc = UTCNow

// setUTCNowFunc sets the function used to get current UTC time.
// This is primarily used for testing to mock the current time.
func setUTCNowFunc(f func() time.Time) {
	utcNowFunc = f
}

// resetUTCNowFunc resets the UTC now function to the default implementation.
// This should be called in test cleanup to avoid affecting other tests.
func resetUTCNowFunc() {
	utcNowFunc = UTCNow
}

// DayStart truncates t to the start of its UTC day. Due dates are stored
// and compared at this precision.
func DayStart(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// Today returns the start of the current UTC day.
func Today() time.Time {
	return DayStart(utcNowFunc())
}
