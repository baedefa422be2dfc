package billing

import "time"

// Clock reports the current instant. Services take one so that "today" can be pinned in tests.
type Clock func() time.Time

// SystemClock reads the wall clock in loc. Calendar days are resolved in loc
// so that an installment due today is not overdue before local midnight.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Today is the current calendar day, expressed as midnight UTC.
func (c Clock) Today() time.Time {
	y, m, d := c().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
