package util

import "time"

// ISODate is the layout of calendar day keys.
const ISODate = "2006-01-02"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// CalendarDay formats the calendar date of t as seen in loc.
func CalendarDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(ISODate)
}
