package timesheet

import "time"

// Round snaps t to the nearest multiple of resolution, expressed in whole
// minutes. Halfway values round up, matching arithmetic rounding rather than
// banker's rounding, and overflow carries into the hour. Seconds are discarded
// before rounding, so Round is idempotent.
func Round(t time.Time, resolution time.Duration) time.Time {
	res := int(resolution.Minutes())
	if res <= 0 {
		res = 1
	}
	minute := (t.Minute() + res/2) / res * res
	// time.Date normalizes minute 60 into the next hour.
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// NextBoundary returns the first multiple of resolution strictly after t. An
// instant already on the grid advances a full tick, so the result is never t
// itself.
func NextBoundary(t time.Time, resolution time.Duration) time.Time {
	res := int(resolution.Minutes())
	if res <= 0 {
		res = 1
	}
	minute := t.Minute() / res * res
	boundary := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
	for !boundary.After(t) {
		boundary = boundary.Add(time.Duration(res) * time.Minute)
	}
	return boundary
}
