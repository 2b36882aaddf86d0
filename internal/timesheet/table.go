package timesheet

import "time"

// Interval is one rounded clock-in/clock-out pair. Provisional marks the
// trailing open interval, whose out-instant is projected to the next
// resolution boundary instead of recorded by the portal; renderers show it
// differently from committed intervals.
type Interval struct {
	In          time.Time
	Out         time.Time
	Duration    time.Duration
	Provisional bool
}

// Timetable is the rounded view of one day's snapshot. It is rebuilt from
// scratch on every refresh and never mutated.
type Timetable struct {
	Intervals []Interval
	ServerNow time.Time
}

// Build rounds every event in the snapshot and pairs them element-wise into
// intervals, oldest first. When the employee is currently clocked in, the open
// interval is closed provisionally at the first resolution boundary strictly
// after the server clock, so its projected duration is never zero.
func Build(snap Snapshot, resolution time.Duration) Timetable {
	tt := Timetable{ServerNow: snap.ServerNow}
	for i, in := range snap.In {
		iv := Interval{In: Round(in, resolution)}
		if i < len(snap.Out) {
			iv.Out = Round(snap.Out[i], resolution)
		} else {
			iv.Out = NextBoundary(snap.ServerNow, resolution)
			iv.Provisional = true
		}
		iv.Duration = iv.Out.Sub(iv.In)
		tt.Intervals = append(tt.Intervals, iv)
	}
	return tt
}

// Total sums every interval's duration, the provisional one included.
func (tt Timetable) Total() time.Duration {
	var total time.Duration
	for _, iv := range tt.Intervals {
		total += iv.Duration
	}
	return total
}
