package timesheet

import "time"

// Summary is the derived day state the session loop renders and gates
// commands on. RecommendedOut and NextTickOut are zero unless clocked in.
type Summary struct {
	ClockedIn      bool
	TimeRemaining  time.Duration
	RecommendedOut time.Time
	NextTickOut    time.Time
}

// Summarize derives the work summary for a built timetable. Remaining time
// counts the provisional interval's projected duration, so the figure reads
// "if I stop at the next tick"; it goes negative once past the target.
// The recommended clock-out is the open interval's in-instant plus the
// remaining time, and the next-tick clock-out is the provisional out-instant
// itself.
func Summarize(tt Timetable, target time.Duration) Summary {
	if len(tt.Intervals) == 0 {
		return Summary{TimeRemaining: target}
	}

	remaining := target - tt.Total()
	last := tt.Intervals[len(tt.Intervals)-1]

	// Clocked in iff the last out-instant is still ahead of the server clock,
	// i.e. it is the provisional one.
	if !last.Out.After(tt.ServerNow) {
		return Summary{TimeRemaining: remaining}
	}

	return Summary{
		ClockedIn:      true,
		TimeRemaining:  remaining,
		RecommendedOut: last.In.Add(remaining),
		NextTickOut:    last.Out,
	}
}
