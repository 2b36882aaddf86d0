// Package term is the interactive surface: it renders the rounded timetable
// to the terminal, prompts for commands and credentials, and raises desktop
// notifications for clock events.
package term

import (
	"fmt"
	"io"
	"time"

	"autoclocker/internal/timesheet"
)

const clockLayout = "03:04 PM"

// Renderer prints the clock table and summary the way the portal's own
// timesheet reads: one row per interval, provisional cells parenthesized,
// hours as decimals.
type Renderer struct {
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

const rowFormat = "%-12s %-12s %6s\n"

func (r *Renderer) Render(tt timesheet.Timetable, sum timesheet.Summary) {
	fmt.Fprintf(r.out, "\nCurrent server time: %s\n", tt.ServerNow.Format(clockLayout))

	if len(tt.Intervals) == 0 {
		fmt.Fprintln(r.out, "You have not clocked in today.")
	} else {
		fmt.Fprintln(r.out)
		fmt.Fprint(r.out, headerStyle.Render(fmt.Sprintf(rowFormat, "Clocked in", "Clocked out", "Hours")))
		for _, iv := range tt.Intervals {
			in := iv.In.Format(clockLayout)
			out := iv.Out.Format(clockLayout)
			h := hours(iv.Duration)
			if iv.Provisional {
				row := fmt.Sprintf(rowFormat, in, "("+out+")", "("+h+")")
				fmt.Fprint(r.out, provisionalStyle.Render(row))
			} else {
				fmt.Fprintf(r.out, rowFormat, in, out, h)
			}
		}
		fmt.Fprint(r.out, totalStyle.Render(fmt.Sprintf(rowFormat, "", "", hours(tt.Total()))))
	}

	fmt.Fprintln(r.out)
	remaining := fmt.Sprintf("You have %s hours remaining.", hours(sum.TimeRemaining))
	if sum.TimeRemaining < 0 {
		remaining = overtimeStyle.Render(remaining)
	}
	fmt.Fprint(r.out, remaining)
	if sum.ClockedIn {
		fmt.Fprintf(r.out, " You should clock out at %s.",
			successStyle.Render(sum.RecommendedOut.Format(clockLayout)))
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) Message(text string) {
	fmt.Fprintln(r.out, text)
}

// hours renders a duration as decimal hours with two places; negative
// durations keep their sign so overtime reads naturally.
func hours(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Hours())
}
