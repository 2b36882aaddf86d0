// Package timesheet turns the portal's rendered page into a structured day
// timetable and derives clock-out recommendations from it. Everything here is
// pure: the server clock comes out of the page, never out of time.Now.
package timesheet

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Portal text layouts. Clock events render as "01/02/2006 03:04 PM"; the
// server clock is embedded in a script tag as "January 2, 2006 15:04:05".
const (
	eventLayout      = "01/02/2006 03:04 PM"
	serverTimeLayout = "January 2, 2006 15:04:05"
)

var (
	// ErrEmptyResponse means the portal returned no page at all.
	ErrEmptyResponse = errors.New("empty response from portal")

	// ErrSessionExpired means the portal served its login form instead of the
	// timesheet. Recoverable: the caller re-authenticates and parses again.
	ErrSessionExpired = errors.New("login session expired")
)

// ParseError reports a page whose structure did not match the portal's known
// markup. RawText carries the offending page for diagnostics.
type ParseError struct {
	Reason  string
	RawText string
}

func (e *ParseError) Error() string { return e.Reason }

var (
	serverTimeRe = regexp.MustCompile(`var sDate = ['"]([^'"]+)['"]`)
	timeInRe     = regexp.MustCompile(`In(\d{2}/\d{2}/\d{4} \d{2}:\d{2} (?:AM|PM))`)
	timeOutRe    = regexp.MustCompile(`Out(\d{2}/\d{2}/\d{4} \d{2}:\d{2} (?:AM|PM))`)
	custIDRe     = regexp.MustCompile(`var _custID = '(\w*)'`)
	employeeIDRe = regexp.MustCompile(`var _employeeId = '(\w*)'`)
)

// Snapshot is the parsed state of the portal's activity panel for the current
// day. Out holds either as many events as In or exactly one fewer; the missing
// one means the employee is still clocked in. Instants are naive portal-local
// times.
type Snapshot struct {
	In        []time.Time
	Out       []time.Time
	ServerNow time.Time
}

// Parse extracts the day's clock events and the server clock from the portal
// page. An absent activity panel with the login form present means the session
// was invalidated server-side; absent without the login form, the page no
// longer looks like the portal at all and the raw text is kept for diagnosis.
// A day with no clock-ins is a valid, empty snapshot.
func Parse(pageText string) (Snapshot, error) {
	if pageText == "" {
		return Snapshot{}, ErrEmptyResponse
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageText))
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading portal page: %w", err)
	}

	activities := doc.Find("#divActivities").Children()
	if activities.Length() == 0 {
		if doc.Find("#mainLoginWrapper").Length() > 0 {
			return Snapshot{}, ErrSessionExpired
		}
		return Snapshot{}, &ParseError{
			Reason:  "activity panel not found; login may be incorrect",
			RawText: pageText,
		}
	}

	m := serverTimeRe.FindStringSubmatch(pageText)
	if m == nil {
		return Snapshot{}, &ParseError{
			Reason:  "server time not found; the portal application may have changed",
			RawText: pageText,
		}
	}
	now, err := time.Parse(serverTimeLayout, m[1])
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing server time %q: %w", m[1], err)
	}

	activityText := activities.First().Text()
	in, err := parseEvents(timeInRe, activityText)
	if err != nil {
		return Snapshot{}, err
	}
	if len(in) == 0 {
		// Not clocked in yet today.
		return Snapshot{ServerNow: now}, nil
	}
	out, err := parseEvents(timeOutRe, activityText)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{In: in, Out: out, ServerNow: now}, nil
}

// parseEvents collects every timestamp the pattern matches, oldest first. A
// match that fails the event layout is a defect in the pattern itself, so it
// surfaces as an error rather than being skipped.
func parseEvents(re *regexp.Regexp, text string) ([]time.Time, error) {
	var events []time.Time
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		t, err := time.Parse(eventLayout, m[1])
		if err != nil {
			return nil, fmt.Errorf("parsing clock event %q: %w", m[1], err)
		}
		events = append(events, t)
	}
	return events, nil
}

// ParseIDs scrapes the customer and employee identifiers embedded in the
// authenticated page. They are opaque everywhere except the clock endpoint
// and must be re-extracted on every refresh.
func ParseIDs(pageText string) (custID, empID string, err error) {
	cm := custIDRe.FindStringSubmatch(pageText)
	em := employeeIDRe.FindStringSubmatch(pageText)
	if cm == nil || em == nil {
		return "", "", &ParseError{
			Reason:  "customer or employee ID not found",
			RawText: pageText,
		}
	}
	return cm[1], em[1], nil
}
