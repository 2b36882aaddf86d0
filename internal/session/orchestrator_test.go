package session_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoclocker/internal/schedule"
	"autoclocker/internal/session"
	"autoclocker/internal/timesheet"
)

// Clocked in since 09:00, server clock 14:10.
const clockedInPage = `<html><body>
<div id="divActivities"><div>
<span>In08/28/2026 09:00 AM</span>
</div></div>
<script>
var sDate = 'August 28, 2026 14:10:00';
var _custID = 'C1';
var _employeeId = 'E1';
</script>
</body></html>`

// Clocked out at noon, server clock 14:10.
const clockedOutPage = `<html><body>
<div id="divActivities"><div>
<span>In08/28/2026 09:00 AM</span>
<span>Out08/28/2026 12:00 PM</span>
</div></div>
<script>
var sDate = 'August 28, 2026 14:10:00';
var _custID = 'C1';
var _employeeId = 'E1';
</script>
</body></html>`

const expiredPage = `<html><body><div id="mainLoginWrapper"></div></body></html>`

type fakeTransport struct {
	loginPages   []string
	refreshPages []string
	logins       int
	refreshes    int
	clockEvents  []string
	clockReply   string
}

func (f *fakeTransport) page(pages []string, n int) string {
	if n >= len(pages) {
		return pages[len(pages)-1]
	}
	return pages[n]
}

func (f *fakeTransport) Login(ctx context.Context, user, secret string) (string, error) {
	p := f.page(f.loginPages, f.logins)
	f.logins++
	return p, nil
}

func (f *fakeTransport) Refresh(ctx context.Context) (string, error) {
	p := f.page(f.refreshPages, f.refreshes)
	f.refreshes++
	return p, nil
}

func (f *fakeTransport) SubmitClockIntent(ctx context.Context, custID, empID, event string) (string, error) {
	f.clockEvents = append(f.clockEvents, event)
	return f.clockReply, nil
}

type fakeClockout struct {
	targets []time.Time
	nows    []time.Time
	err     error
}

func (f *fakeClockout) Schedule(ctx context.Context, target, now time.Time, identity string) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	f.targets = append(f.targets, target)
	f.nows = append(f.nows, now)
	return target, nil
}

type fakeRenderer struct {
	renders  []timesheet.Summary
	messages []string
}

func (f *fakeRenderer) Render(tt timesheet.Timetable, sum timesheet.Summary) {
	f.renders = append(f.renders, sum)
}

func (f *fakeRenderer) Message(text string) {
	f.messages = append(f.messages, text)
}

// script yields its commands in order, then exits.
type script struct {
	commands []session.Command
	next     int
}

func (s *script) Next() (session.Command, error) {
	if s.next >= len(s.commands) {
		return session.CmdExit, nil
	}
	cmd := s.commands[s.next]
	s.next++
	return cmd, nil
}

func newOrchestrator(t *fakeTransport, c session.Clockout, r *fakeRenderer, cmds ...session.Command) *session.Orchestrator {
	return session.New(
		session.Config{WorkTarget: 8 * time.Hour, Resolution: 15 * time.Minute},
		session.Credentials{Username: "user@example.com", Secret: "hunter2"},
		t, c, r, &script{commands: cmds}, nil,
	)
}

func TestRunExitsOnUnrecognizedCommand(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedOutPage}, refreshPages: []string{clockedOutPage}}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, transport.logins)
	assert.Equal(t, 1, transport.refreshes)
	assert.Empty(t, transport.clockEvents)
	require.Len(t, renderer.renders, 1)
	assert.False(t, renderer.renders[0].ClockedIn)
}

func TestClockInRejectedWhileClockedIn(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedInPage}, refreshPages: []string{clockedInPage}}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer, session.CmdClockIn).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, transport.clockEvents, "a rejected command must make zero executor calls")
	assert.Contains(t, renderer.messages, "Cannot clock in: you are already clocked in.")
	assert.Equal(t, 2, transport.refreshes, "the loop continues after a rejection")
}

func TestClockOutRejectedWhileClockedOut(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedOutPage}, refreshPages: []string{clockedOutPage}}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer, session.CmdClockOut).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, transport.clockEvents)
	assert.Contains(t, renderer.messages, "Cannot clock out: you are not clocked in.")
}

func TestClockInSubmitsIntent(t *testing.T) {
	transport := &fakeTransport{
		loginPages:   []string{clockedOutPage},
		refreshPages: []string{clockedOutPage},
		clockReply:   "<msg>Operation Successful</msg>",
	}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer, session.CmdClockIn).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"IN"}, transport.clockEvents)
	assert.Contains(t, renderer.messages, "You have clocked in.")
}

func TestClockOutFailureIsReported(t *testing.T) {
	transport := &fakeTransport{
		loginPages:   []string{clockedInPage},
		refreshPages: []string{clockedInPage},
		clockReply:   "<msg>Unexpected error</msg>",
	}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer, session.CmdClockOut).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"OUT"}, transport.clockEvents)
	assert.Contains(t, renderer.messages, "Error clocking out.")
}

func TestExpiredSessionTriggersOneRelogin(t *testing.T) {
	transport := &fakeTransport{
		loginPages:   []string{expiredPage, clockedInPage},
		refreshPages: []string{expiredPage},
	}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, transport.logins, "initial login plus exactly one reauthentication")
	require.Len(t, renderer.renders, 1)
	assert.True(t, renderer.renders[0].ClockedIn)
}

func TestSecondExpiryIsFatal(t *testing.T) {
	transport := &fakeTransport{
		loginPages:   []string{expiredPage},
		refreshPages: []string{expiredPage},
	}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer).Run(context.Background())

	assert.ErrorIs(t, err, timesheet.ErrSessionExpired)
	assert.Equal(t, 2, transport.logins, "no second retry")
}

func TestAutoSchedulesRecommendedClockout(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedInPage}, refreshPages: []string{clockedInPage}}
	clockout := &fakeClockout{}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, clockout, renderer, session.CmdAuto).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, clockout.targets, 1)
	// 09:00 in, provisional out 14:15 => remaining 2:45, recommended 11:45... see
	// the summary tests; here only the delegation contract matters.
	sum := renderer.renders[0]
	assert.Equal(t, sum.RecommendedOut, clockout.targets[0])
	assert.Equal(t, time.Date(2026, time.August, 28, 14, 10, 0, 0, time.UTC), clockout.nows[0])

	scheduled := false
	for _, m := range renderer.messages {
		if strings.HasPrefix(m, "Auto-clockout scheduled for") {
			scheduled = true
		}
	}
	assert.True(t, scheduled)
}

func TestNextSchedulesNextTick(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedInPage}, refreshPages: []string{clockedInPage}}
	clockout := &fakeClockout{}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, clockout, renderer, session.CmdNext).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, clockout.targets, 1)
	assert.Equal(t, time.Date(2026, time.August, 28, 14, 15, 0, 0, time.UTC), clockout.targets[0])
}

func TestAutoRejectedWhileClockedOut(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedOutPage}, refreshPages: []string{clockedOutPage}}
	clockout := &fakeClockout{}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, clockout, renderer, session.CmdAuto, session.CmdNext).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, clockout.targets)
	assert.Contains(t, renderer.messages, "Cannot auto-clockout: you have not clocked in.")
}

func TestInvalidScheduleIsAMessageNotAnError(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedInPage}, refreshPages: []string{clockedInPage}}
	clockout := &fakeClockout{err: schedule.ErrInvalidSchedule}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, clockout, renderer, session.CmdAuto).Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, renderer.messages, "Cannot auto-clockout: the requested time has already passed.")
	assert.Equal(t, 2, transport.refreshes, "the loop continues after the rejection")
}

func TestRefreshCommandForcesRelogin(t *testing.T) {
	transport := &fakeTransport{loginPages: []string{clockedOutPage}, refreshPages: []string{clockedOutPage}}
	renderer := &fakeRenderer{}

	err := newOrchestrator(transport, &fakeClockout{}, renderer, session.CmdRefresh).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, transport.logins)
	assert.Equal(t, 2, transport.refreshes)
}

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		token string
		want  session.Command
	}{
		{"in", session.CmdClockIn},
		{"out", session.CmdClockOut},
		{"auto", session.CmdAuto},
		{"next", session.CmdNext},
		{"r", session.CmdRefresh},
		{" in ", session.CmdClockIn},
		{"", session.CmdExit},
		{"quit", session.CmdExit},
		{"IN", session.CmdExit},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, session.ParseCommand(tc.token), "token %q", tc.token)
	}
}

func TestExecuteClassifiesReply(t *testing.T) {
	transport := &fakeTransport{clockReply: "Operation Successful"}
	ok, err := session.Execute(context.Background(), transport, "C1", "E1", session.IntentIn)
	require.NoError(t, err)
	assert.True(t, ok)

	transport.clockReply = "Session timed out"
	ok, err = session.Execute(context.Background(), transport, "C1", "E1", session.IntentOut)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"IN", "OUT"}, transport.clockEvents)
}
