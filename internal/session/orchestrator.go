// Package session drives the interactive timesheet loop: refresh, parse,
// render, await a command, act, repeat. All collaborators are injected so the
// loop can run against a live portal or a scripted test harness unchanged.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"autoclocker/internal/schedule"
	"autoclocker/internal/timesheet"
)

// Transport is the authenticated portal session capability. Login returns the
// page it lands on; a bad password does not fail here but on the next parse.
type Transport interface {
	Login(ctx context.Context, username, secret string) (pageText string, err error)
	Refresh(ctx context.Context) (pageText string, err error)
	SubmitClockIntent(ctx context.Context, custID, empID, event string) (responseText string, err error)
}

// Clockout schedules a future clock-out for identity. Implemented by
// schedule.Coordinator.
type Clockout interface {
	Schedule(ctx context.Context, target, now time.Time, identity string) (time.Time, error)
}

// Renderer receives the rounded timetable and summary once per iteration,
// plus the loop's user-facing messages.
type Renderer interface {
	Render(tt timesheet.Timetable, sum timesheet.Summary)
	Message(text string)
}

// CommandSource yields one command per iteration. A terminal prompt in
// production, a scripted slice in tests.
type CommandSource interface {
	Next() (Command, error)
}

// Credentials identify the portal user. Secret never appears in logs.
type Credentials struct {
	Username string
	Secret   string
}

// Config is the immutable per-process tuning loaded once at startup.
type Config struct {
	WorkTarget time.Duration
	Resolution time.Duration
}

// Orchestrator owns the session state machine. State is replaced wholesale on
// re-authentication; nothing here is shared across iterations.
type Orchestrator struct {
	cfg       Config
	creds     Credentials
	transport Transport
	clockout  Clockout
	renderer  Renderer
	commands  CommandSource
	logger    *slog.Logger
}

func New(cfg Config, creds Credentials, t Transport, c Clockout, r Renderer, src CommandSource, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		cfg:       cfg,
		creds:     creds,
		transport: t,
		clockout:  c,
		renderer:  r,
		commands:  src,
		logger:    logger,
	}
}

const clockLayout = "03:04 PM"

// Run logs in and iterates until the user exits. The only automatic retry in
// the loop is a single re-login when the parser reports an expired session; a
// second expiry in the same iteration is fatal. Every other failure ends the
// run and is left to the caller.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("logging in", "user", o.creds.Username)
	if _, err := o.transport.Login(ctx, o.creds.Username, o.creds.Secret); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	for {
		page, err := o.transport.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refreshing session: %w", err)
		}

		snap, page, err := o.parseWithReauth(ctx, page)
		if err != nil {
			return err
		}

		tt := timesheet.Build(snap, o.cfg.Resolution)
		sum := timesheet.Summarize(tt, o.cfg.WorkTarget)
		o.renderer.Render(tt, sum)

		cmd, err := o.commands.Next()
		if err != nil {
			return fmt.Errorf("reading command: %w", err)
		}
		o.logger.Debug("dispatching command", "command", cmd.String())

		switch cmd {
		case CmdExit:
			return nil
		case CmdRefresh:
			// Force a fresh login; the next iteration reparses anyway.
			if _, err := o.transport.Login(ctx, o.creds.Username, o.creds.Secret); err != nil {
				return fmt.Errorf("refreshing login: %w", err)
			}
		case CmdClockIn:
			err = o.clock(ctx, page, sum, IntentIn)
		case CmdClockOut:
			err = o.clock(ctx, page, sum, IntentOut)
		case CmdAuto:
			err = o.autoClockout(ctx, sum, sum.RecommendedOut, tt.ServerNow)
		case CmdNext:
			err = o.autoClockout(ctx, sum, sum.NextTickOut, tt.ServerNow)
		}
		if err != nil {
			return err
		}
	}
}

// parseWithReauth parses the page, re-authenticating exactly once if the
// session expired. It returns the page the snapshot came from, since a
// re-login replaces it.
func (o *Orchestrator) parseWithReauth(ctx context.Context, page string) (timesheet.Snapshot, string, error) {
	snap, err := timesheet.Parse(page)
	if !errors.Is(err, timesheet.ErrSessionExpired) {
		return snap, page, err
	}

	o.logger.Info("session expired, reauthenticating")
	o.renderer.Message("Session expired, reauthenticating...")
	fresh, err := o.transport.Login(ctx, o.creds.Username, o.creds.Secret)
	if err != nil {
		return timesheet.Snapshot{}, "", fmt.Errorf("reauthenticating: %w", err)
	}
	snap, err = timesheet.Parse(fresh)
	return snap, fresh, err
}

// clock gates the intent on the current summary and executes it. Rejections
// are messages, not errors; a failed portal reply is reported and the next
// iteration's refresh shows the true state.
func (o *Orchestrator) clock(ctx context.Context, page string, sum timesheet.Summary, intent Intent) error {
	switch {
	case intent == IntentIn && sum.ClockedIn:
		o.renderer.Message("Cannot clock in: you are already clocked in.")
		return nil
	case intent == IntentOut && !sum.ClockedIn:
		o.renderer.Message("Cannot clock out: you are not clocked in.")
		return nil
	}

	custID, empID, err := timesheet.ParseIDs(page)
	if err != nil {
		return fmt.Errorf("extracting clock identifiers: %w", err)
	}

	ok, err := Execute(ctx, o.transport, custID, empID, intent)
	if err != nil {
		return fmt.Errorf("submitting clock event: %w", err)
	}

	verb := "in"
	if intent == IntentOut {
		verb = "out"
	}
	if ok {
		o.logger.Info("clock event accepted", "intent", string(intent))
		o.renderer.Message(fmt.Sprintf("You have clocked %s.", verb))
	} else {
		o.logger.Warn("clock event rejected", "intent", string(intent))
		o.renderer.Message(fmt.Sprintf("Error clocking %s.", verb))
	}
	return nil
}

// autoClockout delegates to the coordinator. A target that is not in the
// future is a user error and stays a message.
func (o *Orchestrator) autoClockout(ctx context.Context, sum timesheet.Summary, target, now time.Time) error {
	if !sum.ClockedIn {
		o.renderer.Message("Cannot auto-clockout: you have not clocked in.")
		return nil
	}

	scheduled, err := o.clockout.Schedule(ctx, target, now, o.creds.Username)
	if errors.Is(err, schedule.ErrInvalidSchedule) {
		o.renderer.Message("Cannot auto-clockout: the requested time has already passed.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scheduling auto-clockout: %w", err)
	}

	o.logger.Info("auto-clockout scheduled", "at", scheduled)
	o.renderer.Message(fmt.Sprintf("Auto-clockout scheduled for %s.",
		scheduled.In(time.Local).Format(clockLayout)))
	return nil
}
