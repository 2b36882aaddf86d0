// Package schedule turns a clock-out instant into a delayed job on whichever
// scheduler capability the process was configured with: the host's own job
// scheduler or the remote autoclocker service.
package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// ErrInvalidSchedule means the requested clock-out instant is not in the
// future relative to the supplied now.
var ErrInvalidSchedule = errors.New("scheduled clock-out must be in the future")

// Backend fires a clock-out for identity after delay and reports the instant
// it actually scheduled. Local OS jobs and the remote service both satisfy it.
type Backend interface {
	ScheduleAt(ctx context.Context, identity string, delay time.Duration) (time.Time, error)
}

// Coordinator validates a requested clock-out and delegates to its backend.
// It holds no knowledge of scheduler mechanics.
type Coordinator struct {
	backend Backend
	logger  *slog.Logger
}

func NewCoordinator(backend Backend, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{backend: backend, logger: logger}
}

// Schedule computes the delay from now to target and hands it to the backend.
// A non-positive delay fails fast without touching the backend.
func (c *Coordinator) Schedule(ctx context.Context, target, now time.Time, identity string) (time.Time, error) {
	delta := target.Sub(now)
	if delta <= 0 {
		return time.Time{}, ErrInvalidSchedule
	}
	c.logger.Debug("scheduling clock-out", "target", target, "delay", delta)
	return c.backend.ScheduleAt(ctx, identity, delta)
}
