package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// LocalScheduler registers a one-shot clock-out job with the host's own job
// scheduler: `at` on POSIX systems, schtasks on Windows. The job invokes this
// binary's noninteractive clock-out entry point, so it runs as the invoking
// user and the identity argument is not needed here.
type LocalScheduler struct {
	logger *slog.Logger
}

func NewLocalScheduler(logger *slog.Logger) *LocalScheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LocalScheduler{logger: logger}
}

const clockoutJob = "autoclocker out"

func (s *LocalScheduler) ScheduleAt(ctx context.Context, identity string, delay time.Duration) (time.Time, error) {
	target := time.Now().Add(delay)
	stamp := target.Format("15:04")

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		s.logger.Info("registering Task Scheduler task", "at", stamp)
		cmd = exec.CommandContext(ctx, "schtasks", "/Create", "/F", "/SC", "ONCE",
			"/TN", "autoclocker-out", "/TR", clockoutJob, "/ST", stamp)
	default:
		s.logger.Info("registering at job", "at", stamp)
		cmd = exec.CommandContext(ctx, "at", stamp+" today")
		cmd.Stdin = strings.NewReader(clockoutJob + "\n")
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return time.Time{}, fmt.Errorf("registering clock-out job: %w (%s)",
			err, bytes.TrimSpace(out))
	}
	return target, nil
}
