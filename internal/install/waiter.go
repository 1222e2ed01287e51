package install

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/hawkra/hawkra/internal/docker"
	"github.com/hawkra/hawkra/internal/logging"
)

// Outcome is the terminal state of a readiness wait.
type Outcome int

const (
	// OutcomeReady means the generated admin credential appeared in the
	// application logs.
	OutcomeReady Outcome = iota
	// OutcomeTimedOut means the bound elapsed first. A slow-starting service
	// is not an error; the operator is told to check back later.
	OutcomeTimedOut
	// OutcomeCrashed means the container reached a dead lifecycle state
	// during the wait. This is fatal, unlike a timeout.
	OutcomeCrashed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// WaitResult carries the outcome plus whatever the wait observed.
type WaitResult struct {
	Outcome    Outcome
	Credential string
	Elapsed    time.Duration
	Logs       string // recent logs, populated on crash
}

// adminCredentialPattern matches the one-time credential line the server
// prints on first boot.
var adminCredentialPattern = regexp.MustCompile(`Generated admin password: (\S+)`)

// Waiter polls a container until it is ready, crashed, or the bound elapses.
type Waiter struct {
	Runtime   docker.Runtime
	Container string
	Timeout   time.Duration
	Interval  time.Duration

	logger *logging.Logger
}

// NewWaiter builds a readiness waiter for the named container.
func NewWaiter(rt docker.Runtime, container string, timeout, interval time.Duration) *Waiter {
	return &Waiter{
		Runtime:   rt,
		Container: container,
		Timeout:   timeout,
		Interval:  interval,
		logger:    logging.GetLogger(),
	}
}

// Wait polls until a terminal state is reached. The crash check runs before
// the timeout check, so a container that dies early aborts the wait
// immediately instead of burning the rest of the bound.
func (w *Waiter) Wait(ctx context.Context) (*WaitResult, error) {
	if w.logger == nil {
		w.logger = logging.GetLogger()
	}

	start := time.Now()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		state, err := w.Runtime.ContainerState(ctx, w.Container)
		switch {
		case errors.Is(err, docker.ErrNotFound):
			// The container may not be registered yet right after start.
			w.logger.Debug("Container %s not found yet", w.Container)
		case err != nil:
			w.logger.Warn("Failed to check container state: %v", err)
		case state == docker.StateExited || state == docker.StateDead:
			logs, lerr := w.Runtime.ContainerLogs(ctx, w.Container, "50")
			if lerr != nil {
				w.logger.Warn("Failed to fetch logs of crashed container: %v", lerr)
			}
			return &WaitResult{
				Outcome: OutcomeCrashed,
				Elapsed: time.Since(start),
				Logs:    logs,
			}, nil
		}

		if err == nil {
			logs, lerr := w.Runtime.ContainerLogs(ctx, w.Container, "400")
			if lerr != nil {
				w.logger.Warn("Failed to read container logs: %v", lerr)
			} else if m := adminCredentialPattern.FindStringSubmatch(logs); m != nil {
				return &WaitResult{
					Outcome:    OutcomeReady,
					Credential: m[1],
					Elapsed:    time.Since(start),
				}, nil
			}
		}

		elapsed := time.Since(start)
		if elapsed >= w.Timeout {
			return &WaitResult{
				Outcome: OutcomeTimedOut,
				Elapsed: elapsed,
			}, nil
		}

		w.logger.Info("Waiting for %s to come up... (%ds elapsed)", w.Container, int(elapsed.Seconds()))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
