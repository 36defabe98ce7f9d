// Package process detects whether the game is running.
package process

import (
	"context"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	ps "github.com/mitchellh/go-ps"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/mcsync/pkg/errors"
)

//go:generate mockery -name Lister

// Lister reports whether a process is running.
type Lister interface {
	IsRunning(name string) (bool, error)
}

// listProcesses is mocked for unit testing.
var listProcesses = ps.Processes

// Table checks the operating system's process table.
type Table struct{}

// IsRunning returns whether the executable name of any running process
// contains `name`, ignoring case. Launchers name the game differently, such
// as "Minecraft.exe" or "javaw".
func (Table) IsRunning(name string) (bool, error) {
	procs, err := listProcesses()
	if err != nil {
		return false, errors.WithContext(err, "list processes")
	}

	name = strings.ToLower(name)
	for _, proc := range procs {
		if strings.Contains(strings.ToLower(proc.Executable()), name) {
			log.WithFields(log.Fields{
				"pid":        proc.Pid(),
				"executable": proc.Executable(),
			}).Debug("Found game process")
			return true, nil
		}
	}
	return false, nil
}

// Waiter polls a Lister until the game starts or stops.
type Waiter struct {
	lister   Lister
	clock    clockwork.Clock
	name     string
	interval time.Duration
}

// NewWaiter creates a Waiter that checks for `name` every `interval`.
func NewWaiter(lister Lister, clock clockwork.Clock, name string, interval time.Duration) *Waiter {
	return &Waiter{
		lister:   lister,
		clock:    clock,
		name:     name,
		interval: interval,
	}
}

// WaitForStart blocks until the game is running, or `ctx` is cancelled.
func (w *Waiter) WaitForStart(ctx context.Context) error {
	return w.waitFor(ctx, true)
}

// WaitForStop blocks until the game is no longer running, or `ctx` is
// cancelled.
func (w *Waiter) WaitForStop(ctx context.Context) error {
	return w.waitFor(ctx, false)
}

func (w *Waiter) waitFor(ctx context.Context, running bool) error {
	for {
		isRunning, err := w.lister.IsRunning(w.name)
		switch {
		case err != nil:
			// Retry on the next poll.
			log.WithError(err).Warn("Failed to check whether the game is running")
		case isRunning == running:
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(w.interval):
		}
	}
}
