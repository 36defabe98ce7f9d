package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/mcsync/pkg/errors"
)

// Mocked for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError handles errors that are severe enough to terminate the
// program. A user declining to continue isn't a failure, so it exits cleanly.
func HandleFatalError(err error) {
	if errors.Is(err, errors.ErrUserAbort) {
		log.WithError(err).Debug("Aborted by user")
		exit(0)
		return
	}

	var gateErr errors.PresenceGateError
	if errors.As(err, &gateErr) {
		fmt.Fprintln(stderr, goterm.Color(gateErr.FriendlyMessage(), goterm.YELLOW))
		exit(1)
		return
	}

	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(stderr, goterm.Color(errors.GetPrintableMessage(err), goterm.RED))
	exit(1)
}

// HandlePanic logs the stacktrace of a panic before crashing. It should be
// deferred at the top of every goroutine.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Panic: %v", r)
		fmt.Fprintln(stderr, goterm.Color(
			"mcsync crashed unexpectedly. Your world may not have been synced. "+
				"Please run with MCSYNC_LOG_VERBOSE=true and report the output.",
			goterm.RED))
		exit(2)
	}
}

// SignalContext returns a context that's cancelled when the user interrupts
// the process.
func SignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer HandlePanic()
		select {
		case <-sigs:
			log.Info("Interrupted. Stopping")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}
