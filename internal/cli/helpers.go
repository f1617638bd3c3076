package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/aretw0/genui/internal/config"
	"github.com/aretw0/genui/internal/logging"
)

// SignalContext is cancelled by SIGINT or SIGTERM and remembers which of the
// two arrived, so the caller can tell an interrupt from a normal exit.
type SignalContext struct {
	context.Context
	cancel context.CancelFunc
	sig    atomic.Pointer[os.Signal]
}

func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			sc.sig.Store(&s)
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Cancel releases the signal handler.
func (sc *SignalContext) Cancel() { sc.cancel() }

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	if p := sc.sig.Load(); p != nil {
		return *p
	}
	return nil
}

// NewLogger builds the process logger from the configuration. Logs go to
// stderr so they never interleave with painted trees on stdout.
func NewLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, logging.Format(cfg.LogFormat)), nil
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ">>> "+fmt.Sprintf(format, args...))
}

// handleExecutionError treats EOF on stdin and cancellation as a clean exit.
func handleExecutionError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func logCompletion(w io.Writer, conversationID string, sig os.Signal) {
	verb := "Bye"
	switch sig {
	case nil:
	case os.Interrupt:
		fmt.Fprintln(w, "[CTRL+C]")
		verb = "Interrupted"
	default:
		fmt.Fprintln(w)
		verb = "Terminated"
	}
	printSystemMessage(w, "%s. Resume with --conversation %s", verb, conversationID)
}
