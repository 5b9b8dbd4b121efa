// Package session orchestrates one instrumented run of a target script: it
// registers the session in the job registry, decides when the debug listener
// starts (immediately, on an activation signal, or on failure), and keeps the
// registry record's state machine moving forward until the run ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/loykin/rdebug/internal/cluster"
	"github.com/loykin/rdebug/internal/listener"
	"github.com/loykin/rdebug/internal/registry"
)

// Launcher wraps a single target execution. Zero-value fields get sensible
// defaults in Launch; Registry is required.
type Launcher struct {
	Registry registry.Store
	Listener listener.Listener
	Cluster  cluster.Context
	Out      io.Writer
	Log      *slog.Logger
	// LocalPort is the suggested local end of the SSH tunnel in printed
	// instructions.
	LocalPort int

	rec    registry.Record
	armed  atomic.Bool
	target Target
}

// Launch registers the session, runs target under the given mode, and
// deregisters on the way out, abnormal termination included. The returned
// int is the exit code the wrapping CLI should terminate with.
func (l *Launcher) Launch(ctx context.Context, target Target, mode Mode) (int, error) {
	if l.Registry == nil {
		return 1, errors.New("launcher needs a registry")
	}
	if l.Out == nil {
		l.Out = os.Stdout
	}
	if l.Log == nil {
		l.Log = slog.Default()
	}
	if l.Listener == nil {
		l.Listener = &listener.TCP{PreferredPort: cluster.DefaultDebugPort}
	}
	if l.LocalPort == 0 {
		l.LocalPort = cluster.DefaultLocalPort
	}
	l.target = target
	l.rec = registry.Record{
		JobID:      l.Cluster.JobID,
		PID:        os.Getpid(),
		Token:      uuid.NewString(),
		StartTicks: registry.SelfStartTicks(),
		State:      registry.StateArmed,
		WorkDir:    l.Cluster.WorkDir,
	}
	// The handler must be live before the record is visible: an attach could
	// otherwise resolve the session and signal a process that is not yet
	// listening for the activation signal.
	l.armed.Store(true)
	if mode.Has(Lite) && !mode.Has(Immediate) {
		stop, err := l.installActivationHandler(ctx)
		if err != nil {
			return 1, err
		}
		defer stop()
	}
	if err := l.Registry.Register(ctx, l.rec); err != nil {
		return 1, fmt.Errorf("register debug session: %w", err)
	}
	// Deregister runs even when the guard re-raises a panic; a fresh context
	// because ctx may already be canceled by then.
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Registry.MarkDone(dctx, l.rec.PID, l.rec.Token); err != nil {
			l.Log.Warn("deregister debug session", "pid", l.rec.PID, "err", err)
		}
		_ = l.Listener.Close()
	}()

	switch {
	case mode.Has(Immediate):
		if err := l.Activate(ctx); err != nil {
			return 1, err
		}
	case mode.Has(Lite):
		l.printArmed()
	}

	run := target.Run
	if mode.Has(PostMortem) {
		run = l.guard(run)
	}
	err := run(ctx)
	return exitCode(target, err), err
}

// Activate performs the ARMED -> LISTENING -> ATTACHED transition: freeze the
// target where it stands, start the listener, publish the endpoint, and block
// until a client attaches. Only the first call acts; later calls (repeated
// signals, post-mortem after a lite activation) are no-ops, which is what
// makes activation idempotent.
func (l *Launcher) Activate(ctx context.Context) error {
	if !l.armed.CompareAndSwap(true, false) {
		return nil
	}
	host, port, err := l.Listener.Listen(ctx)
	if err != nil {
		// Bind failure leaves the session armed so a later signal can retry;
		// the registry record is untouched.
		l.armed.Store(true)
		l.Log.Error("debug listener bind failed", "err", err)
		return err
	}
	suspended := false
	if s, ok := l.target.(Suspender); ok {
		switch err := s.Suspend(); {
		case err == nil:
			suspended = true
		case !errors.Is(err, errNotRunning):
			l.Log.Warn("suspend target", "err", err)
		}
	}
	defer func() {
		if suspended {
			if err := l.target.(Suspender).Resume(); err != nil {
				l.Log.Warn("resume target", "err", err)
			}
		}
	}()

	if err := l.Registry.UpdateState(ctx, l.rec.PID, l.rec.Token,
		registry.StateListening, host, port); err != nil {
		l.Log.Warn("record listener endpoint", "err", err)
	}
	l.printConnectionInfo(host, port)
	if err := l.Listener.WaitForAttach(ctx); err != nil {
		return fmt.Errorf("wait for debugger: %w", err)
	}
	if err := l.Registry.UpdateState(ctx, l.rec.PID, l.rec.Token,
		registry.StateAttached, host, port); err != nil {
		l.Log.Warn("record attach", "err", err)
	}
	fmt.Fprintln(l.Out, "[DEBUGGER] Debugger attached! Resuming execution.")
	return nil
}

// Record returns a copy of the session's registry record as registered.
func (l *Launcher) Record() registry.Record { return l.rec }

func exitCode(target Target, err error) int {
	if et, ok := target.(*ExecTarget); ok {
		if code := et.ExitCode(); code >= 0 {
			return code
		}
		// Shell convention the scheduler understands for a signaled child.
		if sig := et.termSignal(); sig > 0 {
			return 128 + int(sig)
		}
	}
	if err != nil {
		return 1
	}
	return 0
}
