// Package rdebug lets a process running on a remote compute node be debugged
// from a local machine. The CLI wraps whole script invocations; this package
// is the embedding surface for Go programs that want to open a debug listener
// mid-run.
package rdebug

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/loykin/rdebug/internal/cluster"
	"github.com/loykin/rdebug/internal/config"
	"github.com/loykin/rdebug/internal/listener"
	"github.com/loykin/rdebug/internal/registry"
	"github.com/loykin/rdebug/internal/session"
)

// Re-export core types so embedders never import internal packages.

type (
	Mode     = session.Mode
	Target   = session.Target
	Launcher = session.Launcher
	Record   = registry.Record
	State    = registry.State
)

const (
	Immediate  = session.Immediate
	Lite       = session.Lite
	PostMortem = session.PostMortem
)

// FuncTarget adapts an in-process body for Launch.
func FuncTarget(fn func(ctx context.Context) error) Target { return session.FuncTarget(fn) }

// NewLauncher builds a Launcher backed by the configured session registry and
// the detected scheduler context. The caller owns the returned launcher for a
// single Launch.
func NewLauncher() (*Launcher, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	st, err := registry.Open(context.Background(), cfg.Registry)
	if err != nil {
		return nil, err
	}
	return &Launcher{
		Registry:  st,
		Cluster:   cluster.Detect(),
		Listener:  &listener.TCP{PreferredPort: cfg.DebugPort},
		LocalPort: cfg.LocalPort,
	}, nil
}

// Info is the connection metadata printed for the user.
type Info struct {
	Hostname   string
	Port       int
	RemotePath string
}

// Package-level debugger state for the StartDebugger/Pause pair. Starting is
// irreversible for a process, so one listener is all there ever is.
var (
	mu      sync.Mutex
	started bool
	srv     *listener.TCP
	info    Info
	reg     registry.Store
	rec     registry.Record
	cctx    cluster.Context
)

// StartDebugger opens the debug listener, registers the session, and prints
// connection instructions. With wait true it blocks until a client attaches;
// with wait false the program keeps running and can call Pause later.
// Calling it again is a no-op that reports the existing endpoint.
func StartDebugger(wait bool) (Info, error) {
	mu.Lock()
	if started {
		fmt.Printf("[DEBUGGER] Already started on %s:%d\n", info.Hostname, info.Port)
		mu.Unlock()
		if wait {
			if err := Pause(); err != nil {
				return info, err
			}
		}
		return info, nil
	}

	ctx := context.Background()
	cfg, err := config.Load("")
	if err != nil {
		mu.Unlock()
		return Info{}, err
	}
	cctx = cluster.Detect()
	srv = &listener.TCP{PreferredPort: cfg.DebugPort}
	host, port, err := srv.Listen(ctx)
	if err != nil {
		srv = nil
		mu.Unlock()
		return Info{}, fmt.Errorf("start debug listener: %w", err)
	}

	rec = registry.Record{
		JobID:      cctx.JobID,
		PID:        os.Getpid(),
		Token:      uuid.NewString(),
		StartTicks: registry.SelfStartTicks(),
		State:      registry.StateListening,
		Host:       host,
		Port:       port,
		WorkDir:    cctx.WorkDir,
	}
	reg, err = registry.Open(ctx, cfg.Registry)
	if err != nil {
		_ = srv.Close()
		srv = nil
		mu.Unlock()
		return Info{}, err
	}
	if err := reg.Register(ctx, rec); err != nil {
		_ = srv.Close()
		srv = nil
		mu.Unlock()
		return Info{}, err
	}

	started = true
	info = Info{Hostname: host, Port: port, RemotePath: cctx.WorkDir}
	printInfo(cfg, host, port)
	mu.Unlock()

	if wait {
		if err := Pause(); err != nil {
			return info, err
		}
	}
	return info, nil
}

// Pause blocks until a debugger client attaches to the listener opened by
// StartDebugger.
func Pause() error {
	mu.Lock()
	s, r := srv, reg
	mu.Unlock()
	if s == nil {
		return errors.New("debugger not started; call StartDebugger first")
	}
	fmt.Println("[DEBUGGER] Pausing execution. Attach your debugger now.")
	if err := s.WaitForAttach(context.Background()); err != nil {
		return fmt.Errorf("wait for debugger: %w", err)
	}
	if r != nil {
		mu.Lock()
		_ = r.UpdateState(context.Background(), rec.PID, rec.Token,
			registry.StateAttached, rec.Host, rec.Port)
		mu.Unlock()
	}
	fmt.Println("[DEBUGGER] Debugger attached! Resuming execution.")
	return nil
}

func printInfo(cfg config.Config, host string, port int) {
	fmt.Println("--- Debugger Info ---------------------------")
	fmt.Printf("Node:        %s\n", host)
	fmt.Printf("Port:        %d\n", port)
	fmt.Printf("Remote Path: %s\n", cctx.WorkDir)
	fmt.Println("---------------------------------------------")
	fmt.Println("To connect from your local machine, run:")
	fmt.Printf("  %s\n", cctx.TunnelCommand(port, cfg.LocalPort))
	fmt.Printf("Then attach your debugger to localhost:%d.\n", cfg.LocalPort)
}
