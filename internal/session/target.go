package session

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Target is the wrapped script invocation. Run blocks until the script
// finishes and returns its failure, if any.
type Target interface {
	Run(ctx context.Context) error
}

// Suspender is implemented by targets that can be frozen at their current
// execution point while the listener waits for a client, then resumed.
type Suspender interface {
	Suspend() error
	Resume() error
}

// ExecTarget runs the script as a child process in its own process group, so
// suspension reaches the whole script including its own children.
type ExecTarget struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (t *ExecTarget) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, t.Path, t.Args...)
	cmd.Dir = t.Dir
	if len(t.Env) > 0 {
		cmd.Env = t.Env
	}
	cmd.Stdout = t.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = t.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Stdin = t.Stdin
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return err
	}
	t.mu.Lock()
	t.cmd = cmd
	t.mu.Unlock()
	return cmd.Wait()
}

// ExitCode maps the child's termination to the code the CLI should exit
// with. -1 means the child never ran or was killed by a signal.
func (t *ExecTarget) ExitCode() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil || t.cmd.ProcessState == nil {
		return -1
	}
	return t.cmd.ProcessState.ExitCode()
}

func (t *ExecTarget) pid() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}

var errNotRunning = errors.New("target not running")

func (t *ExecTarget) Suspend() error { return t.signalGroup(suspendSignal) }
func (t *ExecTarget) Resume() error  { return t.signalGroup(resumeSignal) }

// FuncTarget wraps an in-process body, for embedding the launcher inside a
// Go program instead of wrapping a child process.
type FuncTarget func(ctx context.Context) error

func (f FuncTarget) Run(ctx context.Context) error { return f(ctx) }
