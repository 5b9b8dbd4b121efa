//go:build !windows

package session

import (
	"os/exec"
	"syscall"
)

const (
	suspendSignal = syscall.SIGSTOP
	resumeSignal  = syscall.SIGCONT
)

func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// termSignal reports the signal that killed the child, or 0 when it exited
// normally or never ran.
func (t *ExecTarget) termSignal() syscall.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil || t.cmd.ProcessState == nil {
		return 0
	}
	if ws, ok := t.cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ws.Signal()
	}
	return 0
}

// signalGroup delivers sig to the child's process group so grandchildren
// freeze and thaw together with the script.
func (t *ExecTarget) signalGroup(sig syscall.Signal) error {
	pid := t.pid()
	if pid <= 0 {
		return errNotRunning
	}
	return syscall.Kill(-pid, sig)
}
