//go:build windows

package session

import (
	"errors"
	"os/exec"
	"syscall"
)

const (
	suspendSignal = syscall.Signal(0)
	resumeSignal  = syscall.Signal(0)
)

func setSysProcAttr(cmd *exec.Cmd) {}

func (t *ExecTarget) termSignal() syscall.Signal { return 0 }

func (t *ExecTarget) signalGroup(sig syscall.Signal) error {
	return errors.New("target suspension not supported on windows")
}
