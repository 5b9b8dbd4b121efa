//go:build !windows

package attach

import "syscall"

// deliver sends the activation signal. Best-effort and idempotent on the
// receiving side; ESRCH or EPERM surface as delivery failure.
func deliver(pid int) error {
	return syscall.Kill(pid, syscall.SIGUSR1)
}
