//go:build !windows

package registry

import (
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidAlive checks process existence with a null signal.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}

// startTicks returns the kernel start time of pid from /proc, or 0 when the
// platform has no procfs. Field 22 of /proc/<pid>/stat; the comm field may
// contain spaces, so parse from the closing paren.
func startTicks(pid int) int64 {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0
	}
	s := string(b)
	i := strings.LastIndexByte(s, ')')
	if i < 0 {
		return 0
	}
	fields := strings.Fields(s[i+1:])
	// fields[0] is state (field 3); start time is field 22.
	if len(fields) < 20 {
		return 0
	}
	v, err := strconv.ParseInt(fields[19], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// SelfStartTicks is the identity value a launching process binds into its own
// record at registration time.
func SelfStartTicks() int64 { return startTicks(os.Getpid()) }
