package session

import "fmt"

func (l *Launcher) printConnectionInfo(host string, port int) {
	fmt.Fprintln(l.Out, "--- Debugger Info ---------------------------")
	fmt.Fprintf(l.Out, "Node:        %s\n", host)
	fmt.Fprintf(l.Out, "Port:        %d\n", port)
	fmt.Fprintf(l.Out, "Remote Path: %s\n", l.rec.WorkDir)
	fmt.Fprintln(l.Out, "---------------------------------------------")
	fmt.Fprintln(l.Out, "To connect from your local machine, run:")
	fmt.Fprintf(l.Out, "  %s\n", l.Cluster.TunnelCommand(port, l.LocalPort))
	fmt.Fprintf(l.Out, "Then attach your debugger to localhost:%d.\n", l.LocalPort)
	fmt.Fprintln(l.Out, "[DEBUGGER] Waiting for a client to attach...")
}

func (l *Launcher) printArmed() {
	fmt.Fprintf(l.Out, "[DEBUGGER] Session armed (job %s, pid %d); the script runs unimpeded.\n",
		orDash(l.rec.JobID), l.rec.PID)
	if l.rec.JobID != "" {
		fmt.Fprintf(l.Out, "[DEBUGGER] Activate any time with: rdebug attach %s %d\n",
			l.rec.JobID, l.rec.PID)
	} else {
		fmt.Fprintf(l.Out, "[DEBUGGER] Activate any time with: rdebug attach %d\n", l.rec.PID)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
