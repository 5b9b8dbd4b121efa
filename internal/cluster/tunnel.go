package cluster

import "fmt"

// TunnelCommand builds the ready-to-copy SSH local-forward command that
// bridges the user's machine to the compute node through the login host.
func (c Context) TunnelCommand(remotePort, localPort int) string {
	login := "<user@login.hostname>"
	if c.User != "" && c.SubmitHost != "" {
		login = c.User + "@" + c.SubmitHost
	}
	return fmt.Sprintf("ssh -N -L %d:%s:%d %s", localPort, c.Hostname, remotePort, login)
}
