// Package cluster detects the scheduler and network context a debug session
// runs in: the job id assigned by SLURM, the compute node's hostname, and the
// login host a user must tunnel through to reach it.
package cluster

import (
	"net"
	"os"
	"strings"
)

// Context describes where the current process runs.
type Context struct {
	JobID      string // SLURM job id; empty outside a scheduler
	User       string
	SubmitHost string // login/submit host, FQDN-expanded when resolvable
	Hostname   string // this node
	WorkDir    string
}

// Detect reads the scheduler environment. Every field degrades gracefully:
// outside SLURM the job id is empty and sessions are keyed by PID alone.
func Detect() Context {
	host, _ := os.Hostname()
	wd, _ := os.Getwd()
	user := os.Getenv("SLURM_JOB_USER")
	if user == "" {
		user = os.Getenv("USER")
	}
	return Context{
		JobID:      os.Getenv("SLURM_JOB_ID"),
		User:       user,
		SubmitHost: expandSubmitHost(os.Getenv("SLURM_SUBMIT_HOST")),
		Hostname:   host,
		WorkDir:    wd,
	}
}

// expandSubmitHost resolves the short submit-host name to an FQDN. Some
// resolvers answer "<short>.<short>.domain" for cluster-internal names; trim
// the doubled prefix in that case.
func expandSubmitHost(short string) string {
	if short == "" {
		return ""
	}
	names, err := net.LookupAddr(lookupHostFirst(short))
	if err == nil && len(names) > 0 {
		fqdn := strings.TrimSuffix(names[0], ".")
		if strings.HasPrefix(fqdn, short+"."+short) {
			fqdn = fqdn[len(short)+1:]
		}
		return fqdn
	}
	return short
}

func lookupHostFirst(host string) string {
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return host
	}
	return addrs[0]
}
