package registry

import (
	"errors"
	"fmt"
	"time"
)

// State is the debug-session lifecycle state. It only moves forward:
// Armed -> Listening -> Attached -> Done.
type State string

const (
	StateArmed     State = "armed"
	StateListening State = "listening"
	StateAttached  State = "attached"
	StateDone      State = "done"
)

// rank orders states for monotonic-transition checks. Unknown states rank
// below Armed so a corrupted row can never win a compare-and-swap.
func (s State) rank() int {
	switch s {
	case StateArmed:
		return 1
	case StateListening:
		return 2
	case StateAttached:
		return 3
	case StateDone:
		return 4
	}
	return 0
}

// CanAdvanceTo reports whether moving from s to next keeps the state machine
// monotonic. Re-asserting the current state is allowed (idempotent updates).
func (s State) CanAdvanceTo(next State) bool {
	return next.rank() >= s.rank() && next.rank() > 0
}

func (s State) String() string { return string(s) }

// Record is one tracked debug session. A record is owned by the process whose
// PID it carries; other processes only read it and request transitions via
// the activation signal.
type Record struct {
	JobID      string    `json:"job_id,omitempty"`
	PID        int       `json:"pid"`
	Token      string    `json:"token"`
	StartTicks int64     `json:"start_ticks,omitempty"`
	State      State     `json:"state"`
	Host       string    `json:"host,omitempty"`
	Port       int       `json:"port,omitempty"`
	WorkDir    string    `json:"workdir,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key returns the human-facing identifier used in messages and selection
// lists: the job id when the scheduler provided one, otherwise the PID.
func (r Record) Key() string {
	if r.JobID != "" {
		return r.JobID
	}
	return fmt.Sprintf("pid:%d", r.PID)
}

var (
	// ErrRegistryWrite means the backing store could not be written. Fatal to
	// the launching process: an untracked session cannot be attached to.
	ErrRegistryWrite = errors.New("registry not writable")

	// ErrNotFound means no live record matched the requested job/PID.
	ErrNotFound = errors.New("no matching debug session")

	// ErrAmbiguous means a job id matched more than one live PID and no PID
	// was given to disambiguate.
	ErrAmbiguous = errors.New("multiple sessions match job id")
)
