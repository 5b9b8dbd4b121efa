// Package attach is the delivery side of the activation protocol: resolve a
// job/PID pair to a live session record and send the activation signal to the
// recorded PID. It never waits for the transition; the user confirms success
// by watching the target job's own output.
package attach

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/loykin/rdebug/internal/registry"
)

var (
	// ErrAlreadyActive reports that the session is past ARMED. Informational:
	// the listener is already up and repeating the request changes nothing.
	ErrAlreadyActive = errors.New("session is already listening or attached")

	// ErrDelivery means the activation request could not reach the target
	// process.
	ErrDelivery = errors.New("job no longer active")
)

// Result reports what Attach resolved and whether the request went out.
type Result struct {
	Record    registry.Record
	Delivered bool
}

// Attach resolves exactly one armed session and delivers the activation
// request. jobID may be empty (resolve by PID), pid may be zero (resolve by
// job id); both empty is the caller's cue to run interactive selection first.
func Attach(ctx context.Context, reg registry.Store, jobID string, pid int) (Result, error) {
	rec, err := resolve(ctx, reg, jobID, pid)
	if err != nil {
		return Result{}, err
	}
	if rec.State != registry.StateArmed {
		return Result{Record: rec},
			fmt.Errorf("%w (%s, state %s)", ErrAlreadyActive, rec.Key(), rec.State)
	}
	if err := deliver(rec.PID); err != nil {
		return Result{Record: rec}, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return Result{Record: rec, Delivered: true}, nil
}

// resolve wraps registry resolution with one convenience: a purely numeric
// "job id" that matches nothing is retried as a PID, so sessions launched
// outside a scheduler can be addressed by their printed PID alone.
func resolve(ctx context.Context, reg registry.Store, jobID string, pid int) (registry.Record, error) {
	rec, err := reg.Resolve(ctx, jobID, pid)
	if errors.Is(err, registry.ErrNotFound) && pid == 0 && jobID != "" {
		if asPID, convErr := strconv.Atoi(jobID); convErr == nil && asPID > 0 {
			if rec2, err2 := reg.Resolve(ctx, "", asPID); err2 == nil {
				return rec2, nil
			}
		}
	}
	return rec, err
}
