package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store is the durable session registry shared by every process on the node.
// Implementations must make Register a whole-record replace keyed by PID and
// UpdateState a compare-and-swap that refuses backward transitions, so two
// racing writers can never leave a partially updated row.
type Store interface {
	EnsureSchema(ctx context.Context) error

	// Register adds or overwrites the record for rec.PID.
	Register(ctx context.Context, rec Record) error

	// ListActive returns live records, pruning dead-PID and finished rows as
	// a side effect.
	ListActive(ctx context.Context) ([]Record, error)

	// Resolve finds the single live record matching jobID and/or pid.
	// pid == 0 means "any PID under this job id"; more than one match yields
	// ErrAmbiguous so the caller can offer interactive selection.
	Resolve(ctx context.Context, jobID string, pid int) (Record, error)

	// UpdateState advances the record's state, optionally recording the
	// listener endpoint. A vanished row or a stale transition is logged and
	// ignored: the owning process may have exited, which is an expected race.
	UpdateState(ctx context.Context, pid int, token string, next State, host string, port int) error

	// MarkDone removes the record owned by pid/token.
	MarkDone(ctx context.Context, pid int, token string) error

	Close() error
}

// Config selects and parameterizes a registry backend.
type Config struct {
	// Type is "sqlite" (default) or "postgres".
	Type string `mapstructure:"type"`
	// Path is the sqlite database file; typically on a filesystem shared
	// between login and compute nodes.
	Path string `mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// Open creates the configured backend and ensures its schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "sqlite":
		s, err = NewSQLite(cfg.Path)
	case "postgres", "postgresql":
		s, err = NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported registry type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryWrite, err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrRegistryWrite, err)
	}
	return s, nil
}

// remover is the slice of a backend the shared pruning logic needs.
type remover interface {
	remove(ctx context.Context, pid int) error
}

// filterLive drops records whose process is gone (or whose PID was recycled)
// and deletes them from the backend.
func filterLive(ctx context.Context, rm remover, recs []Record) []Record {
	live := recs[:0]
	for _, r := range recs {
		if r.State == StateDone || !recordAlive(r) {
			if err := rm.remove(ctx, r.PID); err != nil {
				slog.Warn("prune stale session", "pid", r.PID, "err", err)
			}
			continue
		}
		live = append(live, r)
	}
	return live
}

// resolveIn applies the Resolve contract to an already live-filtered slice.
func resolveIn(recs []Record, jobID string, pid int) (Record, error) {
	var matches []Record
	for _, r := range recs {
		if pid != 0 && r.PID != pid {
			continue
		}
		if jobID != "" && r.JobID != jobID {
			continue
		}
		matches = append(matches, r)
	}
	switch {
	case len(matches) == 0:
		return Record{}, ErrNotFound
	case len(matches) > 1:
		return Record{}, fmt.Errorf("%w: %d live sessions", ErrAmbiguous, len(matches))
	}
	return matches[0], nil
}

// recordAlive probes the record's PID and, where the platform supports it,
// verifies the process identity bound at registration time so a recycled PID
// is not mistaken for the original session.
func recordAlive(r Record) bool {
	if !pidAlive(r.PID) {
		return false
	}
	if r.StartTicks != 0 {
		if ticks := startTicks(r.PID); ticks != 0 && ticks != r.StartTicks {
			return false
		}
	}
	return true
}
