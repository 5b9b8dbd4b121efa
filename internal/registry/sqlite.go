package registry

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the default registry backend (modernc.org/sqlite, CGO-free).
// The database file lives on a filesystem shared by login and compute nodes,
// so independent CLI invocations and running jobs all see the same table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the registry database at path.
func NewSQLite(path string) (*SQLite, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// Single connection; sqlite serializes writers anyway and this avoids
	// SQLITE_BUSY churn between the launcher and attach invocations.
	d.SetMaxOpenConns(1)
	_, _ = d.Exec("PRAGMA journal_mode=WAL;")
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &SQLite{db: d}, nil
}

func (s *SQLite) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS debug_session(
			pid INTEGER PRIMARY KEY,
			job_id TEXT NOT NULL DEFAULT '',
			token TEXT NOT NULL,
			start_ticks INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			host TEXT NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			workdir TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_debug_session_job ON debug_session(job_id);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Register(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debug_session(pid, job_id, token, start_ticks, state, host, port, workdir, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pid) DO UPDATE SET
			job_id=excluded.job_id,
			token=excluded.token,
			start_ticks=excluded.start_ticks,
			state=excluded.state,
			host=excluded.host,
			port=excluded.port,
			workdir=excluded.workdir,
			created_at=excluded.created_at,
			updated_at=excluded.updated_at;`,
		rec.PID, rec.JobID, rec.Token, rec.StartTicks, string(rec.State),
		rec.Host, rec.Port, rec.WorkDir, rec.CreatedAt, now)
	if err != nil {
		return errors.Join(ErrRegistryWrite, err)
	}
	return nil
}

func (s *SQLite) all(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pid, job_id, token, start_ticks, state, host, port, workdir, created_at, updated_at
		FROM debug_session ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		var r Record
		var st string
		if err := rows.Scan(&r.PID, &r.JobID, &r.Token, &r.StartTicks, &st,
			&r.Host, &r.Port, &r.WorkDir, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.State = State(st)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) remove(ctx context.Context, pid int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM debug_session WHERE pid=?;`, pid)
	return err
}

func (s *SQLite) ListActive(ctx context.Context) ([]Record, error) {
	recs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return filterLive(ctx, s, recs), nil
}

func (s *SQLite) Resolve(ctx context.Context, jobID string, pid int) (Record, error) {
	recs, err := s.ListActive(ctx)
	if err != nil {
		return Record{}, err
	}
	return resolveIn(recs, jobID, pid)
}

func (s *SQLite) UpdateState(ctx context.Context, pid int, token string, next State, host string, port int) error {
	var (
		res sql.Result
		err error
	)
	prior := priorStatesSQL(next)
	if port > 0 {
		res, err = s.db.ExecContext(ctx, `
			UPDATE debug_session SET state=?, host=?, port=?, updated_at=?
			WHERE pid=? AND token=? AND state IN (`+prior+`);`,
			string(next), host, port, time.Now().UTC(), pid, token)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE debug_session SET state=?, updated_at=?
			WHERE pid=? AND token=? AND state IN (`+prior+`);`,
			string(next), time.Now().UTC(), pid, token)
	}
	if err != nil {
		return errors.Join(ErrRegistryWrite, err)
	}
	logSkippedUpdate(res, pid, next)
	return nil
}

func (s *SQLite) MarkDone(ctx context.Context, pid int, token string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM debug_session WHERE pid=? AND token=?;`, pid, token)
	return err
}

// priorStatesSQL builds the quoted IN-list of states allowed to advance to
// next. State names are internal constants, never user input.
func priorStatesSQL(next State) string {
	var quoted []string
	for _, s := range []State{StateArmed, StateListening, StateAttached, StateDone} {
		if s.CanAdvanceTo(next) {
			quoted = append(quoted, "'"+string(s)+"'")
		}
	}
	return strings.Join(quoted, ",")
}

// logSkippedUpdate notes a CAS miss. The row was removed or already past
// next: both are expected when attach races with job completion.
func logSkippedUpdate(res sql.Result, pid int, next State) {
	if res == nil {
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.Debug("session state update skipped", "pid", pid, "state", next.String())
	}
}
