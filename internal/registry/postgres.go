package registry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres backs the registry with a shared database for clusters whose
// nodes do not share a filesystem. Same contract as SQLite.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("empty postgres dsn")
	}
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(4)
	d.SetConnMaxLifetime(5 * time.Minute)
	return &Postgres{db: d}, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS debug_session(
			pid INTEGER PRIMARY KEY,
			job_id TEXT NOT NULL DEFAULT '',
			token TEXT NOT NULL,
			start_ticks BIGINT NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			host TEXT NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			workdir TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_debug_session_job ON debug_session(job_id);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Register(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO debug_session(pid, job_id, token, start_ticks, state, host, port, workdir, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
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

func (p *Postgres) all(ctx context.Context) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
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

func (p *Postgres) remove(ctx context.Context, pid int) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM debug_session WHERE pid=$1;`, pid)
	return err
}

func (p *Postgres) ListActive(ctx context.Context) ([]Record, error) {
	recs, err := p.all(ctx)
	if err != nil {
		return nil, err
	}
	return filterLive(ctx, p, recs), nil
}

func (p *Postgres) Resolve(ctx context.Context, jobID string, pid int) (Record, error) {
	recs, err := p.ListActive(ctx)
	if err != nil {
		return Record{}, err
	}
	return resolveIn(recs, jobID, pid)
}

func (p *Postgres) UpdateState(ctx context.Context, pid int, token string, next State, host string, port int) error {
	var (
		res sql.Result
		err error
	)
	prior := priorStatesSQL(next)
	if port > 0 {
		res, err = p.db.ExecContext(ctx, `
			UPDATE debug_session SET state=$1, host=$2, port=$3, updated_at=$4
			WHERE pid=$5 AND token=$6 AND state IN (`+prior+`);`,
			string(next), host, port, time.Now().UTC(), pid, token)
	} else {
		res, err = p.db.ExecContext(ctx, `
			UPDATE debug_session SET state=$1, updated_at=$2
			WHERE pid=$3 AND token=$4 AND state IN (`+prior+`);`,
			string(next), time.Now().UTC(), pid, token)
	}
	if err != nil {
		return errors.Join(ErrRegistryWrite, err)
	}
	logSkippedUpdate(res, pid, next)
	return nil
}

func (p *Postgres) MarkDone(ctx context.Context, pid int, token string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM debug_session WHERE pid=$1 AND token=$2;`, pid, token)
	return err
}
