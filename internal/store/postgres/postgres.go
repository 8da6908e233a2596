// Package postgres is the PostgreSQL Store used by the server.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/sealer"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store keeps cases and import runs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	name string
}

// Open connects, verifies the connection and applies migrations.
func Open(ctx context.Context, cfg PoolConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(pool, poolCfg.ConnConfig.Host+"/"+poolCfg.ConnConfig.Database)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. name identifies the registry for import
// serialization.
func New(pool *pgxpool.Pool, name string) *Store {
	return &Store{pool: pool, name: name}
}

// Close closes the pool.
func (s *Store) Close() { s.pool.Close() }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Name implements core.Store.
func (s *Store) Name() string { return "postgres:" + s.name }

// Cases implements core.Store.
func (s *Store) Cases(seal *sealer.Sealer) core.CaseRegistry {
	return &registry{db: s.pool, seal: seal}
}

type registry struct {
	db   DBTX
	seal *sealer.Sealer
}

const caseColumns = `id, entity, register, number, year, case_type, parties, status, status_note,
	received_on, settled_on, due_date, todo_date, created_at, updated_at`

func (r *registry) Get(ctx context.Context, ref core.Reference) (*core.Case, error) {
	row := r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE reference_id = $1`, ref.ID())

	var (
		c                              core.Case
		id                             pgtype.UUID
		register, typ, status, parties string
		received, settled, due, todo   pgtype.Date
	)
	err := row.Scan(&id, &c.Reference.Entity, &register, &c.Reference.Number, &c.Reference.Year,
		&typ, &parties, &status, &c.StatusNote,
		&received, &settled, &due, &todo, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select case: %w", err)
	}

	c.ID = fromPgUUID(id)
	c.Reference.Register = core.Register(register)
	if c.Type, err = core.ParseCaseType(typ); err != nil {
		return nil, err
	}
	if c.Status, err = core.ParseCaseStatus(status); err != nil {
		return nil, err
	}
	if c.Parties, err = r.seal.Open(parties); err != nil {
		return nil, fmt.Errorf("open parties of %s: %w", ref, err)
	}
	c.ReceivedOn = fromPgDate(received)
	c.SettledOn = fromPgDate(settled)
	c.DueDate = fromPgDate(due)
	c.TodoDate = fromPgDate(todo)
	return &c, nil
}

func (r *registry) Create(ctx context.Context, c *core.Case) (*core.Case, error) {
	parties, err := r.seal.Seal(c.Parties)
	if err != nil {
		return nil, fmt.Errorf("seal parties of %s: %w", c.Reference, err)
	}
	out := c.Clone()
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO cases (id, reference_id, entity, register, number, year, case_type, parties,
			status, status_note, received_on, settled_on, due_date, todo_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		toPgUUID(out.ID), c.Reference.ID(), c.Reference.Entity, string(c.Reference.Register),
		c.Reference.Number, c.Reference.Year, string(c.Type), parties,
		string(c.Status), c.StatusNote,
		toPgDate(c.ReceivedOn), toPgDate(c.SettledOn), toPgDate(c.DueDate), toPgDate(c.TodoDate),
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", core.ErrCaseExists, c.Reference)
		}
		return nil, fmt.Errorf("insert case: %w", err)
	}
	return out, nil
}

func (r *registry) Update(ctx context.Context, c *core.Case) (*core.Case, error) {
	parties, err := r.seal.Seal(c.Parties)
	if err != nil {
		return nil, fmt.Errorf("seal parties of %s: %w", c.Reference, err)
	}
	out := c.Clone()

	err = r.db.QueryRow(ctx, `
		UPDATE cases SET case_type = $2, parties = $3, status = $4, status_note = $5,
			received_on = $6, settled_on = $7, due_date = $8, todo_date = $9, updated_at = now()
		WHERE reference_id = $1
		RETURNING updated_at`,
		c.Reference.ID(), string(c.Type), parties, string(c.Status), c.StatusNote,
		toPgDate(c.ReceivedOn), toPgDate(c.SettledOn), toPgDate(c.DueDate), toPgDate(c.TodoDate),
	).Scan(&out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	return out, nil
}

// SaveRun implements core.HistoryStore.
func (s *Store) SaveRun(ctx context.Context, run *core.ImportRun) error {
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO import_runs (id, file_name, format, strategy, import_date, bytes,
			client_ip, user_agent, started_at, duration_ms, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		toPgUUID(run.ID), run.FileName, run.Format, run.Strategy.String(), toPgDate(run.ImportDate),
		run.Bytes, run.ClientIP, run.UserAgent, toPgTimestamptz(run.StartedAt),
		run.Duration.Milliseconds(), report,
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

const runColumns = `id, file_name, format, strategy, import_date, bytes, client_ip, user_agent,
	started_at, duration_ms, report`

// ListRuns implements core.HistoryStore.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM import_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var out []core.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// GetRun implements core.HistoryStore.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*core.ImportRun, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM import_runs WHERE id = $1`, toPgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrImportNotFound
	}
	return run, err
}

// PurgeRuns implements core.HistoryStore.
func (s *Store) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM import_runs WHERE started_at < $1`, toPgTimestamptz(before))
	if err != nil {
		return 0, fmt.Errorf("purge import runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (*core.ImportRun, error) {
	var (
		run        core.ImportRun
		id         pgtype.UUID
		strategy   string
		importDate pgtype.Date
		durationMS int64
		report     []byte
	)
	err := row.Scan(&id, &run.FileName, &run.Format, &strategy, &importDate, &run.Bytes,
		&run.ClientIP, &run.UserAgent, &run.StartedAt, &durationMS, &report)
	if err != nil {
		return nil, err
	}

	run.ID = fromPgUUID(id)
	run.ImportDate = fromPgDate(importDate)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if run.Strategy, err = core.ParseStrategyKind(strategy); err != nil {
		return nil, err
	}
	run.Report = &core.Report{}
	if err := json.Unmarshal(report, run.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	run.Counts = run.Report.Counts()
	return &run, nil
}
