// Package sqlite is the single-file Store used by the docket CLI.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/sealer"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps cases and import runs in a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Name implements core.Store.
func (s *Store) Name() string {
	if abs, err := filepath.Abs(s.path); err == nil {
		return "sqlite:" + abs
	}
	return "sqlite:" + s.path
}

// Cases implements core.Store.
func (s *Store) Cases(seal *sealer.Sealer) core.CaseRegistry {
	return &registry{db: s.db, seal: seal}
}

type registry struct {
	db   *sql.DB
	seal *sealer.Sealer
}

const caseColumns = `id, entity, register, number, year, case_type, parties, status, status_note,
	received_on, settled_on, due_date, todo_date, created_at, updated_at`

func (r *registry) Get(ctx context.Context, ref core.Reference) (*core.Case, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE reference_id = ?`, ref.ID())

	var (
		c                                  core.Case
		id, register, typ, status, parties string
		received, settled, due, todo       sql.NullString
		createdAt, updatedAt               string
	)
	err := row.Scan(&id, &c.Reference.Entity, &register, &c.Reference.Number, &c.Reference.Year,
		&typ, &parties, &status, &c.StatusNote,
		&received, &settled, &due, &todo, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select case: %w", err)
	}

	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("case id: %w", err)
	}
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
	for _, d := range []struct {
		dst *civil.Date
		src sql.NullString
	}{
		{&c.ReceivedOn, received},
		{&c.SettledOn, settled},
		{&c.DueDate, due},
		{&c.TodoDate, todo},
	} {
		if *d.dst, err = fromDate(d.src); err != nil {
			return nil, err
		}
	}
	c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	c.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
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
	now := time.Now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cases (id, reference_id, entity, register, number, year, case_type, parties,
			status, status_note, received_on, settled_on, due_date, todo_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID.String(), c.Reference.ID(), c.Reference.Entity, string(c.Reference.Register),
		c.Reference.Number, c.Reference.Year, string(c.Type), parties,
		string(c.Status), c.StatusNote,
		toDate(c.ReceivedOn), toDate(c.SettledOn), toDate(c.DueDate), toDate(c.TodoDate),
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
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
	out.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE cases SET case_type = ?, parties = ?, status = ?, status_note = ?,
			received_on = ?, settled_on = ?, due_date = ?, todo_date = ?, updated_at = ?
		WHERE reference_id = ?`,
		string(c.Type), parties, string(c.Status), c.StatusNote,
		toDate(c.ReceivedOn), toDate(c.SettledOn), toDate(c.DueDate), toDate(c.TodoDate),
		out.UpdatedAt.Format(timeLayout), c.Reference.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, core.ErrCaseNotFound
	}
	return out, nil
}

// SaveRun implements core.HistoryStore.
func (s *Store) SaveRun(ctx context.Context, run *core.ImportRun) error {
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, file_name, format, strategy, import_date, bytes,
			client_ip, user_agent, started_at, duration_ms, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.FileName, run.Format, run.Strategy.String(), toDate(run.ImportDate).String,
		run.Bytes, run.ClientIP, run.UserAgent, run.StartedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(), string(report),
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
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM import_runs ORDER BY started_at DESC LIMIT ?`, limit)
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
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM import_runs WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrImportNotFound
	}
	return run, err
}

// PurgeRuns implements core.HistoryStore.
func (s *Store) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_runs WHERE started_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("purge import runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.ImportRun, error) {
	var (
		run                            core.ImportRun
		id, strategy, importDate, when string
		durationMS                     int64
		report                         string
	)
	err := row.Scan(&id, &run.FileName, &run.Format, &strategy, &importDate, &run.Bytes,
		&run.ClientIP, &run.UserAgent, &when, &durationMS, &report)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	if run.ImportDate, err = fromDate(sql.NullString{String: importDate, Valid: true}); err != nil {
		return nil, err
	}
	if run.StartedAt, err = time.Parse(timeLayout, when); err != nil {
		return nil, fmt.Errorf("run start time: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if run.Strategy, err = core.ParseStrategyKind(strategy); err != nil {
		return nil, err
	}
	run.Report = &core.Report{}
	if err := json.Unmarshal([]byte(report), run.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	run.Counts = run.Report.Counts()
	return &run, nil
}

// toDate stores a civil date as ISO text; the zero date is NULL.
func toDate(d civil.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func fromDate(s sql.NullString) (civil.Date, error) {
	if !s.Valid || s.String == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(s.String)
	if err != nil {
		return civil.Date{}, fmt.Errorf("stored date %q: %w", s.String, err)
	}
	return d, nil
}
