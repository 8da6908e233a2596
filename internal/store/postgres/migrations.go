package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// migration is one schema step, applied in its own transaction.
type migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Cases and import runs",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS cases (
				id           UUID PRIMARY KEY,
				reference_id TEXT NOT NULL UNIQUE,
				entity       INTEGER NOT NULL,
				register     TEXT NOT NULL,
				number       INTEGER NOT NULL,
				year         SMALLINT NOT NULL,
				case_type    TEXT NOT NULL DEFAULT '',
				parties      TEXT NOT NULL DEFAULT '',
				status       TEXT NOT NULL DEFAULT 'unknown',
				status_note  TEXT NOT NULL DEFAULT '',
				received_on  DATE,
				settled_on   DATE,
				due_date     DATE,
				todo_date    DATE,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS import_runs (
				id          UUID PRIMARY KEY,
				file_name   TEXT NOT NULL,
				format      TEXT NOT NULL,
				strategy    TEXT NOT NULL,
				import_date DATE NOT NULL,
				bytes       BIGINT NOT NULL DEFAULT 0,
				client_ip   TEXT NOT NULL DEFAULT '',
				user_agent  TEXT NOT NULL DEFAULT '',
				started_at  TIMESTAMPTZ NOT NULL,
				duration_ms BIGINT NOT NULL,
				report      JSONB NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs (started_at DESC)`,
		},
	},
	{
		Version:     2,
		Description: "Index todo dates for the daily work list",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_cases_todo_date ON cases (todo_date) WHERE todo_date IS NOT NULL`,
		},
	},
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}
	return nil
}
