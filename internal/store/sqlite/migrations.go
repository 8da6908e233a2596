package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the user_version after all migrations ran.
const ExpectedSchemaVersion = 2

type migration struct {
	Up          func(tx *sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Cases and import runs",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS cases (
					id           TEXT PRIMARY KEY,
					reference_id TEXT NOT NULL UNIQUE,
					entity       INTEGER NOT NULL,
					register     TEXT NOT NULL,
					number       INTEGER NOT NULL,
					year         INTEGER NOT NULL,
					case_type    TEXT NOT NULL DEFAULT '',
					parties      TEXT NOT NULL DEFAULT '',
					status       TEXT NOT NULL DEFAULT 'unknown',
					status_note  TEXT NOT NULL DEFAULT '',
					received_on  TEXT,
					settled_on   TEXT,
					due_date     TEXT,
					todo_date    TEXT,
					created_at   TEXT NOT NULL,
					updated_at   TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS import_runs (
					id          TEXT PRIMARY KEY,
					file_name   TEXT NOT NULL,
					format      TEXT NOT NULL,
					strategy    TEXT NOT NULL,
					import_date TEXT NOT NULL,
					bytes       INTEGER NOT NULL DEFAULT 0,
					client_ip   TEXT NOT NULL DEFAULT '',
					user_agent  TEXT NOT NULL DEFAULT '',
					started_at  TEXT NOT NULL,
					duration_ms INTEGER NOT NULL,
					report      TEXT NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs (started_at)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Index todo dates for the daily work list",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, `CREATE INDEX IF NOT EXISTS idx_cases_todo_date ON cases (todo_date)`)
		},
	},
}

// Migrate applies all pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		slog.Debug("applied migration", "version", m.Version, "description", m.Description)
	}

	var final int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("verify schema version: %w", err)
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}
