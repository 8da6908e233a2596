package core

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/JonMunkholm/docket/internal/sealer"
)

// ErrImportNotFound is returned when no import run has the requested id.
var ErrImportNotFound = errors.New("import run not found")

// ImportRun is the persisted record of one completed import.
type ImportRun struct {
	ID         uuid.UUID     `json:"id"`
	FileName   string        `json:"file_name"`
	Format     string        `json:"format"`
	Strategy   StrategyKind  `json:"strategy"`
	ImportDate civil.Date    `json:"import_date"`
	DryRun     bool          `json:"dry_run"`
	Bytes      int64         `json:"bytes"`
	ClientIP   string        `json:"client_ip,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Counts     ReportCounts  `json:"counts"`
	Report     *Report       `json:"report"`
}

// HistoryStore persists import runs.
type HistoryStore interface {
	SaveRun(ctx context.Context, run *ImportRun) error
	ListRuns(ctx context.Context, limit int) ([]ImportRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*ImportRun, error)
	PurgeRuns(ctx context.Context, before time.Time) (int64, error)
}

// Store is a storage backend: a case registry bound to a sealing key plus
// the import history.
type Store interface {
	HistoryStore
	// Name identifies the registry for import serialization.
	Name() string
	// Cases returns the case registry with parties sealed by s.
	Cases(s *sealer.Sealer) CaseRegistry
}
