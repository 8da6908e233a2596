package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/JonMunkholm/docket/internal/document"
	"github.com/JonMunkholm/docket/internal/logging"
	"github.com/JonMunkholm/docket/internal/sealer"
)

// ServiceConfig tunes import execution.
type ServiceConfig struct {
	// MaxConcurrent is the number of simultaneous imports per registry.
	MaxConcurrent int
	// MaxWait bounds how long an import waits for its registry.
	MaxWait time.Duration
	// Timeout bounds a single import, including registry I/O.
	Timeout time.Duration
}

// Service runs imports against a Store and records their history.
type Service struct {
	store   Store
	limiter *ImportLimiter
	timeout time.Duration
	now     func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store, cfg ServiceConfig) *Service {
	return &Service{
		store:   store,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// ImportRequest describes one document to import.
type ImportRequest struct {
	FileName string
	// Format is detected from FileName and content when empty.
	Format document.Format
	Body   io.Reader
	// ImportDate defaults to today.
	ImportDate civil.Date
	Key        []byte
	// DryRun computes the report without writing cases or history.
	DryRun bool
}

// Import tokenizes and reconciles one document. Row-level problems are in
// the returned run's report; an error means the import did not complete.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportRun, error) {
	if req.Body == nil {
		return nil, ErrNoFile
	}
	if len(req.Key) == 0 {
		return nil, ErrMissingKey
	}
	seal, err := sealer.New(req.Key)
	if err != nil {
		return nil, err
	}

	body := bufio.NewReader(req.Body)
	format := req.Format
	if format == "" {
		head, _ := body.Peek(512)
		if format, err = document.DetectFormat(req.FileName, head); err != nil {
			return nil, err
		}
	}

	importDate := req.ImportDate
	if importDate.IsZero() {
		importDate = civil.DateOf(s.now())
	}

	release, err := s.limiter.Acquire(ctx, s.store.Name())
	if err != nil {
		return nil, err
	}
	defer release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	run := &ImportRun{
		ID:         uuid.New(),
		FileName:   req.FileName,
		Format:     string(format),
		ImportDate: importDate,
		DryRun:     req.DryRun,
		StartedAt:  s.now().UTC(),
	}
	run.ClientIP, run.UserAgent = ClientFromContext(ctx)

	logger := logging.WithFields(ctx,
		"import_id", run.ID.String(),
		"file", req.FileName,
		"format", string(format),
		"dry_run", req.DryRun,
	)

	counted := document.NewCountingReader(body)
	tok, err := document.New(format, counted)
	if err != nil {
		return nil, err
	}

	var registry CaseRegistry = s.store.Cases(seal)
	if req.DryRun {
		registry = NewOverlay(registry)
	}

	engine := &Engine{Registry: registry, ImportDate: importDate, Logger: logger}
	report, err := engine.Run(ctx, tok)
	if err != nil {
		logger.Error("import failed", "error", err)
		return nil, err
	}

	run.Strategy = report.Strategy
	run.Report = report
	run.Counts = report.Counts()
	run.Bytes = counted.BytesRead
	run.Duration = time.Since(run.StartedAt)

	logger.Info("import completed",
		"strategy", report.Strategy.String(),
		"imported", run.Counts.Imported,
		"settled", run.Counts.Settled,
		"updated", run.Counts.Updated,
		"ignored", run.Counts.Ignored,
		"unknown", run.Counts.Unknown,
		"errors", run.Counts.Errors,
		"bytes", run.Bytes,
		"duration_ms", run.Duration.Milliseconds(),
	)

	if !req.DryRun {
		if err := s.store.SaveRun(ctx, run); err != nil {
			// Cases are already written at this point.
			logger.Error("failed to record import run", "error", err)
		}
	}
	return run, nil
}

// Strategies lists the recognized document layouts.
func (s *Service) Strategies() []StrategyInfo {
	return Strategies()
}

// History returns the most recent import runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListRuns(ctx, limit)
}

// Run returns a single import run.
func (s *Service) Run(ctx context.Context, id uuid.UUID) (*ImportRun, error) {
	return s.store.GetRun(ctx, id)
}

// PurgeHistory deletes runs started more than retention ago.
func (s *Service) PurgeHistory(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.store.PurgeRuns(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge import runs: %w", err)
	}
	return n, nil
}

// LimiterStatus reports running imports per registry.
func (s *Service) LimiterStatus() []ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
