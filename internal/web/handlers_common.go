package web

import (
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/JonMunkholm/docket/internal/core"
)

// KeyHeader carries the base64 registry key on import requests.
const KeyHeader = "X-Docket-Key"

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// ImportRunResponse is the JSON form of an import run.
type ImportRunResponse struct {
	ID         string            `json:"id"`
	FileName   string            `json:"file_name"`
	Format     string            `json:"format"`
	Strategy   core.StrategyKind `json:"strategy"`
	ImportDate civil.Date        `json:"import_date"`
	DryRun     bool              `json:"dry_run"`
	Bytes      int64             `json:"bytes"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   string            `json:"duration"`
	Counts     core.ReportCounts `json:"counts"`
	Report     *core.Report      `json:"report,omitempty"`
}

// toResponse converts a run; the full report is included only when
// withReport is set.
func toResponse(run *core.ImportRun, withReport bool) ImportRunResponse {
	resp := ImportRunResponse{
		ID:         run.ID.String(),
		FileName:   run.FileName,
		Format:     run.Format,
		Strategy:   run.Strategy,
		ImportDate: run.ImportDate,
		DryRun:     run.DryRun,
		Bytes:      run.Bytes,
		StartedAt:  run.StartedAt,
		Duration:   run.Duration.Round(time.Millisecond).String(),
		Counts:     run.Counts,
	}
	if withReport {
		resp.Report = run.Report
	}
	return resp
}
