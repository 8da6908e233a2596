package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/civil"

	"github.com/JonMunkholm/docket/internal/document"
)

// Engine reconciles one document against a case registry.
//
// An Engine run is sequential: each row is read, validated and written
// before the next one is read. It performs unguarded get-then-write
// operations, so callers must not run two imports against the same
// registry at once (see ImportLimiter).
type Engine struct {
	Registry   CaseRegistry
	ImportDate civil.Date
	Logger     *slog.Logger
}

// Run consumes src and returns the report. Row failures are recorded in the
// report; only a tokenizer failure is returned as an error.
func (e *Engine) Run(ctx context.Context, src document.Tokenizer) (*Report, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		rows   = NewRowAssembler(src)
		agg    = newAggregator()
		rec    = &reconciler{registry: e.Registry, importDate: e.ImportDate}
		kind   = StrategyNone
		lineNo = 0
	)

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		lineNo++

		if kind == StrategyNone {
			if k, ok := Detect(row); ok {
				kind = k
				agg.setStrategy(k)
				logger.Debug("strategy detected", "strategy", k.String(), "row", lineNo)
			}
			continue
		}

		if len(row) != kind.Columns() {
			continue
		}

		out, cause := rec.process(ctx, kind, lineNo, row)
		if cause != nil {
			logger.Warn("row failed", "row", lineNo, "error", cause)
		} else {
			logger.Debug("row reconciled", "row", lineNo, "reference", out.Reference.String(), "outcome", out.Kind.String())
		}
		agg.add(out)
	}

	return agg.finish(), nil
}
