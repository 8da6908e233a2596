package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/docket/internal/document"
	"github.com/JonMunkholm/docket/internal/sealer"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "wrapped busy", err: fmt.Errorf("import: %w", ErrImportBusy), wantCode: "IMP001"},
		{name: "unsupported format", err: fmt.Errorf("%w: \"xls\"", document.ErrUnsupportedFormat), wantCode: "DOC001"},
		{name: "bad key", err: fmt.Errorf("open parties: %w", sealer.ErrInvalidKey), wantCode: "KEY002"},
		{name: "missing key", err: ErrMissingKey, wantCode: "KEY001"},
		{name: "run not found", err: ErrImportNotFound, wantCode: "IMP002"},
		{name: "deadline", err: fmt.Errorf("run: %w", context.DeadlineExceeded), wantCode: "IMP004"},
		{name: "postgres duplicate", err: errors.New("ERROR: duplicate key value violates unique constraint"), wantCode: "DB001"},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:5432: connection refused"), wantCode: "DB002"},
		{name: "sqlite locked", err: errors.New("database is locked"), wantCode: "DB004"},
		{name: "tokenizer failure", err: errors.New("read document: read rtf: unexpected EOF"), wantCode: "DOC004"},
		{name: "unknown error", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t,
		"Another import is running for this registry (Code: IMP001). Wait for it to finish and try again",
		FormatUserError(ErrImportBusy))
	assert.Empty(t, FormatUserError(nil))
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, IsUserFacing(ErrNoFile))
	assert.False(t, IsUserFacing(errors.New("weird")))
	assert.False(t, IsUserFacing(nil))
}
