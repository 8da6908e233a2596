package core

import (
	"strings"

	"github.com/JonMunkholm/docket/internal/document"
)

// Row is the trimmed cell text of one table row.
type Row []string

// String renders the row for error messages, e.g. "[a | b]".
func (r Row) String() string {
	return "[" + strings.Join(r, " | ") + "]"
}

// RowAssembler turns a tokenizer's event stream into rows. It holds no
// state beyond the row being built.
type RowAssembler struct {
	src   document.Tokenizer
	cells []string
	cell  strings.Builder
	inRow bool
}

// NewRowAssembler returns an assembler reading from src.
func NewRowAssembler(src document.Tokenizer) *RowAssembler {
	return &RowAssembler{src: src}
}

// Next returns the next complete row. Tokenizer errors, including io.EOF,
// are passed through unchanged.
func (a *RowAssembler) Next() (Row, error) {
	for {
		tok, err := a.src.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case document.RowStart:
			a.cells = make([]string, 0, len(a.cells))
			a.cell.Reset()
			a.inRow = true
		case document.Text:
			a.cell.WriteString(tok.Text)
		case document.CellEnd:
			a.cells = append(a.cells, strings.TrimSpace(a.cell.String()))
			a.cell.Reset()
		case document.RowEnd:
			// Text after the last cell boundary is not a cell.
			if !a.inRow {
				continue
			}
			a.inRow = false
			a.cell.Reset()
			return Row(a.cells), nil
		}
	}
}
