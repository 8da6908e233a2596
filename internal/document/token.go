// Package document turns exported case-list documents into a flat stream of
// table events.
//
// A Tokenizer knows nothing about cases or strategies. It only reports where
// rows start and end, where a cell is closed, and the text found in between.
// Row assembly happens in the consumer.
package document

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind identifies a table event.
type Kind int

const (
	// Text carries a fragment of cell content.
	Text Kind = iota + 1
	// RowStart opens a table row.
	RowStart
	// RowEnd closes a table row.
	RowEnd
	// CellEnd closes the current cell.
	CellEnd
)

// String returns the event name used in logs and test failures.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case RowStart:
		return "row_start"
	case RowEnd:
		return "row_end"
	case CellEnd:
		return "cell_end"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is a single table event. Text is only set for Text tokens.
type Token struct {
	Kind Kind
	Text string
}

// Tokenizer yields table events in document order.
// Next returns io.EOF once the document is exhausted.
type Tokenizer interface {
	Next() (Token, error)
}

// Format names a supported input format.
type Format string

const (
	FormatHTML Format = "html"
	FormatRTF  Format = "rtf"
)

// ErrUnsupportedFormat is returned when no tokenizer exists for a format.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "rtf":
		return FormatRTF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat picks a format from the file name and, failing that, from the
// leading bytes of the document.
func DetectFormat(name string, head []byte) (Format, error) {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		if f, err := ParseFormat(ext); err == nil {
			return f, nil
		}
	}

	trimmed := strings.TrimLeft(string(skipBOM(head)), " \t\r\n")
	switch {
	case strings.HasPrefix(trimmed, `{\rtf`):
		return FormatRTF, nil
	case strings.HasPrefix(trimmed, "<"):
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %q", ErrUnsupportedFormat, name)
}

// New returns a tokenizer for the given format reading from r.
func New(format Format, r io.Reader) (Tokenizer, error) {
	switch format {
	case FormatHTML:
		return NewHTMLTokenizer(r)
	case FormatRTF:
		return NewRTFTokenizer(r), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Collect drains a tokenizer. It is meant for tests and small documents.
func Collect(t Tokenizer) ([]Token, error) {
	var out []Token
	for {
		tok, err := t.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
}
