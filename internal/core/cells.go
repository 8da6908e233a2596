package core

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// CellErrorKind classifies a cell validation failure.
type CellErrorKind int

const (
	MissingColumn CellErrorKind = iota + 1
	UnrecognizedReference
	UnrecognizedDate
	UnrecognizedCaseType
)

// CellError reports a cell that could not be read. Column is zero-based.
type CellError struct {
	Kind   CellErrorKind
	Column int
	Raw    string
}

func (e *CellError) Error() string {
	col := e.Column + 1
	switch e.Kind {
	case MissingColumn:
		return fmt.Sprintf("column %d: missing value", col)
	case UnrecognizedReference:
		return fmt.Sprintf("column %d: unrecognized reference %q", col, e.Raw)
	case UnrecognizedDate:
		return fmt.Sprintf("column %d: unrecognized date %q", col, e.Raw)
	case UnrecognizedCaseType:
		return fmt.Sprintf("column %d: unrecognized case type %q", col, e.Raw)
	default:
		return fmt.Sprintf("column %d: invalid value %q", col, e.Raw)
	}
}

// DateLayout is the dd.MM.yyyy layout used by court exports.
const DateLayout = "02.01.2006"

// Labels used by the exports.
const (
	LabelChamber  = "Kammer"
	LabelSingle   = "Einzelrichter"
	LabelDecision = "Verkündungstermin"
)

// parser converts non-empty cell text. kind is reported when it fails.
type parser[T any] struct {
	kind  CellErrorKind
	parse func(string) (T, bool)
}

// optional reads column i with p. An empty or absent cell yields ok=false.
func optional[T any](row Row, i int, p parser[T]) (v T, ok bool, err error) {
	raw, ok := OptionalText(row, i)
	if !ok {
		return v, false, nil
	}
	v, ok = p.parse(raw)
	if !ok {
		return v, false, &CellError{Kind: p.kind, Column: i, Raw: raw}
	}
	return v, true, nil
}

// required is optional with absence reported as MissingColumn.
func required[T any](row Row, i int, p parser[T]) (T, error) {
	v, ok, err := optional(row, i, p)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &CellError{Kind: MissingColumn, Column: i}
	}
	return v, nil
}

var (
	referenceParser = parser[Reference]{
		kind: UnrecognizedReference,
		parse: func(s string) (Reference, bool) {
			ref, err := ParseReference(s)
			return ref, err == nil
		},
	}
	dateParser = parser[civil.Date]{
		kind:  UnrecognizedDate,
		parse: parseDate,
	}
	caseTypeParser = parser[CaseType]{
		kind: UnrecognizedCaseType,
		parse: func(s string) (CaseType, bool) {
			switch s {
			case LabelChamber:
				return CaseTypeChamber, true
			case LabelSingle:
				return CaseTypeSingle, true
			}
			return "", false
		},
	}
	dueStatusParser = parser[CaseStatus]{
		parse: func(s string) (CaseStatus, bool) {
			if s == LabelDecision {
				return StatusDecision, true
			}
			return StatusSession, true
		},
	}
)

func parseDate(s string) (civil.Date, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}

// OptionalText returns the trimmed text of column i; empty means absent.
func OptionalText(row Row, i int) (string, bool) {
	if i < 0 || i >= len(row) {
		return "", false
	}
	s := strings.TrimSpace(row[i])
	return s, s != ""
}

// RequiredText returns the text of column i or a MissingColumn error.
func RequiredText(row Row, i int) (string, error) {
	s, ok := OptionalText(row, i)
	if !ok {
		return "", &CellError{Kind: MissingColumn, Column: i}
	}
	return s, nil
}

// RequiredReference parses column i as a value-form reference.
func RequiredReference(row Row, i int) (Reference, error) {
	return required(row, i, referenceParser)
}

// OptionalDate parses column i as dd.MM.yyyy; an empty cell is absent.
func OptionalDate(row Row, i int) (civil.Date, bool, error) {
	return optional(row, i, dateParser)
}

// RequiredDate parses column i as dd.MM.yyyy.
func RequiredDate(row Row, i int) (civil.Date, error) {
	return required(row, i, dateParser)
}

// RequiredCaseType maps column i through the bench labels.
func RequiredCaseType(row Row, i int) (CaseType, error) {
	return required(row, i, caseTypeParser)
}

// DueDateStatus maps column i to Decision for the pronouncement label and
// Session for any other text. It fails only when the cell is empty.
func DueDateStatus(row Row, i int) (CaseStatus, error) {
	return required(row, i, dueStatusParser)
}
