package core

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCellError(t *testing.T, err error, kind CellErrorKind, col int, raw string) {
	t.Helper()
	var cellErr *CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, kind, cellErr.Kind)
	assert.Equal(t, col, cellErr.Column)
	assert.Equal(t, raw, cellErr.Raw)
}

func TestOptionalText(t *testing.T) {
	row := Row{"a", "  ", "b "}

	s, ok := OptionalText(row, 0)
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	_, ok = OptionalText(row, 1)
	assert.False(t, ok)

	_, ok = OptionalText(row, 9)
	assert.False(t, ok)

	_, err := RequiredText(row, 1)
	requireCellError(t, err, MissingColumn, 1, "")
}

func TestRequiredReference(t *testing.T) {
	ref, err := RequiredReference(Row{"123 O 1/24"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "123 O 1/24", ref.String())

	_, err = RequiredReference(Row{"nonsense"}, 0)
	requireCellError(t, err, UnrecognizedReference, 0, "nonsense")

	_, err = RequiredReference(Row{""}, 0)
	requireCellError(t, err, MissingColumn, 0, "")
}

func TestDates(t *testing.T) {
	tests := []struct {
		name    string
		cell    string
		want    civil.Date
		present bool
		wantErr bool
	}{
		{name: "valid", cell: "02.01.2024", want: civil.Date{Year: 2024, Month: 1, Day: 2}, present: true},
		{name: "leap day", cell: "29.02.2024", want: civil.Date{Year: 2024, Month: 2, Day: 29}, present: true},
		{name: "empty is absent", cell: ""},
		{name: "iso format rejected", cell: "2024-01-02", wantErr: true},
		{name: "single digit day rejected", cell: "2.01.2024", wantErr: true},
		{name: "impossible date rejected", cell: "31.02.2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := OptionalDate(Row{tt.cell}, 0)
			if tt.wantErr {
				requireCellError(t, err, UnrecognizedDate, 0, tt.cell)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RequiredDate(Row{"x", ""}, 1)
	requireCellError(t, err, MissingColumn, 1, "")
}

func TestRequiredCaseType(t *testing.T) {
	typ, err := RequiredCaseType(Row{"Kammer"}, 0)
	require.NoError(t, err)
	assert.Equal(t, CaseTypeChamber, typ)

	typ, err = RequiredCaseType(Row{"Einzelrichter"}, 0)
	require.NoError(t, err)
	assert.Equal(t, CaseTypeSingle, typ)

	_, err = RequiredCaseType(Row{"Referendar"}, 0)
	requireCellError(t, err, UnrecognizedCaseType, 0, "Referendar")
}

func TestDueDateStatus(t *testing.T) {
	tests := []struct {
		cell string
		want CaseStatus
	}{
		{cell: "Verkündungstermin", want: StatusDecision},
		{cell: "Haupttermin", want: StatusSession},
		{cell: "Gütetermin", want: StatusSession},
		{cell: "anything else", want: StatusSession},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, err := DueDateStatus(Row{tt.cell}, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DueDateStatus(Row{""}, 0)
	requireCellError(t, err, MissingColumn, 0, "")
}

func TestCellErrorMessages(t *testing.T) {
	assert.Equal(t, `column 4: unrecognized case type "Referendar"`,
		(&CellError{Kind: UnrecognizedCaseType, Column: 3, Raw: "Referendar"}).Error())
	assert.Equal(t, "column 1: missing value",
		(&CellError{Kind: MissingColumn, Column: 0}).Error())
}
