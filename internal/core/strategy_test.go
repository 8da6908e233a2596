package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want StrategyKind
		ok   bool
	}{
		{name: "new cases", row: Row{"Aktenzeichen", "Kurzrubrum", "Status", "ER / K"}, want: StrategyNewCases, ok: true},
		{name: "settled cases", row: Row{"Aktenzeichen", "Kurzrubrum", "Erledigt am"}, want: StrategySettledCases, ok: true},
		{name: "received dates", row: Row{"Aktenzeichen", "Eingangsdatum"}, want: StrategyReceivedDates, ok: true},
		{name: "due dates", row: Row{"Aktenzeichen", "Kurzrubrum", "Terminsart", "Termin"}, want: StrategyDueDates, ok: true},
		{name: "extra trailing column", row: Row{"Aktenzeichen", "Eingangsdatum", ""}},
		{name: "missing trailing column", row: Row{"Aktenzeichen", "Kurzrubrum", "Status"}},
		{name: "reordered", row: Row{"Eingangsdatum", "Aktenzeichen"}},
		{name: "case differs", row: Row{"aktenzeichen", "eingangsdatum"}},
		{name: "empty row", row: Row{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.row)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategyColumnsMatchSignature(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.Kind.String(), func(t *testing.T) {
			assert.Equal(t, len(s.Signature), s.Kind.Columns())
			assert.True(t, s.Kind.Matches(Row(s.Signature)))
		})
	}
	assert.Equal(t, 0, StrategyNone.Columns())
	assert.False(t, StrategyNone.Matches(Row{}))
}

func TestStrategiesReturnsCopies(t *testing.T) {
	list := Strategies()
	list[0].Signature[0] = "mutated"
	assert.Equal(t, "Aktenzeichen", StrategyNewCases.Signature()[0])
}

func TestStrategyKindText(t *testing.T) {
	for _, k := range []StrategyKind{StrategyNone, StrategyNewCases, StrategySettledCases, StrategyReceivedDates, StrategyDueDates} {
		b, err := k.MarshalText()
		require.NoError(t, err)

		var back StrategyKind
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
	}

	_, err := ParseStrategyKind("bogus")
	assert.Error(t, err)
}
