package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Reference
		wantErr bool
	}{
		{name: "spaced", input: "123 O 1/24", want: Reference{Entity: 123, Register: RegisterO, Number: 1, Year: 24}},
		{name: "compact", input: "5OH12/07", want: Reference{Entity: 5, Register: RegisterOH, Number: 12, Year: 7}},
		{name: "max widths", input: "99999 AR 99999/99", want: Reference{Entity: 99999, Register: RegisterAR, Number: 99999, Year: 99}},
		{name: "unknown register", input: "1 XY 1/24", wantErr: true},
		{name: "lowercase register", input: "1 o 1/24", wantErr: true},
		{name: "missing year", input: "1 O 1", wantErr: true},
		{name: "year too large", input: "1 O 1/124", wantErr: true},
		{name: "entity too large", input: "123456 O 1/24", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReference(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenceEncodings(t *testing.T) {
	ref := Reference{Entity: 123, Register: RegisterO, Number: 1, Year: 24}

	assert.Equal(t, "00123O24-00001", ref.ID())
	assert.Equal(t, "123 O 1/24", ref.String())

	fromID, err := ParseReferenceID(ref.ID())
	require.NoError(t, err)
	assert.Equal(t, ref, fromID)

	fromValue, err := ParseReference(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, fromValue)
}

func TestReferenceRoundTrip(t *testing.T) {
	refs := []Reference{
		{Entity: 1, Register: RegisterC, Number: 1, Year: 0},
		{Entity: 99999, Register: RegisterAR, Number: 99999, Year: 99},
		{Entity: 42, Register: RegisterOH, Number: 7, Year: 5},
	}
	for _, ref := range refs {
		t.Run(ref.ID(), func(t *testing.T) {
			byID, err := ParseReferenceID(ref.ID())
			require.NoError(t, err)
			assert.Equal(t, ref, byID)

			byValue, err := ParseReference(ref.String())
			require.NoError(t, err)
			assert.Equal(t, ref, byValue)
		})
	}
}

func TestParseReferenceID_Invalid(t *testing.T) {
	for _, s := range []string{"123 O 1/24", "00123O2-00001", "00123XX24-00001", "00123O24-123456"} {
		_, err := ParseReferenceID(s)
		assert.ErrorIs(t, err, ErrInvalidReference, s)
	}
}

func TestReferenceJSON(t *testing.T) {
	ref := Reference{Entity: 7, Register: RegisterS, Number: 3, Year: 23}

	b, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `"7 S 3/23"`, string(b))

	var back Reference
	require.NoError(t, json.Unmarshal([]byte(`"00007S23-00003"`), &back))
	assert.Equal(t, ref, back)
}
