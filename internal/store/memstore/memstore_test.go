package memstore

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/sealer"
)

func newSealer(t *testing.T, key string) *sealer.Sealer {
	t.Helper()
	s, err := sealer.New([]byte(key))
	require.NoError(t, err)
	return s
}

func TestRegistrySealsParties(t *testing.T) {
	ctx := context.Background()
	st := New("test")
	reg := st.Cases(newSealer(t, "registry-key-0001"))

	ref, err := core.ParseReference("123 O 1/24")
	require.NoError(t, err)

	_, err = reg.Create(ctx, &core.Case{Reference: ref, Parties: "Müller ./. Meier", ReceivedOn: civil.Date{Year: 2024, Month: 1, Day: 2}})
	require.NoError(t, err)

	raw, ok := st.Raw(ref)
	require.True(t, ok)
	assert.NotEqual(t, "Müller ./. Meier", raw.Parties)
	assert.NotEmpty(t, raw.Parties)

	got, err := reg.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "Müller ./. Meier", got.Parties)
	assert.NotEqual(t, uuid.Nil, got.ID)

	_, err = reg.Create(ctx, &core.Case{Reference: ref})
	assert.ErrorIs(t, err, core.ErrCaseExists)

	_, err = st.Cases(newSealer(t, "some-other-key-02")).Get(ctx, ref)
	assert.ErrorIs(t, err, sealer.ErrInvalidKey)
}

func TestRegistryUpdate(t *testing.T) {
	ctx := context.Background()
	reg := New("test").Cases(newSealer(t, "registry-key-0001"))
	ref, err := core.ParseReference("1 C 1/24")
	require.NoError(t, err)

	_, err = reg.Update(ctx, &core.Case{Reference: ref})
	assert.ErrorIs(t, err, core.ErrCaseNotFound)

	created, err := reg.Create(ctx, &core.Case{Reference: ref, Status: core.StatusUnknown})
	require.NoError(t, err)

	c := created.Clone()
	c.Status = core.StatusSettled
	_, err = reg.Update(ctx, c)
	require.NoError(t, err)

	got, err := reg.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSettled, got.Status)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	st := New("test")
	now := time.Now().UTC()

	old := core.ImportRun{ID: uuid.New(), StartedAt: now.Add(-200 * 24 * time.Hour)}
	recent := core.ImportRun{ID: uuid.New(), StartedAt: now.Add(-time.Hour)}
	newest := core.ImportRun{ID: uuid.New(), StartedAt: now}
	for _, r := range []core.ImportRun{old, recent, newest} {
		require.NoError(t, st.SaveRun(ctx, &r))
	}

	runs, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newest.ID, runs[0].ID)
	assert.Equal(t, recent.ID, runs[1].ID)

	n, err := st.PurgeRuns(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = st.GetRun(ctx, old.ID)
	assert.ErrorIs(t, err, core.ErrImportNotFound)

	got, err := st.GetRun(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, got.ID)
}
