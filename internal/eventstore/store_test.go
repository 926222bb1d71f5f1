package eventstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, started time.Time, outcome string) BuildRecord {
	return BuildRecord{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Outcome:    outcome,
		Published:  4,
		Emitted:    9,
		Duration:   1500 * time.Millisecond,
	}
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := record("b-1", base, "success")
	first.Report = json.RawMessage(`{"published":4}`)
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, record("b-2", base.Add(time.Hour), "warning")))
	require.NoError(t, store.Record(ctx, record("b-3", base.Add(2*time.Hour), "failed")))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b-3", all[0].ID)
	assert.Equal(t, "b-1", all[2].ID)
	assert.JSONEq(t, `{"published":4}`, string(all[2].Report))
	assert.Empty(t, all[0].Report)
	assert.Equal(t, 1500*time.Millisecond, all[0].Duration)
	assert.True(t, all[2].StartedAt.Equal(base))

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "warning", limited[1].Outcome)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := record("dup", time.Now(), "success")
	require.NoError(t, store.Record(t.Context(), rec))
	err = store.Record(t.Context(), rec)
	require.ErrorIs(t, err, ErrRecordFailed)
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), record("b-1", time.Now(), "success")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	recs, err := reopened.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b-1", recs[0].ID)
}
