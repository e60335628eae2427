package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborkit/arbor/internal/trace"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	events := []trace.Event{
		{Seq: 1, Kind: trace.KindBind, Node: 2, ValueType: "Config", Provider: 1, Source: "ancestor"},
		{Seq: 2, Kind: trace.KindPublish, Node: 1},
		{Seq: 3, Kind: trace.KindReady, Node: 2},
	}
	for _, e := range events {
		require.NoError(t, j.WriteEvent(ctx, "run-1", e))
	}

	got, err := j.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestJournal_WriteIsIdempotent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	e := trace.Event{Seq: 1, Kind: trace.KindPublish, Node: 1}
	require.NoError(t, j.WriteEvent(ctx, "run-1", e))
	require.NoError(t, j.WriteEvent(ctx, "run-1", e))

	got, err := j.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestJournal_UnknownTokenIsEmpty(t *testing.T) {
	j := openTestJournal(t)

	got, err := j.ReadTrace(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJournal_Tokens(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.WriteEvent(ctx, "run-b", trace.Event{Seq: 1, Kind: trace.KindPublish}))
	require.NoError(t, j.WriteEvent(ctx, "run-a", trace.Event{Seq: 1, Kind: trace.KindPublish}))
	require.NoError(t, j.WriteEvent(ctx, "run-a", trace.Event{Seq: 2, Kind: trace.KindReady}))

	tokens, err := j.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, tokens)
}

func TestJournal_WriteTraceFromRecorder(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	rec := trace.NewRecorder(trace.NewClock(), "run-rec")
	rec.Record(trace.Event{Kind: trace.KindTransition, From: "a", To: "b"})
	rec.Record(trace.Event{Kind: trace.KindReject, From: "b", To: "x"})

	require.NoError(t, j.WriteTrace(ctx, rec))

	got, err := j.ReadTrace(ctx, "run-rec")
	require.NoError(t, err)
	assert.Equal(t, rec.Events(), got)
}

func TestJournal_OpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.WriteEvent(ctx, "run-1", trace.Event{Seq: 1, Kind: trace.KindPublish, Node: 1}))
	require.NoError(t, j.Close())

	// Reopen and read back.
	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	got, err := j2.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, trace.KindPublish, got[0].Kind)
}
