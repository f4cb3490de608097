package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/sim"
	"github.com/nathoo/lastrep/types"
)

func openTemp(t *testing.T) (*Ledger, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.sqlite")
	l, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, dbPath
}

func testBatch(id string) *sim.Batch {
	return &sim.Batch{
		ID:      id,
		Options: sim.Options{Runs: 3, Seed: 9, Policy: sim.PolicyCautious, Workers: 2},
		Results: []sim.Result{
			{RunID: id + "-0", Index: 0, Seed: 9, Ending: "walk_away", Turns: 10, Keys: []string{"1", "2"}, Stats: types.Stats{Week: 10, Cash: 50}, Elapsed: time.Millisecond},
			{RunID: id + "-1", Index: 1, Seed: 10, Ending: "walk_away", Turns: 11, Keys: []string{"2"}},
			{RunID: id + "-2", Index: 2, Seed: 11, Truncated: true, Turns: 500},
		},
	}
}

func testGraph() *state.Graph {
	return &state.Graph{Game: types.GameDef{Title: "Last Rep, Last Lap", Version: "1.0"}}
}

func TestOpen_MigratesOnce(t *testing.T) {
	l, dbPath := openTemp(t)

	var n int
	require.NoError(t, l.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, l.Close())

	again, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer again.Close()
	require.NoError(t, again.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRecord_RoundTrip(t *testing.T) {
	l, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, testGraph(), testBatch("b1")))

	batches, err := l.Batches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "Last Rep, Last Lap", b.Game)
	assert.Equal(t, "1.0", b.Version)
	assert.Equal(t, 3, b.Runs)
	assert.Equal(t, int64(9), b.Seed)
	assert.Equal(t, "cautious", b.Policy)
	assert.Equal(t, 2, b.Workers)
	assert.Equal(t, map[string]int{"walk_away": 2, "": 1}, b.Endings)
	assert.False(t, b.CreatedAt.IsZero())

	var keys string
	require.NoError(t, l.db.QueryRow("SELECT keys FROM runs WHERE run_id = 'b1-0'").Scan(&keys))
	assert.Equal(t, "1 2", keys)
}

func TestRecord_DuplicateBatchRollsBack(t *testing.T) {
	l, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, testGraph(), testBatch("b1")))
	assert.Error(t, l.Record(ctx, testGraph(), testBatch("b1")))

	var n int
	require.NoError(t, l.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestBatches_Limit(t *testing.T) {
	l, _ := openTemp(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, l.Record(ctx, testGraph(), testBatch(id)))
	}

	batches, err := l.Batches(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

func TestEndings_UnknownBatch(t *testing.T) {
	l, _ := openTemp(t)

	_, err := l.Endings(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestRecord_SimulatedBatch(t *testing.T) {
	l, _ := openTemp(t)
	ctx := context.Background()

	g := &state.Graph{
		Game: types.GameDef{Title: "Tiny", Start: "a"},
		Scenes: map[string]types.Scene{
			"a": {ID: "a", Title: "A", Choices: []types.Choice{
				{Key: "1", Effect: types.Effect{Kind: types.KindEnd, Ending: "done"}},
			}},
		},
		Endings: map[string]types.Ending{"done": {ID: "done", Title: "Done"}},
	}
	batch, err := sim.Run(ctx, g, sim.Options{Runs: 4, Seed: 1, Workers: 2}, nil)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, g, batch))

	endings, err := l.Endings(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"done": 4}, endings)
}
