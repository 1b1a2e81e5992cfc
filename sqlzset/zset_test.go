package sqlzset_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/sqlzset"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

func intSchema(graph.Path) *value.Schema { return value.AtomSchema(value.KindInt) }

func newTestStore(t *testing.T) *sqlzset.Store {
	t.Helper()
	s, err := sqlzset.OpenSQLite(":memory:", intSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newTestStoreFile opens a file-backed SQLite store so a second, independent
// Store handle can be opened against the same database to simulate a second
// process (sqlite's ":memory:" is per-connection and can't be shared this
// way).
func newTestStoreFile(t *testing.T) (*sqlzset.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := sqlzset.OpenSQLite(path, intSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStoreGetSetInc(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}

	require.NoError(t, s.Allocate(v))

	empty, err := s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	z := zset.Single(value.Int(1), 2).Plus(zset.Single(value.Int(2), 1))
	require.NoError(t, s.Set(p, z))

	// Not visible until Inc.
	cur, err := s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 0, cur.Len())

	require.NoError(t, s.Inc())

	cur, err = s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cur.CountOf(value.Int(1)))
	assert.Equal(t, int64(1), cur.CountOf(value.Int(2)))
}

func TestStoreIncRemovesZeroedEntries(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))

	require.NoError(t, s.Set(p, zset.Single(value.Int(1), 1)))
	require.NoError(t, s.Inc())

	require.NoError(t, s.Set(p, zset.New()))
	require.NoError(t, s.Inc())

	cur, err := s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 0, cur.Len())
}

func TestStorePersistsAcrossAllocate(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))
	require.NoError(t, s.Set(p, zset.Single(value.Int(7), 3)))
	require.NoError(t, s.Inc())

	// Re-allocating a vertex this Store already holds is a no-op; the
	// state committed by Inc must still be what Get returns.
	require.NoError(t, s.Allocate(v))
	cur, err := s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cur.CountOf(value.Int(7)))
}

func TestStoreWithIndex(t *testing.T) {
	s := newTestStore(t)
	ix := index.Identity(value.KindInt)
	p := graph.NewPath("indexed")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay, Indexes: []*index.Index{ix}}
	require.NoError(t, s.Allocate(v))

	require.NoError(t, s.Set(p, zset.Single(value.Int(5), 1, ix)))
	require.NoError(t, s.Inc())

	cur, err := s.Get(p)
	require.NoError(t, err)
	entries, err := cur.IterByIndex(ix, zset.MatchAll())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].V.Int64())
}

func TestWaitForFrontierTimesOut(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))

	err := sqlzset.WaitForFrontier(context.Background(), s.Conn(), "sqlite", "zset_counts", 5, 30*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlzset.ErrFrontierTimeout)
}

func TestRefreshObservesAnotherWritersCommit(t *testing.T) {
	writer, path := newTestStoreFile(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, writer.Allocate(v))

	reader, err := sqlzset.OpenSQLite(path, intSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	require.NoError(t, reader.Allocate(v))

	require.NoError(t, writer.Set(p, zset.Single(value.Int(9), 4)))
	require.NoError(t, writer.Inc())

	cur, err := reader.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 0, cur.Len(), "Get alone must not observe a commit from another Store handle")

	require.NoError(t, reader.Refresh(context.Background(), p))
	cur, err = reader.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cur.CountOf(value.Int(9)), "Refresh must pull the other writer's committed rows")
}

func TestRefreshPreservesOwnUncommittedPending(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))

	require.NoError(t, s.Set(p, zset.Single(value.Int(1), 1)))
	require.NoError(t, s.Refresh(context.Background(), p))
	require.NoError(t, s.Inc())

	cur, err := s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.CountOf(value.Int(1)), "Refresh must not clobber a pending write this process hasn't committed yet")
}

func TestStoreIterByIndexQueriesSQL(t *testing.T) {
	s := newTestStore(t)
	ix := index.Identity(value.KindInt)
	p := graph.NewPath("indexed")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay, Indexes: []*index.Index{ix}}
	require.NoError(t, s.Allocate(v))

	z := zset.Single(value.Int(5), 1, ix).
		Plus(zset.Single(value.Int(3), 2, ix)).
		Plus(zset.Single(value.Int(7), 1, ix))
	require.NoError(t, s.Set(p, z))
	require.NoError(t, s.Inc())

	all, err := s.IterByIndex(context.Background(), p, ix, zset.MatchAll())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].V.Int64(), "MatchAll must be ordered by the index")
	assert.Equal(t, int64(5), all[1].V.Int64())
	assert.Equal(t, int64(7), all[2].V.Int64())

	some, err := s.IterByIndex(context.Background(), p, ix, zset.MatchValues(value.Int(5), value.Int(7)))
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, int64(5), some[0].V.Int64())
	assert.Equal(t, int64(7), some[1].V.Int64())
}

func TestStoreIterByIndexReadsOnlyCommittedRows(t *testing.T) {
	s := newTestStore(t)
	ix := index.Identity(value.KindInt)
	p := graph.NewPath("indexed")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay, Indexes: []*index.Index{ix}}
	require.NoError(t, s.Allocate(v))

	require.NoError(t, s.Set(p, zset.Single(value.Int(5), 1, ix)))
	entries, err := s.IterByIndex(context.Background(), p, ix, zset.MatchAll())
	require.NoError(t, err)
	assert.Empty(t, entries, "an uncommitted Set must not be visible to IterByIndex")
}

func TestStoreCloneSharesCommittedStateButNotStaging(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))
	require.NoError(t, s.Set(p, zset.Single(value.Int(1), 1)))
	require.NoError(t, s.Inc())

	clone, ok := s.Clone().(*sqlzset.Store)
	require.True(t, ok)

	cz, err := clone.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cz.CountOf(value.Int(1)), "clone must start from the original's committed state")

	require.NoError(t, clone.Set(p, zset.Single(value.Int(2), 5)))
	cz, err = clone.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cz.CountOf(value.Int(1)), "Set alone must not be visible before the clone's own Inc")

	oz, err := s.Get(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), oz.CountOf(value.Int(1)))
	assert.Equal(t, int64(0), oz.CountOf(value.Int(2)), "the clone's staged Set must not leak into the original")
}

func TestStoreBatchesUpsertsPerConfig(t *testing.T) {
	s, err := sqlzset.OpenSQLite(":memory:", intSchema, stepping.Config{SQLBatchSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))

	z := zset.New()
	for i := int64(0); i < 5; i++ {
		z = z.Plus(zset.Single(value.Int(i), 1))
	}
	require.NoError(t, s.Set(p, z))
	require.NoError(t, s.Inc())

	cur, err := s.Get(p)
	require.NoError(t, err)
	for i := int64(0); i < 5; i++ {
		assert.Equal(t, int64(1), cur.CountOf(value.Int(i)))
	}
}

func TestGetMany(t *testing.T) {
	s := newTestStore(t)
	p := graph.NewPath("counts")
	v := &graph.Vertex{Path: p, Kind: graph.KindDelay}
	require.NoError(t, s.Allocate(v))
	require.NoError(t, s.Set(p, zset.Single(value.Int(1), 1).Plus(zset.Single(value.Int(2), 5))))
	require.NoError(t, s.Inc())

	counts, err := s.GetMany(context.Background(), p.String(), []value.Value{value.Int(1), value.Int(99), value.Int(2)})
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, int64(1), counts[0])
	assert.Equal(t, int64(0), counts[1])
	assert.Equal(t, int64(5), counts[2])
}
