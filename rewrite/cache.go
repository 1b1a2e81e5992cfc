package rewrite

import (
	"fmt"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/zset"
)

// Cache is a handle onto a delay vertex materialised into the store
// without being surfaced as a graph output (spec §4.7 rule 5: "a
// user-visible handle through which a sub-computation is materialised into
// the store ... readers fetch the Z-set via the cache handle").
type Cache struct {
	store graph.Store
	path  graph.Path
}

// RegisterCache records path's delay vertex in g.RunNoOutput — so the
// scheduler evaluates and writes it every step even though it never
// appears in g.Output (spec §4.8 step 4) — and returns a handle for
// reading its current state.
func RegisterCache(g *graph.Graph, path graph.Path, store graph.Store) (*Cache, error) {
	v, ok := g.Vertex(path)
	if !ok {
		return nil, fmt.Errorf("rewrite: cache: no vertex at path %s", path)
	}
	if v.Kind != graph.KindDelay {
		return nil, fmt.Errorf("rewrite: cache: vertex %s is not a delay vertex", path)
	}
	g.RunNoOutput = append(g.RunNoOutput, path)
	return &Cache{store: store, path: path}, nil
}

// Get fetches the cache's current Z-set from the store.
func (c *Cache) Get() (*zset.ZSet, error) {
	return c.store.Get(c.path)
}
