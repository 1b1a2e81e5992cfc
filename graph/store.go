package graph

import "github.com/syssam/stepping/zset"

// Store is the interface the scheduler consumes (spec §6): a process-wide
// container keyed by delay vertex, with two cells per vertex — current (the
// value most recently committed) and pending (written during the step).
type Store interface {
	// Get returns the current value of the cell for vertex p, or the
	// declared zero (an empty Z-set over v's declared indexes) if
	// uninitialised.
	Get(p Path) (*zset.ZSet, error)

	// Set writes the pending value for vertex p. Visible to Get only
	// after Inc.
	Set(p Path, z *zset.ZSet) error

	// Inc promotes every pending cell to current, atomically (spec
	// §4.8 step 6). No output is user-visible before Inc completes.
	Inc() error

	// Allocate registers vertex p's declared indexes so Get returns a
	// correctly-indexed empty Z-set before the first Set. Called once
	// per delay vertex when the store is built from a graph (spec §3:
	// "created from a graph").
	Allocate(v *Vertex) error

	// Clone returns an independent Store view seeded from this one's
	// current/pending cells, so a caller can stage and commit an
	// alternate trajectory (e.g. a what-if Step) without the original
	// observing it before the caller chooses to (spec §12, supplemented
	// from original_source/store.py's Store contract).
	Clone() Store
}
