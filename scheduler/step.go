// Package scheduler implements the per-step evaluator (spec §4.8): a
// topological walk of a compiled graph.Graph that honours delay semantics,
// drives recursive sub-graphs to a fixpoint, and commits results to a
// graph.Store atomically per step.
//
// Grounded on the teacher's transactional request lifecycle
// (dialect/sql/driver.go's Tx wrapping, compiler/gen/generate.go's
// errgroup-parallel codegen) generalised from "one SQL transaction" to "one
// dataflow step": evaluate everything, then commit once, atomically.
package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// MaxFixpointIterations is the fixpoint iteration cap a Scheduler built
// without an explicit Config uses (spec §7: "bounded by a hard iteration
// cap (~1000)"); equal to stepping.DefaultConfig().FixpointIterationCap.
const MaxFixpointIterations = 1000

// Scheduler evaluates a graph.Graph step by step against a graph.Store.
type Scheduler struct {
	G     *graph.Graph
	Store graph.Store
	Cfg   stepping.Config

	levels [][]graph.Path // topological levels, computed once
}

// New builds a Scheduler for g, allocating g's delay vertices in store and
// computing the evaluation order (spec §4.8 step 1). cfg is optional
// (spec §10.3); omitting it uses stepping.DefaultConfig's bounds.
func New(g *graph.Graph, store graph.Store, cfg ...stepping.Config) (*Scheduler, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	for _, v := range g.Vertices() {
		if v.Kind == graph.KindDelay {
			if err := store.Allocate(v); err != nil {
				return nil, fmt.Errorf("scheduler: allocating %s: %w", v.Path, err)
			}
		}
	}
	levels, err := topoLevels(g)
	if err != nil {
		return nil, err
	}
	c := stepping.DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0].WithDefaults()
	}
	return &Scheduler{G: g, Store: store, Cfg: c, levels: levels}, nil
}

// topoLevels computes a topological evaluation order as a sequence of
// levels, treating delay vertices as sources: a delay vertex's single
// input edge is a back-edge the scheduler does not wait on (spec §4.8 step
// 1, §9 "delay as sink + source"). Vertices within a level have no
// dependency on one another and so may be evaluated in parallel (spec §5:
// "implementations may parallelise disjoint branches").
func topoLevels(g *graph.Graph) ([][]graph.Path, error) {
	indeg := map[string]int{}
	for _, v := range g.Vertices() {
		indeg[v.Path.String()] = 0
	}
	for _, e := range g.Internal() {
		dst := g.MustVertex(e.Dst)
		if dst.Kind == graph.KindDelay {
			continue // back-edge: doesn't gate dst's readiness
		}
		indeg[e.Dst.String()]++
	}
	var ready []graph.Path
	for _, v := range g.Vertices() {
		if indeg[v.Path.String()] == 0 {
			ready = append(ready, v.Path)
		}
	}
	var levels [][]graph.Path
	total := 0
	for len(ready) > 0 {
		level := ready
		ready = nil
		levels = append(levels, level)
		total += len(level)
		for _, p := range level {
			for _, e := range g.Successors(p) {
				dst := g.MustVertex(e.Dst)
				if dst.Kind == graph.KindDelay {
					continue
				}
				key := e.Dst.String()
				indeg[key]--
				if indeg[key] == 0 {
					ready = append(ready, e.Dst)
				}
			}
		}
	}
	if total != len(g.Vertices()) {
		return nil, fmt.Errorf("scheduler: graph has a cycle not broken by a delay vertex")
	}
	return levels, nil
}

// Step evaluates one step: inputs is one Z-set per declared input port, in
// order. Returns one Z-set per declared output, in order (spec §4.8).
func (s *Scheduler) Step(ctx context.Context, inputs []*zset.ZSet) ([]*zset.ZSet, error) {
	if len(inputs) != len(s.G.Input) {
		return nil, fmt.Errorf("scheduler: expected %d inputs, got %d", len(s.G.Input), len(inputs))
	}
	values := map[string]value.Value{}
	for i, port := range s.G.Input {
		values[port.Path.String()] = value.ZSetValue(inputs[i])
	}

	// Delay vertices are back-edges (spec §9): their output for this step
	// is simply the store's current cell, independent of this step's
	// inputs, so it's available before anything else runs.
	for _, v := range s.G.Vertices() {
		if v.Kind != graph.KindDelay {
			continue
		}
		cur, err := s.Store.Get(v.Path)
		if err != nil {
			return nil, fmt.Errorf("scheduler: delay %s: %w", v.Path, err)
		}
		values[v.Path.String()] = value.ZSetValue(cur)
	}

	for _, level := range s.levels {
		pending := make([]graph.Path, 0, len(level))
		for _, p := range level {
			if s.G.MustVertex(p).Kind != graph.KindDelay {
				pending = append(pending, p)
			}
		}
		results := make([]value.Value, len(pending))
		errs := make([]error, len(pending))
		fns := make([]func() error, len(pending))
		for i, p := range pending {
			i, p := i, p
			fns[i] = func() error {
				out, err := s.evaluateVertex(ctx, p, values)
				results[i], errs[i] = out, err
				return err
			}
		}
		if err := evaluateParallel(ctx, fns); err != nil {
			for _, e := range errs {
				if e != nil {
					return nil, e
				}
			}
			return nil, err
		}
		for i, p := range pending {
			values[p.String()] = results[i]
		}
	}

	// Delay writes: now that every vertex's output is known, each delay
	// vertex's pending cell is the value produced by its single
	// predecessor this step (spec §4.8 step 4).
	for _, v := range s.G.Vertices() {
		if v.Kind != graph.KindDelay {
			continue
		}
		in, err := singleInput(s.G, v.Path, values)
		if err != nil {
			return nil, err
		}
		newZSet, ok := in.AsZSet().(*zset.ZSet)
		if !ok {
			return nil, fmt.Errorf("scheduler: delay %s: input is not a Z-set", v.Path)
		}
		if err := s.Store.Set(v.Path, newZSet); err != nil {
			return nil, fmt.Errorf("scheduler: delay %s: %w", v.Path, err)
		}
	}

	outputs := make([]*zset.ZSet, 0, len(s.G.Output))
	for _, p := range s.G.Output {
		v, ok := values[p.String()]
		if !ok {
			return nil, fmt.Errorf("scheduler: output vertex %s never evaluated", p)
		}
		z, ok := v.AsZSet().(*zset.ZSet)
		if !ok {
			return nil, fmt.Errorf("scheduler: output vertex %s is not a Z-set", p)
		}
		outputs = append(outputs, z)
	}

	if err := s.Store.Inc(); err != nil {
		return nil, fmt.Errorf("scheduler: commit: %w", err)
	}
	return outputs, nil
}

// evaluateVertex computes p's output value from already-evaluated
// predecessor values. p must not be a delay vertex (handled separately in
// Step: its output is precomputed from the store, and its write deferred
// until every vertex's output is known).
func (s *Scheduler) evaluateVertex(ctx context.Context, p graph.Path, values map[string]value.Value) (value.Value, error) {
	v := s.G.MustVertex(p)
	switch v.Kind {
	case graph.KindUnary:
		in, err := singleInput(s.G, p, values)
		if err != nil {
			return value.Value{}, err
		}
		return v.Unary(in), nil
	case graph.KindBinary:
		a, b, err := pairInput(s.G, p, values)
		if err != nil {
			return value.Value{}, err
		}
		return v.Binary(a, b), nil
	case graph.KindIntegrateTilZero:
		in, err := singleInput(s.G, p, values)
		if err != nil {
			return value.Value{}, err
		}
		return s.runToFixpoint(ctx, v, in)
	default:
		return value.Value{}, fmt.Errorf("scheduler: vertex %s has unknown kind %v", p, v.Kind)
	}
}

// runToFixpoint repeatedly re-invokes v's inner graph with the accumulated
// delta until it returns the empty Z-set (spec §4.7 rule 4 / §4.8 step 5).
func (s *Scheduler) runToFixpoint(ctx context.Context, v *graph.Vertex, in value.Value) (value.Value, error) {
	inner, err := New(v.Inner, s.Store, s.Cfg)
	if err != nil {
		return value.Value{}, fmt.Errorf("integrate_til_zero %s: %w", v.Path, err)
	}
	delta, ok := in.AsZSet().(*zset.ZSet)
	if !ok {
		return value.Value{}, fmt.Errorf("integrate_til_zero %s: input is not a Z-set", v.Path)
	}
	maxIter := s.Cfg.FixpointIterationCap
	total := delta
	for i := 0; ; i++ {
		if i >= maxIter {
			return value.Value{}, fmt.Errorf("integrate_til_zero %s: exceeded %d iterations without reaching a fixpoint: %w", v.Path, maxIter, stepping.ErrFixpointExceeded)
		}
		if delta.Len() == 0 {
			break
		}
		outs, err := inner.Step(ctx, []*zset.ZSet{delta})
		if err != nil {
			return value.Value{}, fmt.Errorf("integrate_til_zero %s: %w", v.Path, err)
		}
		if len(outs) != 1 {
			return value.Value{}, fmt.Errorf("integrate_til_zero %s: inner graph must declare exactly one output", v.Path)
		}
		delta = outs[0]
		if delta.Len() == 0 {
			break
		}
		total = total.Plus(delta)
	}
	return value.ZSetValue(total), nil
}

func singleInput(g *graph.Graph, p graph.Path, values map[string]value.Value) (value.Value, error) {
	edges := g.Predecessors(p)
	if len(edges) != 1 {
		return value.Value{}, fmt.Errorf("scheduler: vertex %s expects exactly one predecessor, has %d", p, len(edges))
	}
	v, ok := values[edges[0].Src.String()]
	if !ok {
		return value.Value{}, fmt.Errorf("scheduler: vertex %s: predecessor %s not yet evaluated", p, edges[0].Src)
	}
	return v, nil
}

func pairInput(g *graph.Graph, p graph.Path, values map[string]value.Value) (value.Value, value.Value, error) {
	edges := g.Predecessors(p)
	if len(edges) != 2 {
		return value.Value{}, value.Value{}, fmt.Errorf("scheduler: vertex %s expects exactly two predecessors, has %d", p, len(edges))
	}
	var a, b value.Value
	var haveA, haveB bool
	for _, e := range edges {
		v, ok := values[e.Src.String()]
		if !ok {
			return value.Value{}, value.Value{}, fmt.Errorf("scheduler: vertex %s: predecessor %s not yet evaluated", p, e.Src)
		}
		switch e.Port {
		case 0:
			a, haveA = v, true
		case 1:
			b, haveB = v, true
		default:
			return value.Value{}, value.Value{}, fmt.Errorf("scheduler: vertex %s: binary port must be 0 or 1, got %d", p, e.Port)
		}
	}
	if !haveA || !haveB {
		return value.Value{}, value.Value{}, fmt.Errorf("scheduler: vertex %s: binary vertex missing a port", p)
	}
	return a, b, nil
}

// evaluateParallel runs independent branches of a step concurrently,
// preserving per-vertex evaluation order (spec §5: "implementations may
// parallelise disjoint branches but must preserve per-vertex evaluation
// order where a vertex has multiple predecessors"). Step calls it once per
// topological level, whose vertices have no dependency on one another.
func evaluateParallel(ctx context.Context, fns []func() error) error {
	g, _ := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(fn)
	}
	return g.Wait()
}
