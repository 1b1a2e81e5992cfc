// Paths name vertices, Kind closes the set of vertex variants, and Graph is
// the structure the compiler builds and the scheduler walks (spec §3/§4.5).
// This replaces the teacher's entity-relationship graph (Type, Field, Edge —
// an ent-style ORM schema graph) with a dataflow graph: same
// load-then-validate shape (a Graph built incrementally, then checked for
// structural consistency before use), different payload.
package graph

import (
	"fmt"
	"strings"

	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/operators"
	"github.com/syssam/stepping/value"
)

// Path is an ordered, unique list of name segments identifying a vertex.
type Path struct {
	segments []string
}

// NewPath builds a Path from segments.
func NewPath(segments ...string) Path {
	return Path{segments: append([]string(nil), segments...)}
}

// Join appends segments to p, returning a new Path.
func (p Path) Join(segments ...string) Path {
	out := append([]string(nil), p.segments...)
	out = append(out, segments...)
	return Path{segments: out}
}

// String renders the path as a dotted name, e.g. "added.delayed".
func (p Path) String() string { return strings.Join(p.segments, ".") }

// Equal reports whether two paths name the same vertex.
func (p Path) Equal(o Path) bool { return p.String() == o.String() }

// Kind discriminates vertex variants (spec §3).
type Kind uint8

const (
	KindUnary Kind = iota
	KindBinary
	KindDelay
	KindIntegrateTilZero
)

func (k Kind) String() string {
	switch k {
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	case KindDelay:
		return "delay"
	case KindIntegrateTilZero:
		return "integrate_til_zero"
	default:
		return "unknown"
	}
}

// Vertex is one node of the graph: a named operator applied to inputs
// wired in by Graph.Internal/Graph.Input.
type Vertex struct {
	Path Path
	Kind Kind

	// OperatorKind names the closed primitive this vertex computes
	// (spec §4.6); empty for Delay/IntegrateTilZero, which aren't drawn
	// from the registry.
	OperatorKind operators.Kind

	// Unary is the bound function for KindUnary vertices.
	Unary func(value.Value) value.Value
	// Binary is the bound function for KindBinary vertices.
	Binary func(value.Value, value.Value) value.Value

	// Indexes is the declared index set a KindDelay vertex's Z-set state
	// carries (spec §3's Store contract: "allocates an empty Z-set per
	// delay vertex with the vertex's declared indexes").
	Indexes []*index.Index

	// Inner is the sub-graph a KindIntegrateTilZero vertex drives to a
	// fixpoint each step (spec §4.7 rule 4).
	Inner *Graph

	// InputType/OutputType are the vertex's static Kind signature, used
	// by the invariant checker (spec §3: "source output type equals the
	// destination input type").
	InputTypes []value.Kind
	OutputType value.Kind
}

// Edge is an internal wire: src's output feeds (dst, port).
type Edge struct {
	Src  Path
	Dst  Path
	Port int
}

// InputPort names one of the graph's declared inputs: an identity vertex
// fed externally at the given port (spec §3: "each input port is a fresh
// per-input identity vertex").
type InputPort struct {
	Path Path
	Port int
}

// Graph is a directed graph of Vertex, wired by Edge, with declared inputs
// and outputs (spec §3).
type Graph struct {
	vertices map[string]*Vertex
	order    []string // insertion order, for deterministic iteration

	Input        []InputPort
	internal     []Edge
	Output       []Path
	RunNoOutput  []Path
}

// New constructs an empty Graph.
func New() *Graph {
	return &Graph{vertices: map[string]*Vertex{}}
}

// AddVertex registers v, keyed by its Path. Returns an error if the path
// (or the (kind, path) pair — paths are already unique, so this reduces to
// path uniqueness) collides with an existing vertex (spec §3 invariant:
// "every (kind, path) pair is unique").
func (g *Graph) AddVertex(v *Vertex) error {
	key := v.Path.String()
	if _, exists := g.vertices[key]; exists {
		return fmt.Errorf("graph: duplicate vertex path %q", key)
	}
	g.vertices[key] = v
	g.order = append(g.order, key)
	return nil
}

// Vertex looks up a vertex by path.
func (g *Graph) Vertex(p Path) (*Vertex, bool) {
	v, ok := g.vertices[p.String()]
	return v, ok
}

// MustVertex looks up a vertex by path, panicking if absent — used
// internally once a graph is known-valid (post AddEdge/Validate).
func (g *Graph) MustVertex(p Path) *Vertex {
	v, ok := g.Vertex(p)
	if !ok {
		panic(fmt.Sprintf("graph: no vertex at path %q", p))
	}
	return v
}

// Vertices returns every vertex in insertion order.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.vertices[k])
	}
	return out
}

// AddEdge records an internal wire from src's output to (dst, port).
func (g *Graph) AddEdge(src, dst Path, port int) error {
	if _, ok := g.Vertex(src); !ok {
		return fmt.Errorf("graph: edge source %q is not a known vertex", src)
	}
	if _, ok := g.Vertex(dst); !ok {
		return fmt.Errorf("graph: edge destination %q is not a known vertex", dst)
	}
	g.internal = append(g.internal, Edge{Src: src, Dst: dst, Port: port})
	return nil
}

// Internal returns the graph's internal edges.
func (g *Graph) Internal() []Edge { return g.internal }

// Predecessors returns the (src, port) edges feeding dst, in no particular
// order beyond edge-insertion order.
func (g *Graph) Predecessors(dst Path) []Edge {
	var out []Edge
	for _, e := range g.internal {
		if e.Dst.Equal(dst) {
			out = append(out, e)
		}
	}
	return out
}

// Successors returns the edges leading out of src.
func (g *Graph) Successors(src Path) []Edge {
	var out []Edge
	for _, e := range g.internal {
		if e.Src.Equal(src) {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the graph invariants of spec §3: edge type agreement and
// vertex path uniqueness (the latter is enforced on insert, so only type
// agreement is checked here).
func (g *Graph) Validate() error {
	for _, e := range g.internal {
		src := g.MustVertex(e.Src)
		dst := g.MustVertex(e.Dst)
		if e.Port < 0 || e.Port > 1 {
			return fmt.Errorf("graph: edge %s -> %s has invalid port %d", e.Src, e.Dst, e.Port)
		}
		if e.Port >= len(dst.InputTypes) {
			return fmt.Errorf("graph: edge %s -> %s: destination has no input port %d", e.Src, e.Dst, e.Port)
		}
		want := dst.InputTypes[e.Port]
		if src.OutputType != want {
			return fmt.Errorf("graph: edge %s -> %s: output type %s does not match input type %s at port %d",
				e.Src, e.Dst, src.OutputType, want, e.Port)
		}
	}
	return nil
}
