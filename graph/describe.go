package graph

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
	"github.com/dustin/go-humanize"
)

// Describe renders g as human-readable pseudocode: one statement per vertex,
// in insertion order, annotated with its operator and wiring. Adapted from
// compiler/gen/generate.go's JenniferGenerator.writeFile, which streams a
// jen.File to disk as compilable Go; here the same builder streams a
// diagnostic dump to a string instead of a .go file — nothing it emits is
// meant to compile.
func Describe(g *Graph) string {
	f := jen.NewFile("graph")
	f.HeaderComment("pseudocode dump, not compilable output")
	for _, v := range g.Vertices() {
		f.Add(describeVertex(g, v))
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		// jen only fails to render on malformed Code trees, which
		// describeVertex never builds (plain Comment/Id statements) — if
		// it ever does, the raw statement text is more useful than a
		// panic to whoever's debugging the graph.
		return buf.String() + "\n// describe: render error: " + err.Error()
	}
	return buf.String()
}

func describeVertex(g *Graph, v *Vertex) jen.Code {
	preds := g.Predecessors(v.Path)
	args := make([]jen.Code, 0, len(preds))
	for _, e := range preds {
		args = append(args, jen.Id(e.Src.String()))
	}
	rhs := jen.Id(string(v.Kind.String())).Call(args...)
	if v.OperatorKind != "" {
		rhs = jen.Id(string(v.OperatorKind)).Call(args...)
	}
	stmt := jen.Id(v.Path.String()).Op(":=").Add(rhs)
	if v.Kind == KindDelay {
		stmt = stmt.Comment(fmt.Sprintf("indexes: %d", len(v.Indexes)))
	}
	return stmt
}

// DescribeStore appends Describe's pseudocode with the current size of every
// delay vertex's cell, humanized (spec §6's Store is otherwise invisible
// state; this is purely a debugging aid, never consulted by the scheduler).
func DescribeStore(g *Graph, store Store) string {
	out := Describe(g)
	out += "\n// store contents:\n"
	for _, v := range g.Vertices() {
		if v.Kind != KindDelay {
			continue
		}
		z, err := store.Get(v.Path)
		if err != nil {
			out += fmt.Sprintf("//   %s: %v\n", v.Path, err)
			continue
		}
		out += fmt.Sprintf("//   %s: %s rows\n", v.Path, humanize.Comma(int64(z.Len())))
	}
	return out
}
