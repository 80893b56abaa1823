package graph

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/hurou927/dbml-render/internal/resolve"
	"github.com/hurou927/dbml-render/internal/schema"
)

var mermaidUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// mermaidArrows maps a cardinality to its erDiagram connector, child side first.
var mermaidArrows = map[schema.Cardinality]string{
	schema.ManyToOne:  "}o--||",
	schema.OneToMany:  "}o--||",
	schema.OneToOne:   "||--||",
	schema.ManyToMany: "}o--o{",
}

// WriteMermaid writes the graph as a Mermaid erDiagram to w.
// Entities follow declaration order and relationships follow the order
// in which they were declared.
func WriteMermaid(w io.Writer, g *Graph) error {
	var b strings.Builder
	b.WriteString("erDiagram\n")

	for _, name := range g.Order {
		writeEntity(&b, g, name)
	}

	for _, rel := range g.Schema.Relationships {
		e, ok := g.edgeFor(rel)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "    %s %s %s : %q\n",
			mermaidID(e.ChildTable), mermaidArrows[rel.Cardinality()], mermaidID(e.ParentTable),
			strings.Join(e.ChildColumns, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeEntity(b *strings.Builder, g *Graph, name string) {
	t := g.Tables[name]
	if len(t.Columns) == 0 {
		fmt.Fprintf(b, "    %s\n", mermaidID(name))
		return
	}

	fks := g.foreignKeyColumns(name)
	fmt.Fprintf(b, "    %s {\n", mermaidID(name))
	for _, c := range t.Columns {
		var keys []string
		if t.IsPrimaryKey(c) {
			keys = append(keys, "PK")
		}
		if fks[c.Name] {
			keys = append(keys, "FK")
		}
		line := mermaidIdent(c.Type) + " " + mermaidIdent(c.Name)
		if len(keys) > 0 {
			line += " " + strings.Join(keys, ", ")
		}
		fmt.Fprintf(b, "        %s\n", line)
	}
	b.WriteString("    }\n")
}

// edgeFor finds the edge built from rel, including self references.
func (g *Graph) edgeFor(rel *resolve.Relationship) (Edge, bool) {
	find := func(edges []Edge) (Edge, bool) {
		for _, e := range edges {
			if e.Rel == rel {
				return e, true
			}
		}
		return Edge{}, false
	}
	if e, ok := find(g.Edges); ok {
		return e, true
	}
	for _, name := range g.Order {
		if e, ok := find(g.SelfRefs[name]); ok {
			return e, true
		}
	}
	return Edge{}, false
}

// foreignKeyColumns returns the columns of table that reference another table.
func (g *Graph) foreignKeyColumns(table string) map[string]bool {
	cols := make(map[string]bool)
	for _, e := range slices.Concat(g.Edges, g.SelfRefs[table]) {
		if e.ChildTable != table {
			continue
		}
		for _, c := range e.ChildColumns {
			cols[c] = true
		}
	}
	return cols
}

// mermaidID converts a schema.table name to a Mermaid-safe entity ID.
func mermaidID(fullName string) string {
	return mermaidIdent(strings.ReplaceAll(fullName, ".", "_"))
}

func mermaidIdent(s string) string {
	s = strings.Trim(mermaidUnsafe.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return "_"
	}
	return s
}
