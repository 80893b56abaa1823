package graph

import (
	"fmt"
	"io"
	"strings"
)

// WriteText writes a text summary of the graph to w.
func WriteText(w io.Writer, g *Graph) error {
	var b strings.Builder
	components := g.Components()

	fmt.Fprintf(&b, "Tables: %d\n", len(g.Order))
	fmt.Fprintf(&b, "Relationships: %d\n", len(g.Edges)+g.selfRefCount())
	fmt.Fprintf(&b, "Groups: %d\n", len(g.Schema.Groups))
	fmt.Fprintf(&b, "Enums: %d\n", len(g.Schema.Enums))
	fmt.Fprintf(&b, "Connected Components: %d\n\n", len(components))

	if res := g.TopoSortAll(); res.HasCycle() {
		fmt.Fprintf(&b, "WARNING: Circular relationships detected: %v\n\n", res.CycleTables)
	}

	var noPK []string
	for _, name := range g.Order {
		if len(g.Tables[name].PrimaryKey()) == 0 {
			noPK = append(noPK, name)
		}
	}
	if len(noPK) > 0 {
		fmt.Fprintf(&b, "WARNING: Tables without primary key: %v\n\n", noPK)
	}

	var selfRef []string
	for _, name := range g.Order {
		if len(g.SelfRefs[name]) > 0 {
			selfRef = append(selfRef, name)
		}
	}
	if len(selfRef) > 0 {
		fmt.Fprintf(&b, "Self-referencing tables: %v\n\n", selfRef)
	}

	fmt.Fprintf(&b, "Root tables (no parents): %v\n\n", g.Roots())

	for _, grp := range g.Schema.Groups {
		name := grp.Name()
		if name == "" {
			name = "(unnamed)"
		}
		members := make([]string, len(grp.Tables))
		for i, t := range grp.Tables {
			members[i] = t.DisplayName()
		}
		fmt.Fprintf(&b, "Group %s: %v\n", name, members)
	}
	for _, e := range g.Schema.Enums {
		fmt.Fprintf(&b, "Enum %s: %v\n", e.Name(), e.Values)
	}
	if len(g.Schema.Groups)+len(g.Schema.Enums) > 0 {
		b.WriteString("\n")
	}

	for i, comp := range components {
		fmt.Fprintf(&b, "=== Component %d (%d tables) ===\n", i+1, len(comp.Tables))

		res := g.TopoSort(comp.Tables)
		if res.HasCycle() {
			b.WriteString("  Topological order (partial, has cycle):\n")
		} else {
			b.WriteString("  Topological order:\n")
		}
		for j, name := range res.Order {
			t := g.Tables[name]
			pk := "no PK"
			if cols := t.PrimaryKey(); len(cols) > 0 {
				pk = "PK: " + strings.Join(cols, ", ")
			}
			fmt.Fprintf(&b, "    %d. %s (%d cols, %s, %d refs)\n",
				j+1, name, len(t.Columns), pk, len(g.Parents[name]))
		}
		if res.HasCycle() {
			fmt.Fprintf(&b, "  Cycle tables: %v\n", res.CycleTables)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (g *Graph) selfRefCount() int {
	n := 0
	for _, edges := range g.SelfRefs {
		n += len(edges)
	}
	return n
}
