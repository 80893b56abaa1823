package graph

import (
	"github.com/hurou927/dbml-render/internal/resolve"
	"github.com/hurou927/dbml-render/internal/schema"
)

// Edge represents a directed edge from child to parent (the "many" side
// points at the "one" side).
type Edge struct {
	Rel         *resolve.Relationship
	ChildTable  string
	ParentTable string
	// ChildColumns and ParentColumns follow the edge direction.
	ChildColumns  []string
	ParentColumns []string
}

// Graph is a directed graph built from resolved relationships.
type Graph struct {
	Schema *resolve.Schema

	// Order lists table names in declaration order (grouped tables first).
	Order []string

	// Tables maps display name -> table
	Tables map[string]*resolve.Table

	// Edges are non-self-referential relationship edges (child → parent)
	Edges []Edge

	// SelfRefs holds self-referential edges, keyed by table name
	SelfRefs map[string][]Edge

	// Children maps parent name → list of child names
	Children map[string][]string

	// Parents maps child name → list of parent names
	Parents map[string][]string

	// adjacency for undirected connectivity
	Adjacency map[string]map[string]bool
}

// Build constructs the relationship graph of s.
func Build(s *resolve.Schema) *Graph {
	g := &Graph{
		Schema:    s,
		Tables:    make(map[string]*resolve.Table),
		SelfRefs:  make(map[string][]Edge),
		Children:  make(map[string][]string),
		Parents:   make(map[string][]string),
		Adjacency: make(map[string]map[string]bool),
	}

	for _, t := range s.Tables() {
		name := t.DisplayName()
		if _, dup := g.Tables[name]; dup {
			continue
		}
		g.Order = append(g.Order, name)
		g.Tables[name] = t
		g.Adjacency[name] = make(map[string]bool)
	}

	for _, rel := range s.Relationships {
		child, parent := rel.From, rel.To
		if rel.Cardinality() == schema.OneToMany {
			child, parent = parent, child
		}
		edge := Edge{
			Rel:           rel,
			ChildTable:    child.Table.DisplayName(),
			ParentTable:   parent.Table.DisplayName(),
			ChildColumns:  child.ColumnNames(),
			ParentColumns: parent.ColumnNames(),
		}

		if edge.ChildTable == edge.ParentTable {
			g.SelfRefs[edge.ChildTable] = append(g.SelfRefs[edge.ChildTable], edge)
			continue
		}

		g.Edges = append(g.Edges, edge)
		g.Children[edge.ParentTable] = append(g.Children[edge.ParentTable], edge.ChildTable)
		g.Parents[edge.ChildTable] = append(g.Parents[edge.ChildTable], edge.ParentTable)
		g.Adjacency[edge.ChildTable][edge.ParentTable] = true
		g.Adjacency[edge.ParentTable][edge.ChildTable] = true
	}

	return g
}

// Roots returns tables that have no parents, in declaration order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, name := range g.Order {
		if len(g.Parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}
