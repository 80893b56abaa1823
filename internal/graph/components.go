package graph

import "slices"

// Component is a set of tables connected by relationships.
type Component struct {
	Tables []string
}

// Components returns the connected components of g, ignoring edge
// direction. Components are ordered by their first declared table and
// list their tables in breadth-first order.
func (g *Graph) Components() []Component {
	seen := make(map[string]bool, len(g.Order))
	var comps []Component
	for _, start := range g.Order {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []string{start}
		var members []string
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, n := range g.neighbors(cur) {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		comps = append(comps, Component{Tables: members})
	}
	return comps
}

// neighbors returns the tables adjacent to name in declaration order.
func (g *Graph) neighbors(name string) []string {
	var out []string
	for _, t := range g.Order {
		if g.Adjacency[name][t] {
			out = append(out, t)
		}
	}
	return out
}

// Contains reports whether the component includes table.
func (c Component) Contains(table string) bool {
	return slices.Contains(c.Tables, table)
}
