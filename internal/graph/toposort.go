package graph

import "fmt"

// TopoResult holds the result of topological sorting.
type TopoResult struct {
	// Order lists referenced tables before the tables that reference them.
	Order []string
	// CycleTables lists tables left over because they sit on a cycle.
	CycleTables []string
}

// HasCycle reports whether some tables could not be ordered.
func (r TopoResult) HasCycle() bool {
	return len(r.CycleTables) > 0
}

// Err returns a descriptive error when the result has a cycle.
func (r TopoResult) Err() error {
	if !r.HasCycle() {
		return nil
	}
	return fmt.Errorf("circular relationships among tables: %v", r.CycleTables)
}

// TopoSort orders tables with Kahn's algorithm, considering only edges
// between members of tables. Ties keep the order of tables.
func (g *Graph) TopoSort(tables []string) TopoResult {
	member := make(map[string]bool, len(tables))
	for _, t := range tables {
		member[t] = true
	}

	pending := make(map[string]int, len(tables))
	dependents := make(map[string][]string)
	for _, t := range tables {
		for _, p := range g.Parents[t] {
			if member[p] {
				dependents[p] = append(dependents[p], t)
				pending[t]++
			}
		}
	}

	var queue, order []string
	for _, t := range tables {
		if pending[t] == 0 {
			queue = append(queue, t)
		}
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)
		for _, d := range dependents[next] {
			if pending[d]--; pending[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	res := TopoResult{Order: order}
	for _, t := range tables {
		if pending[t] > 0 {
			res.CycleTables = append(res.CycleTables, t)
		}
	}
	return res
}

// TopoSortAll orders every table of the graph.
func (g *Graph) TopoSortAll() TopoResult {
	return g.TopoSort(g.Order)
}
