package lineage

// Direction selects which adjacency a traversal follows.
type Direction int

const (
	// Upstream walks edges backwards, from targets to their sources.
	Upstream Direction = iota
	// Downstream walks edges forwards, from sources to their targets.
	Downstream
)

// Visit is one node reached by a traversal, with the depth at which it
// was first seen.
type Visit struct {
	Key   NodeKey
	Node  Node
	Depth int
}

// Walk performs a breadth-first traversal from start, following edges in
// the given direction up to maxDepth hops. It returns the visited nodes
// in discovery order (start first, at depth 0) and the edges that first
// discovered each node.
//
// A visited set makes cyclic graphs terminate; each node is reported
// once, at its minimum depth. Later edges into an already-visited node
// are dropped, so the result forms a spanning structure of the reached
// subgraph.
func (g *Graph) Walk(start NodeKey, dir Direction, maxDepth int) ([]Visit, []Edge) {
	if !g.HasNode(start) {
		return nil, nil
	}

	visited := map[NodeKey]bool{start: true}
	visits := []Visit{{Key: start, Node: g.nodes[start], Depth: 0}}
	var edges []Edge

	frontier := []NodeKey{start}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []NodeKey
		for _, key := range frontier {
			for _, e := range g.adjacent(key, dir) {
				neighbor := e.other(dir)
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				edges = append(edges, e)
				visits = append(visits, Visit{Key: neighbor, Node: g.nodes[neighbor], Depth: depth})
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return visits, edges
}

func (g *Graph) adjacent(key NodeKey, dir Direction) []Edge {
	if dir == Downstream {
		return g.out[key]
	}
	return g.in[key]
}

// other returns the far endpoint of the edge relative to the traversal
// direction.
func (e Edge) other(dir Direction) NodeKey {
	if dir == Downstream {
		return e.Target
	}
	return e.Source
}
