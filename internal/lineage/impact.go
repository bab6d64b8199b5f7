package lineage

// Impacted is one node reached by impact analysis, with the ordered hops
// from the origin to it. Path[0] is the origin; each later step carries
// the transformation type of the edge it was reached through.
type Impacted struct {
	Key   NodeKey
	Node  Node
	Depth int
	Path  []PathHop
}

// PathHop is one node on an impact path.
type PathHop struct {
	Key                NodeKey
	Node               Node
	TransformationType string // of the incoming edge; empty for the origin
}

// Impact performs a downstream-only breadth-first walk from start,
// recording for each reached node the path it was first discovered
// through. The origin itself is excluded from the result. Each node is
// visited once, so cycles terminate and every node carries exactly one
// path (the shortest by discovery order).
func (g *Graph) Impact(start NodeKey, maxDepth int) []Impacted {
	if !g.HasNode(start) {
		return nil
	}

	type workItem struct {
		key   NodeKey
		depth int
		path  []PathHop
	}

	visited := map[NodeKey]bool{start: true}
	var impacted []Impacted

	queue := []workItem{{
		key:  start,
		path: []PathHop{{Key: start, Node: g.nodes[start]}},
	}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= maxDepth {
			continue
		}
		for _, e := range g.out[item.key] {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true

			node := g.nodes[e.Target]
			path := make([]PathHop, len(item.path), len(item.path)+1)
			copy(path, item.path)
			path = append(path, PathHop{
				Key:                e.Target,
				Node:               node,
				TransformationType: e.TransformationType,
			})

			impacted = append(impacted, Impacted{
				Key:   e.Target,
				Node:  node,
				Depth: item.depth + 1,
				Path:  path,
			})
			queue = append(queue, workItem{key: e.Target, depth: item.depth + 1, path: path})
		}
	}
	return impacted
}
