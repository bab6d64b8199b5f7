// Package lineage builds in-memory lineage graphs from the stored edge
// set and answers depth-bounded traversal and impact queries over them.
// Graphs are constructed per call; nothing here is cached or shared.
package lineage

import (
	"metalake/internal/domain"
)

// NodeKey identifies a graph node. For asset-level graphs it is the
// asset id; for column-level graphs it is "assetID:column".
type NodeKey string

// AssetKey returns the node key for an asset-level node.
func AssetKey(assetID string) NodeKey {
	return NodeKey(assetID)
}

// ColumnKey returns the node key for a column-level node.
func ColumnKey(assetID, column string) NodeKey {
	return NodeKey(assetID + ":" + column)
}

// Node carries the identity of a graph node. Column is empty at the
// asset level.
type Node struct {
	AssetID string
	Column  string
}

// Edge is one directed hop in the graph, carrying enough of the stored
// edge to render a traversal answer.
type Edge struct {
	ID                 string
	Source             NodeKey
	Target             NodeKey
	TransformationType string
}

// Graph is a directed adjacency-list lineage graph.
type Graph struct {
	nodes map[NodeKey]Node
	out   map[NodeKey][]Edge
	in    map[NodeKey][]Edge
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[NodeKey]Node),
		out:   make(map[NodeKey][]Edge),
		in:    make(map[NodeKey][]Edge),
	}
}

func (g *Graph) addNode(key NodeKey, node Node) {
	if _, ok := g.nodes[key]; !ok {
		g.nodes[key] = node
	}
}

func (g *Graph) addEdge(e Edge) {
	g.out[e.Source] = append(g.out[e.Source], e)
	g.in[e.Target] = append(g.in[e.Target], e)
}

// Node returns the node for a key, if present.
func (g *Graph) Node(key NodeKey) (Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// HasNode reports whether the key appears in the graph.
func (g *Graph) HasNode(key NodeKey) bool {
	_, ok := g.nodes[key]
	return ok
}

// BuildAssetGraph constructs an asset-level graph from the full stored
// edge set. Every endpoint becomes a node even when no asset row exists
// for it.
func BuildAssetGraph(edges []domain.LineageEdge) *Graph {
	g := newGraph()
	for _, e := range edges {
		src := AssetKey(e.SourceAssetID)
		dst := AssetKey(e.TargetAssetID)
		g.addNode(src, Node{AssetID: e.SourceAssetID})
		g.addNode(dst, Node{AssetID: e.TargetAssetID})
		g.addEdge(Edge{
			ID:                 e.ID,
			Source:             src,
			Target:             dst,
			TransformationType: e.TransformationType,
		})
	}
	return g
}

// BuildColumnGraph constructs a column-level graph from the full stored
// column edge set.
func BuildColumnGraph(edges []domain.ColumnLineageEdge) *Graph {
	g := newGraph()
	for _, e := range edges {
		src := ColumnKey(e.SourceAssetID, e.SourceColumn)
		dst := ColumnKey(e.TargetAssetID, e.TargetColumn)
		g.addNode(src, Node{AssetID: e.SourceAssetID, Column: e.SourceColumn})
		g.addNode(dst, Node{AssetID: e.TargetAssetID, Column: e.TargetColumn})
		g.addEdge(Edge{
			ID:                 e.ID,
			Source:             src,
			Target:             dst,
			TransformationType: string(e.TransformationType),
		})
	}
	return g
}
