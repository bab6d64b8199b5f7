package service

import (
	"context"
	"sort"
	"strings"

	"metalake/internal/domain"
	"metalake/internal/lineage"
)

// Evidence scoring for derived term edges: the first distinct asset path
// contributes the base strength, each additional path a smaller
// increment, capped at 1.0.
const (
	termEdgeBaseStrength      = 0.5
	termEdgeIncrementStrength = 0.1
	termEdgeMaxStrength       = 1.0
)

// BusinessLineageService derives term-to-term lineage by projecting the
// technical asset graph through term-to-asset semantic mappings.
type BusinessLineageService struct {
	edges    domain.LineageRepository
	glossary domain.GlossaryRepository
}

// NewBusinessLineageService creates a new BusinessLineageService.
func NewBusinessLineageService(edges domain.LineageRepository, glossary domain.GlossaryRepository) *BusinessLineageService {
	return &BusinessLineageService{edges: edges, glossary: glossary}
}

// GetBusinessLineage derives the term lineage graph around one business
// term: traverse the technical graph from every asset mapped to the
// term, index the reached assets by their mapped terms, and synthesize a
// term edge for every technical edge whose endpoints both carry terms.
func (s *BusinessLineageService) GetBusinessLineage(ctx context.Context, termID string, depth int) (*domain.TermLineageGraph, error) {
	term, err := s.glossary.GetTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	depth = domain.ClampDepth(depth, domain.DefaultLineageDepth)

	seedMappings, err := s.glossary.ListMappingsByTerm(ctx, termID)
	if err != nil {
		return nil, err
	}

	all, err := s.edges.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	g := lineage.BuildAssetGraph(all)

	// Gather every asset reachable from the term's assets, in either
	// direction, plus the technical edges crossed on the way.
	reached := make(map[string]bool)
	edgeSet := make(map[string]lineage.Edge)
	for _, m := range seedMappings {
		reached[m.AssetID] = true
		start := lineage.AssetKey(m.AssetID)
		for _, dir := range []lineage.Direction{lineage.Upstream, lineage.Downstream} {
			visits, edges := g.Walk(start, dir, depth)
			for _, v := range visits {
				reached[v.Node.AssetID] = true
			}
			for _, e := range edges {
				edgeSet[e.ID] = e
			}
		}
	}

	assetIDs := make([]string, 0, len(reached))
	for id := range reached {
		assetIDs = append(assetIDs, id)
	}
	mappings, err := s.glossary.ListMappingsByAssets(ctx, assetIDs)
	if err != nil {
		return nil, err
	}

	// asset -> distinct terms, and term -> distinct assets for node counts
	assetTerms := make(map[string][]string)
	termAssets := make(map[string]map[string]bool)
	for _, m := range mappings {
		if !containsString(assetTerms[m.AssetID], m.TermID) {
			assetTerms[m.AssetID] = append(assetTerms[m.AssetID], m.TermID)
		}
		if termAssets[m.TermID] == nil {
			termAssets[m.TermID] = make(map[string]bool)
		}
		termAssets[m.TermID][m.AssetID] = true
	}

	type pairKey struct{ source, target string }
	termEdges := make(map[pairKey]*domain.TermEdge)
	pathSeen := make(map[pairKey]map[string]bool)

	edgeIDs := make([]string, 0, len(edgeSet))
	for id := range edgeSet {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)

	for _, id := range edgeIDs {
		e := edgeSet[id]
		srcAsset, _ := splitKey(e.Source)
		dstAsset, _ := splitKey(e.Target)
		path := []string{srcAsset, dstAsset}
		signature := strings.Join(path, "->")

		for _, srcTerm := range assetTerms[srcAsset] {
			for _, dstTerm := range assetTerms[dstAsset] {
				if srcTerm == dstTerm {
					continue
				}
				key := pairKey{source: srcTerm, target: dstTerm}
				if pathSeen[key] == nil {
					pathSeen[key] = make(map[string]bool)
				}
				if pathSeen[key][signature] {
					continue
				}
				pathSeen[key][signature] = true

				edge, ok := termEdges[key]
				if !ok {
					termEdges[key] = &domain.TermEdge{
						SourceTermID: srcTerm,
						TargetTermID: dstTerm,
						Strength:     termEdgeBaseStrength,
						AssetPaths:   [][]string{path},
					}
					continue
				}
				edge.AssetPaths = append(edge.AssetPaths, path)
				edge.Strength += termEdgeIncrementStrength
				if edge.Strength > termEdgeMaxStrength {
					edge.Strength = termEdgeMaxStrength
				}
			}
		}
	}

	// Node set: the origin term plus every term on a derived edge.
	termIDs := map[string]bool{term.ID: true}
	for key := range termEdges {
		termIDs[key.source] = true
		termIDs[key.target] = true
	}
	ids := make([]string, 0, len(termIDs))
	for id := range termIDs {
		ids = append(ids, id)
	}
	terms, err := s.glossary.GetTerms(ctx, ids)
	if err != nil {
		return nil, err
	}

	graph := &domain.TermLineageGraph{
		Nodes: []domain.TermNode{},
		Edges: []domain.TermEdge{},
	}
	sort.Strings(ids)
	for _, id := range ids {
		node := domain.TermNode{TermID: id, Name: id, AssetCount: len(termAssets[id])}
		if t, ok := terms[id]; ok {
			node.Name = t.Name
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	edgeKeys := make([]pairKey, 0, len(termEdges))
	for key := range termEdges {
		edgeKeys = append(edgeKeys, key)
	}
	sort.Slice(edgeKeys, func(i, j int) bool {
		if edgeKeys[i].source != edgeKeys[j].source {
			return edgeKeys[i].source < edgeKeys[j].source
		}
		return edgeKeys[i].target < edgeKeys[j].target
	})
	for _, key := range edgeKeys {
		graph.Edges = append(graph.Edges, *termEdges[key])
	}
	return graph, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
