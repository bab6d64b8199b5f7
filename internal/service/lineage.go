// Package service implements the lineage engine's operations on top of
// the repositories: traversal queries, impact analysis, edge writes,
// SQL-derived lineage, event ingestion, relationship integrity, and
// business-lineage derivation.
package service

import (
	"context"
	"time"

	"metalake/internal/domain"
	"metalake/internal/lineage"
	"metalake/internal/sqllineage"
)

// LineageService answers lineage queries and owns edge writes.
type LineageService struct {
	assets   domain.AssetRepository
	edges    domain.LineageRepository
	colEdges domain.ColumnLineageRepository
}

// NewLineageService creates a new LineageService.
func NewLineageService(assets domain.AssetRepository, edges domain.LineageRepository, colEdges domain.ColumnLineageRepository) *LineageService {
	return &LineageService{assets: assets, edges: edges, colEdges: colEdges}
}

// GetUpstreamLineage returns the upstream lineage graph of an asset.
func (s *LineageService) GetUpstreamLineage(ctx context.Context, assetID string, depth int) (*domain.LineageGraph, error) {
	return s.assetLineage(ctx, assetID, lineage.Upstream, depth)
}

// GetDownstreamLineage returns the downstream lineage graph of an asset.
func (s *LineageService) GetDownstreamLineage(ctx context.Context, assetID string, depth int) (*domain.LineageGraph, error) {
	return s.assetLineage(ctx, assetID, lineage.Downstream, depth)
}

func (s *LineageService) assetLineage(ctx context.Context, assetID string, dir lineage.Direction, depth int) (*domain.LineageGraph, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	depth = domain.ClampDepth(depth, domain.DefaultLineageDepth)

	all, err := s.edges.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	g := lineage.BuildAssetGraph(all)

	start := lineage.AssetKey(assetID)
	if !g.HasNode(start) {
		// No edges touch the asset; the answer is just the asset itself.
		nodes, err := s.resolveNodes(ctx, []lineage.Visit{{Key: start, Node: lineage.Node{AssetID: assetID}}})
		if err != nil {
			return nil, err
		}
		return &domain.LineageGraph{Nodes: nodes, Edges: []domain.LineageGraphEdge{}}, nil
	}

	visits, edges := g.Walk(start, dir, depth)
	nodes, err := s.resolveNodes(ctx, visits)
	if err != nil {
		return nil, err
	}
	return &domain.LineageGraph{Nodes: nodes, Edges: graphEdges(edges)}, nil
}

// GetUpstreamColumnLineage returns the upstream column-level lineage of
// one column.
func (s *LineageService) GetUpstreamColumnLineage(ctx context.Context, assetID, column string, depth int) (*domain.LineageGraph, error) {
	return s.columnLineage(ctx, assetID, column, lineage.Upstream, depth)
}

// GetDownstreamColumnLineage returns the downstream column-level lineage
// of one column.
func (s *LineageService) GetDownstreamColumnLineage(ctx context.Context, assetID, column string, depth int) (*domain.LineageGraph, error) {
	return s.columnLineage(ctx, assetID, column, lineage.Downstream, depth)
}

func (s *LineageService) columnLineage(ctx context.Context, assetID, column string, dir lineage.Direction, depth int) (*domain.LineageGraph, error) {
	if column == "" {
		return nil, domain.ErrValidation("column is required")
	}
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	depth = domain.ClampDepth(depth, domain.DefaultLineageDepth)

	all, err := s.colEdges.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	g := lineage.BuildColumnGraph(all)

	start := lineage.ColumnKey(assetID, column)
	if !g.HasNode(start) {
		nodes, err := s.resolveNodes(ctx, []lineage.Visit{{Key: start, Node: lineage.Node{AssetID: assetID, Column: column}}})
		if err != nil {
			return nil, err
		}
		return &domain.LineageGraph{Nodes: nodes, Edges: []domain.LineageGraphEdge{}}, nil
	}

	visits, edges := g.Walk(start, dir, depth)
	nodes, err := s.resolveNodes(ctx, visits)
	if err != nil {
		return nil, err
	}
	return &domain.LineageGraph{Nodes: nodes, Edges: graphEdges(edges)}, nil
}

// PerformImpactAnalysis computes the downstream blast radius of an asset.
func (s *LineageService) PerformImpactAnalysis(ctx context.Context, assetID string, maxDepth int) (*domain.ImpactAnalysisResult, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	maxDepth = domain.ClampDepth(maxDepth, domain.DefaultImpactDepth)

	all, err := s.edges.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	g := lineage.BuildAssetGraph(all)

	impacted := g.Impact(lineage.AssetKey(assetID), maxDepth)
	return s.impactResult(ctx, assetID, "", impacted)
}

// PerformColumnImpactAnalysis computes the downstream blast radius of a
// single column.
func (s *LineageService) PerformColumnImpactAnalysis(ctx context.Context, assetID, column string, maxDepth int) (*domain.ImpactAnalysisResult, error) {
	if column == "" {
		return nil, domain.ErrValidation("column is required")
	}
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	maxDepth = domain.ClampDepth(maxDepth, domain.DefaultImpactDepth)

	all, err := s.colEdges.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	g := lineage.BuildColumnGraph(all)

	impacted := g.Impact(lineage.ColumnKey(assetID, column), maxDepth)
	return s.impactResult(ctx, assetID, column, impacted)
}

func (s *LineageService) impactResult(ctx context.Context, assetID, column string, impacted []lineage.Impacted) (*domain.ImpactAnalysisResult, error) {
	assetIDs := make([]string, 0, len(impacted))
	for _, node := range impacted {
		assetIDs = append(assetIDs, node.Node.AssetID)
		for _, hop := range node.Path {
			assetIDs = append(assetIDs, hop.Node.AssetID)
		}
	}
	known, err := s.assets.GetByIDs(ctx, assetIDs)
	if err != nil {
		return nil, err
	}

	result := &domain.ImpactAnalysisResult{
		SourceAssetID:  assetID,
		SourceColumn:   column,
		ImpactedAssets: []domain.ImpactedAsset{},
		CountByType:    make(map[string]int),
	}
	for _, node := range impacted {
		name, assetType, _ := describeAsset(known, node.Node.AssetID)
		path := make([]domain.PathStep, len(node.Path))
		for i, hop := range node.Path {
			hopName, hopType, _ := describeAsset(known, hop.Node.AssetID)
			path[i] = domain.PathStep{
				AssetID:            hop.Node.AssetID,
				Column:             hop.Node.Column,
				Name:               hopName,
				Type:               hopType,
				TransformationType: hop.TransformationType,
			}
		}
		result.ImpactedAssets = append(result.ImpactedAssets, domain.ImpactedAsset{
			AssetID: node.Node.AssetID,
			Column:  node.Node.Column,
			Name:    name,
			Type:    assetType,
			Depth:   node.Depth,
			Path:    path,
		})
		result.CountByType[assetType]++
	}
	result.TotalCount = len(result.ImpactedAssets)
	return result, nil
}

// resolveNodes enriches traversal visits with asset names and types.
// Assets missing from the catalog become synthetic minimal nodes instead
// of failing the traversal.
func (s *LineageService) resolveNodes(ctx context.Context, visits []lineage.Visit) ([]domain.LineageNode, error) {
	assetIDs := make([]string, len(visits))
	for i, v := range visits {
		assetIDs[i] = v.Node.AssetID
	}
	known, err := s.assets.GetByIDs(ctx, assetIDs)
	if err != nil {
		return nil, err
	}

	nodes := make([]domain.LineageNode, len(visits))
	for i, v := range visits {
		name, assetType, synthetic := describeAsset(known, v.Node.AssetID)
		nodes[i] = domain.LineageNode{
			AssetID:   v.Node.AssetID,
			Column:    v.Node.Column,
			Name:      name,
			Type:      assetType,
			Depth:     v.Depth,
			Synthetic: synthetic,
		}
	}
	return nodes, nil
}

func describeAsset(known map[string]domain.Asset, assetID string) (name, assetType string, synthetic bool) {
	if a, ok := known[assetID]; ok {
		return a.Name, a.Type, false
	}
	return assetID, domain.AssetTypeOther, true
}

func graphEdges(edges []lineage.Edge) []domain.LineageGraphEdge {
	result := make([]domain.LineageGraphEdge, len(edges))
	for i, e := range edges {
		result[i] = domain.LineageGraphEdge{
			ID:                 e.ID,
			TransformationType: e.TransformationType,
		}
		result[i].SourceAssetID, result[i].SourceColumn = splitKey(e.Source)
		result[i].TargetAssetID, result[i].TargetColumn = splitKey(e.Target)
	}
	return result
}

// === Edge writes ===

// CreateLineageEdge records or refreshes an asset-level lineage edge. A
// second write for the same (source, target) pair updates the existing
// edge rather than duplicating it.
func (s *LineageService) CreateLineageEdge(ctx context.Context, req domain.CreateLineageEdgeRequest) (*domain.LineageEdge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.assets.GetByID(ctx, req.SourceAssetID); err != nil {
		return nil, err
	}
	if _, err := s.assets.GetByID(ctx, req.TargetAssetID); err != nil {
		return nil, err
	}
	return s.edges.Upsert(ctx, &domain.LineageEdge{
		ID:                  domain.NewID(),
		SourceAssetID:       req.SourceAssetID,
		TargetAssetID:       req.TargetAssetID,
		TransformationType:  req.TransformationType,
		TransformationLogic: req.TransformationLogic,
		Metadata:            req.Metadata,
	})
}

// UpdateLineageEdge applies a partial update to an existing edge.
func (s *LineageService) UpdateLineageEdge(ctx context.Context, id string, req domain.UpdateLineageEdgeRequest) (*domain.LineageEdge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.edges.Update(ctx, id, req)
}

// DeleteLineageEdge removes an edge by id.
func (s *LineageService) DeleteLineageEdge(ctx context.Context, id string) error {
	return s.edges.Delete(ctx, id)
}

// GetLineageEdge returns an edge by id.
func (s *LineageService) GetLineageEdge(ctx context.Context, id string) (*domain.LineageEdge, error) {
	return s.edges.GetByID(ctx, id)
}

// ListEdges returns a filtered page of asset-level edges.
func (s *LineageService) ListEdges(ctx context.Context, filter domain.EdgeFilter) ([]domain.LineageEdge, int64, error) {
	return s.edges.List(ctx, filter)
}

// CreateColumnLineageEdge records or refreshes a column-level edge.
func (s *LineageService) CreateColumnLineageEdge(ctx context.Context, req domain.CreateColumnLineageEdgeRequest) (*domain.ColumnLineageEdge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.assets.GetByID(ctx, req.SourceAssetID); err != nil {
		return nil, err
	}
	if _, err := s.assets.GetByID(ctx, req.TargetAssetID); err != nil {
		return nil, err
	}
	return s.colEdges.Upsert(ctx, &domain.ColumnLineageEdge{
		ID:                       domain.NewID(),
		SourceAssetID:            req.SourceAssetID,
		SourceColumn:             req.SourceColumn,
		TargetAssetID:            req.TargetAssetID,
		TargetColumn:             req.TargetColumn,
		TransformationType:       req.TransformationType,
		TransformationExpression: req.TransformationExpression,
		Confidence:               req.EffectiveConfidence(),
		LineageEdgeID:            req.LineageEdgeID,
	})
}

// DeleteColumnLineageEdge removes a column-level edge by id.
func (s *LineageService) DeleteColumnLineageEdge(ctx context.Context, id string) error {
	return s.colEdges.Delete(ctx, id)
}

// ListColumnLineageForAsset returns the column-level edges touching an
// asset.
func (s *LineageService) ListColumnLineageForAsset(ctx context.Context, assetID string) ([]domain.ColumnLineageEdge, error) {
	return s.colEdges.ListForAsset(ctx, assetID)
}

// ParseSQLLineage extracts table-level lineage from a SQL batch.
func (s *LineageService) ParseSQLLineage(sql, dialect string) (*sqllineage.TableLineage, []sqllineage.ExtractionError) {
	return sqllineage.ParseTableLineage(sql, dialect)
}

// ParseSQLColumnLineage extracts column-level lineage from a SQL batch.
func (s *LineageService) ParseSQLColumnLineage(sql, dialect string) *sqllineage.ColumnLineageResult {
	return sqllineage.ParseColumnLineage(sql, dialect)
}

// PurgeOlderThan removes asset-level edges older than the given number
// of days and returns the count removed.
func (s *LineageService) PurgeOlderThan(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, domain.ErrValidation("retention days must be positive")
	}
	before := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	return s.edges.PurgeOlderThan(ctx, before)
}
