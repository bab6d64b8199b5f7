package service

import (
	"context"

	"metalake/internal/domain"
)

// RelationshipService manages typed asset relationships and enforces
// acyclicity for the hierarchical types.
type RelationshipService struct {
	assets domain.AssetRepository
	rels   domain.RelationshipRepository
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(assets domain.AssetRepository, rels domain.RelationshipRepository) *RelationshipService {
	return &RelationshipService{assets: assets, rels: rels}
}

// CreateRelationship records a relationship between two assets. For the
// hierarchical types (DERIVED_FROM, DEPENDS_ON, CONTAINS) a write that
// would close a cycle within that type's graph is rejected.
func (s *RelationshipService) CreateRelationship(ctx context.Context, req domain.CreateRelationshipRequest) (*domain.AssetRelationship, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.assets.GetByID(ctx, req.SourceAssetID); err != nil {
		return nil, err
	}
	if _, err := s.assets.GetByID(ctx, req.TargetAssetID); err != nil {
		return nil, err
	}

	if domain.IsHierarchicalRelationship(req.RelationshipType) {
		cyclic, err := s.wouldCreateCycle(ctx, req.SourceAssetID, req.TargetAssetID, req.RelationshipType)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, domain.ErrConflict("%s relationship from %s to %s would create a cycle",
				req.RelationshipType, req.SourceAssetID, req.TargetAssetID)
		}
	}

	return s.rels.Create(ctx, &domain.AssetRelationship{
		ID:               domain.NewID(),
		SourceAssetID:    req.SourceAssetID,
		TargetAssetID:    req.TargetAssetID,
		RelationshipType: req.RelationshipType,
		Metadata:         req.Metadata,
	})
}

// wouldCreateCycle reports whether adding source->target would close a
// cycle: a breadth-first search from the proposed target, following only
// existing edges of the same relationship type, that reaches the
// proposed source.
func (s *RelationshipService) wouldCreateCycle(ctx context.Context, sourceID, targetID, relType string) (bool, error) {
	existing, err := s.rels.ListByType(ctx, relType)
	if err != nil {
		return false, err
	}

	adjacency := make(map[string][]string)
	for _, rel := range existing {
		adjacency[rel.SourceAssetID] = append(adjacency[rel.SourceAssetID], rel.TargetAssetID)
	}

	visited := map[string]bool{targetID: true}
	frontier := []string{targetID}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if current == sourceID {
			return true, nil
		}
		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return false, nil
}

// GetRelationship returns a relationship by id.
func (s *RelationshipService) GetRelationship(ctx context.Context, id string) (*domain.AssetRelationship, error) {
	return s.rels.GetByID(ctx, id)
}

// DeleteRelationship removes a relationship by id.
func (s *RelationshipService) DeleteRelationship(ctx context.Context, id string) error {
	return s.rels.Delete(ctx, id)
}

// ListRelationshipsForAsset returns all relationships touching an asset.
func (s *RelationshipService) ListRelationshipsForAsset(ctx context.Context, assetID string) ([]domain.AssetRelationship, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.rels.ListForAsset(ctx, assetID)
}
