package domain

import (
	"context"
	"time"
)

// AssetRepository is the asset lookup surface the lineage engine consumes.
// Creation is only exercised by the OpenLineage ingestion path.
type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*Asset, error)
	GetByName(ctx context.Context, name string) (*Asset, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]Asset, error)
	Create(ctx context.Context, asset *Asset) error
	List(ctx context.Context, page PageRequest) ([]Asset, int64, error)
}

// LineageRepository is the asset-level edge store.
type LineageRepository interface {
	// Upsert inserts the edge or, when an edge for the same
	// (source, target) pair exists, updates its transformation fields.
	// The returned edge reflects the stored row.
	Upsert(ctx context.Context, edge *LineageEdge) (*LineageEdge, error)
	GetByID(ctx context.Context, id string) (*LineageEdge, error)
	GetByPair(ctx context.Context, sourceAssetID, targetAssetID string) (*LineageEdge, error)
	Update(ctx context.Context, id string, req UpdateLineageEdgeRequest) (*LineageEdge, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EdgeFilter) ([]LineageEdge, int64, error)
	// ListAll returns the full current edge set for graph construction.
	ListAll(ctx context.Context) ([]LineageEdge, error)
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// ColumnLineageRepository is the column-level edge store.
type ColumnLineageRepository interface {
	// Upsert inserts the edge or updates the row matching the
	// (source asset, source column, target asset, target column) tuple.
	Upsert(ctx context.Context, edge *ColumnLineageEdge) (*ColumnLineageEdge, error)
	GetByID(ctx context.Context, id string) (*ColumnLineageEdge, error)
	Delete(ctx context.Context, id string) error
	ListForAsset(ctx context.Context, assetID string) ([]ColumnLineageEdge, error)
	ListAll(ctx context.Context) ([]ColumnLineageEdge, error)
}

// RelationshipRepository stores typed asset relationships.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *AssetRelationship) (*AssetRelationship, error)
	GetByID(ctx context.Context, id string) (*AssetRelationship, error)
	Delete(ctx context.Context, id string) error
	ListByType(ctx context.Context, relType string) ([]AssetRelationship, error)
	ListForAsset(ctx context.Context, assetID string) ([]AssetRelationship, error)
}

// GlossaryRepository is the term and term-to-asset mapping lookup surface.
// The lineage engine never mutates glossary data.
type GlossaryRepository interface {
	GetTerm(ctx context.Context, id string) (*BusinessTerm, error)
	GetTerms(ctx context.Context, ids []string) (map[string]BusinessTerm, error)
	ListMappingsByTerm(ctx context.Context, termID string) ([]SemanticMapping, error)
	ListMappingsByAssets(ctx context.Context, assetIDs []string) ([]SemanticMapping, error)
}
