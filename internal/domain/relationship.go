package domain

import "time"

// Relationship types between assets.
const (
	RelationshipDerivedFrom = "DERIVED_FROM"
	RelationshipRelatedTo   = "RELATED_TO"
	RelationshipReplaces    = "REPLACES"
	RelationshipContains    = "CONTAINS"
	RelationshipDependsOn   = "DEPENDS_ON"
)

// ValidRelationshipTypes is the set of accepted relationship types.
var ValidRelationshipTypes = map[string]bool{
	RelationshipDerivedFrom: true, RelationshipRelatedTo: true,
	RelationshipReplaces: true, RelationshipContains: true,
	RelationshipDependsOn: true,
}

// hierarchicalRelationshipTypes are the directed types whose per-type
// graph must remain acyclic.
var hierarchicalRelationshipTypes = map[string]bool{
	RelationshipDerivedFrom: true,
	RelationshipDependsOn:   true,
	RelationshipContains:    true,
}

// IsHierarchicalRelationship reports whether the given type is subject to
// write-time cycle checking.
func IsHierarchicalRelationship(relType string) bool {
	return hierarchicalRelationshipTypes[relType]
}

// AssetRelationship links two assets. The triple
// (SourceAssetID, TargetAssetID, RelationshipType) is unique.
type AssetRelationship struct {
	ID               string
	SourceAssetID    string
	TargetAssetID    string
	RelationshipType string
	Metadata         map[string]string
	CreatedAt        time.Time
}

// CreateRelationshipRequest holds parameters for creating a relationship.
type CreateRelationshipRequest struct {
	SourceAssetID    string
	TargetAssetID    string
	RelationshipType string
	Metadata         map[string]string
}

// Validate checks that the request is well-formed.
func (r *CreateRelationshipRequest) Validate() error {
	if r.SourceAssetID == "" {
		return ErrValidation("source_asset_id is required")
	}
	if r.TargetAssetID == "" {
		return ErrValidation("target_asset_id is required")
	}
	if r.SourceAssetID == r.TargetAssetID {
		return ErrValidation("asset cannot have a relationship with itself")
	}
	if !ValidRelationshipTypes[r.RelationshipType] {
		return ErrValidation("relationship_type must be one of DERIVED_FROM, RELATED_TO, REPLACES, CONTAINS, DEPENDS_ON")
	}
	return nil
}
