package domain

import "time"

// Traversal depth limits. Callers passing depth <= 0 get the default;
// anything above MaxTraversalDepth is clamped.
const (
	DefaultLineageDepth = 5
	DefaultImpactDepth  = 10
	MaxTraversalDepth   = 50
)

// ClampDepth normalises a caller-supplied traversal depth.
func ClampDepth(depth, fallback int) int {
	if depth <= 0 {
		return fallback
	}
	if depth > MaxTraversalDepth {
		return MaxTraversalDepth
	}
	return depth
}

// LineageEdge records that data flows from one asset to another.
// The (SourceAssetID, TargetAssetID) pair is unique; a second write for
// the same pair updates the existing edge instead of duplicating it.
type LineageEdge struct {
	ID                  string
	SourceAssetID       string
	TargetAssetID       string
	TransformationType  string // free-form, e.g. "sql", "aggregation", "openlineage"
	TransformationLogic string
	Metadata            map[string]string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateLineageEdgeRequest holds parameters for creating or updating an
// asset-level lineage edge.
type CreateLineageEdgeRequest struct {
	SourceAssetID       string
	TargetAssetID       string
	TransformationType  string
	TransformationLogic string
	Metadata            map[string]string
}

// Validate checks that the request is well-formed.
func (r *CreateLineageEdgeRequest) Validate() error {
	if r.SourceAssetID == "" {
		return ErrValidation("source_asset_id is required")
	}
	if r.TargetAssetID == "" {
		return ErrValidation("target_asset_id is required")
	}
	if r.SourceAssetID == r.TargetAssetID {
		return ErrValidation("lineage edge cannot reference the same asset as source and target")
	}
	if r.TransformationType == "" {
		return ErrValidation("transformation_type is required")
	}
	return nil
}

// UpdateLineageEdgeRequest holds partial-update parameters.
type UpdateLineageEdgeRequest struct {
	TransformationType  *string
	TransformationLogic *string
	Metadata            map[string]string // nil = no change
}

// Validate rejects an update that changes nothing.
func (r *UpdateLineageEdgeRequest) Validate() error {
	if r.TransformationType == nil && r.TransformationLogic == nil && r.Metadata == nil {
		return ErrValidation("update must set at least one field")
	}
	if r.TransformationType != nil && *r.TransformationType == "" {
		return ErrValidation("transformation_type must not be empty")
	}
	return nil
}

// EdgeFilter restricts ListEdges results.
type EdgeFilter struct {
	SourceAssetID      *string
	TargetAssetID      *string
	TransformationType *string
	Page               PageRequest
}

// === Column-level lineage ===

// ColumnTransformType classifies how a target column derives from its source.
type ColumnTransformType string

const (
	ColumnTransformDirect     ColumnTransformType = "DIRECT"
	ColumnTransformAggregated ColumnTransformType = "AGGREGATED"
	ColumnTransformDerived    ColumnTransformType = "DERIVED"
	ColumnTransformCase       ColumnTransformType = "CASE"
	ColumnTransformCoalesced  ColumnTransformType = "COALESCED"
)

// ValidColumnTransformTypes is the set of accepted column transform types.
var ValidColumnTransformTypes = map[ColumnTransformType]bool{
	ColumnTransformDirect: true, ColumnTransformAggregated: true,
	ColumnTransformDerived: true, ColumnTransformCase: true,
	ColumnTransformCoalesced: true,
}

// ColumnLineageEdge records data flow between two columns. Uniqueness key
// is the 4-tuple (SourceAssetID, SourceColumn, TargetAssetID, TargetColumn).
type ColumnLineageEdge struct {
	ID                       string
	SourceAssetID            string
	SourceColumn             string
	TargetAssetID            string
	TargetColumn             string
	TransformationType       ColumnTransformType
	TransformationExpression string
	Confidence               float64
	LineageEdgeID            *string // optional back-reference to an asset-level edge
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// CreateColumnLineageEdgeRequest holds parameters for creating or updating
// a column-level lineage edge.
type CreateColumnLineageEdgeRequest struct {
	SourceAssetID            string
	SourceColumn             string
	TargetAssetID            string
	TargetColumn             string
	TransformationType       ColumnTransformType
	TransformationExpression string
	Confidence               *float64 // nil defaults to 1.0
	LineageEdgeID            *string
}

// Validate checks that the request is well-formed.
func (r *CreateColumnLineageEdgeRequest) Validate() error {
	if r.SourceAssetID == "" || r.SourceColumn == "" {
		return ErrValidation("source asset and column are required")
	}
	if r.TargetAssetID == "" || r.TargetColumn == "" {
		return ErrValidation("target asset and column are required")
	}
	if r.SourceAssetID == r.TargetAssetID && r.SourceColumn == r.TargetColumn {
		return ErrValidation("column lineage edge cannot reference the same column as source and target")
	}
	if !ValidColumnTransformTypes[r.TransformationType] {
		return ErrValidation("transformation_type must be one of DIRECT, AGGREGATED, DERIVED, CASE, COALESCED")
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return ErrValidation("confidence must be between 0.0 and 1.0")
	}
	return nil
}

// EffectiveConfidence returns the requested confidence, defaulting to 1.0.
func (r *CreateColumnLineageEdgeRequest) EffectiveConfidence() float64 {
	if r.Confidence == nil {
		return 1.0
	}
	return *r.Confidence
}

// === Traversal results ===

// LineageNode is a node in a lineage graph answer. Column is empty for
// asset-level graphs.
type LineageNode struct {
	AssetID   string `json:"assetId"`
	Column    string `json:"column,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Depth     int    `json:"depth"`
	Synthetic bool   `json:"synthetic,omitempty"` // true when the asset row was missing
}

// LineageGraphEdge is an edge in a lineage graph answer.
type LineageGraphEdge struct {
	ID                 string `json:"id"`
	SourceAssetID      string `json:"sourceAssetId"`
	SourceColumn       string `json:"sourceColumn,omitempty"`
	TargetAssetID      string `json:"targetAssetId"`
	TargetColumn       string `json:"targetColumn,omitempty"`
	TransformationType string `json:"transformationType"`
}

// LineageGraph is the answer to an upstream/downstream lineage query.
type LineageGraph struct {
	Nodes []LineageNode      `json:"nodes"`
	Edges []LineageGraphEdge `json:"edges"`
}

// PathStep is one hop on the path from the analysis origin to an
// impacted node.
type PathStep struct {
	AssetID            string `json:"assetId"`
	Column             string `json:"column,omitempty"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	TransformationType string `json:"transformationType,omitempty"` // of the incoming edge; empty for the origin
}

// ImpactedAsset is a node reached by impact analysis, with the full path
// from the origin.
type ImpactedAsset struct {
	AssetID string     `json:"assetId"`
	Column  string     `json:"column,omitempty"`
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Depth   int        `json:"depth"`
	Path    []PathStep `json:"path"`
}

// ImpactAnalysisResult summarises the downstream blast radius of a change.
type ImpactAnalysisResult struct {
	SourceAssetID  string          `json:"sourceAssetId"`
	SourceColumn   string          `json:"sourceColumn,omitempty"`
	ImpactedAssets []ImpactedAsset `json:"impactedAssets"`
	TotalCount     int             `json:"totalCount"`
	CountByType    map[string]int  `json:"countByType"`
}
