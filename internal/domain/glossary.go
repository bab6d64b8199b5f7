package domain

import "time"

// Business term lifecycle states.
const (
	TermStatusDraft      = "DRAFT"
	TermStatusApproved   = "APPROVED"
	TermStatusDeprecated = "DEPRECATED"
)

// BusinessTerm is a glossary entry. The lineage engine only reads terms;
// ownership lives with the glossary module of the catalog.
type BusinessTerm struct {
	ID        string
	Name      string
	Status    string
	CreatedAt time.Time
}

// SemanticMapping links a business term to an asset (optionally a column)
// with a mapping strength in [0,1].
type SemanticMapping struct {
	ID         string
	TermID     string
	AssetID    string
	ColumnName *string
	Strength   float64
	CreatedAt  time.Time
}

// TermNode is a node in a derived business-lineage graph.
type TermNode struct {
	TermID     string `json:"termId"`
	Name       string `json:"name"`
	AssetCount int    `json:"assetCount"` // number of distinct assets mapped to the term
}

// TermEdge is a derived term-to-term lineage edge. Strength accumulates
// with each distinct asset path that evidences the edge, capped at 1.0.
// Each path is the ordered list of asset ids along one technical edge.
type TermEdge struct {
	SourceTermID string     `json:"sourceTermId"`
	TargetTermID string     `json:"targetTermId"`
	Strength     float64    `json:"strength"`
	AssetPaths   [][]string `json:"assetPaths"`
}

// TermLineageGraph is the answer to a business-lineage query.
type TermLineageGraph struct {
	Nodes []TermNode `json:"nodes"`
	Edges []TermEdge `json:"edges"`
}
