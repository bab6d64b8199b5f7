package domain

import "time"

// Asset types recognised by the catalog.
const (
	AssetTypeTable     = "TABLE"
	AssetTypeView      = "VIEW"
	AssetTypeDataset   = "DATASET"
	AssetTypeTopic     = "TOPIC"
	AssetTypePipeline  = "PIPELINE"
	AssetTypeDashboard = "DASHBOARD"
	AssetTypeReport    = "REPORT"
	AssetTypeJob       = "JOB"
	AssetTypeAPI       = "API"
	AssetTypeFile      = "FILE"
	AssetTypeOther     = "OTHER"
)

// ValidAssetTypes is the set of accepted asset type strings.
var ValidAssetTypes = map[string]bool{
	AssetTypeTable: true, AssetTypeView: true, AssetTypeDataset: true,
	AssetTypeTopic: true, AssetTypePipeline: true, AssetTypeDashboard: true,
	AssetTypeReport: true, AssetTypeJob: true, AssetTypeAPI: true,
	AssetTypeFile: true, AssetTypeOther: true,
}

// Asset is a cataloged data entity. The lineage engine treats assets as
// read-only references; the only writer inside this core is the
// OpenLineage ingestion path, which auto-provisions missing assets under
// a configured system principal.
type Asset struct {
	ID          string
	Name        string
	Type        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateAssetRequest holds parameters for creating an asset.
type CreateAssetRequest struct {
	Name        string
	Type        string
	Description string
	CreatedBy   string
}

// Validate checks that the request is well-formed.
func (r *CreateAssetRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if r.Type == "" {
		r.Type = AssetTypeOther
	}
	if !ValidAssetTypes[r.Type] {
		return ErrValidation("unknown asset type %q", r.Type)
	}
	return nil
}
