package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"metalake/internal/domain"
)

// RelationshipRepo implements domain.RelationshipRepository using SQLite.
type RelationshipRepo struct {
	db *sql.DB
}

// NewRelationshipRepo creates a new RelationshipRepo.
func NewRelationshipRepo(db *sql.DB) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

const relationshipColumns = "id, source_asset_id, target_asset_id, relationship_type, metadata, created_at"

// Create inserts a relationship. The (source, target, type) triple is
// unique; a duplicate insert is a conflict.
func (r *RelationshipRepo) Create(ctx context.Context, rel *domain.AssetRelationship) (*domain.AssetRelationship, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO asset_relationships (id, source_asset_id, target_asset_id, relationship_type, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.SourceAssetID, rel.TargetAssetID, rel.RelationshipType,
		marshalMetadata(rel.Metadata), now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.ErrConflict("relationship %s from %s to %s already exists",
				rel.RelationshipType, rel.SourceAssetID, rel.TargetAssetID)
		}
		return nil, fmt.Errorf("insert relationship: %w", err)
	}
	rel.CreatedAt = now
	return rel, nil
}

// GetByID returns the relationship with the given id.
func (r *RelationshipRepo) GetByID(ctx context.Context, id string) (*domain.AssetRelationship, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+relationshipColumns+" FROM asset_relationships WHERE id = ?", id)

	var rel domain.AssetRelationship
	var metadata string
	err := row.Scan(&rel.ID, &rel.SourceAssetID, &rel.TargetAssetID,
		&rel.RelationshipType, &metadata, &rel.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("relationship %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan relationship: %w", err)
	}
	rel.Metadata = unmarshalMetadata(metadata)
	return &rel, nil
}

// Delete removes a relationship by id.
func (r *RelationshipRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM asset_relationships WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete relationship rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound("relationship %q not found", id)
	}
	return nil
}

// ListByType returns all relationships of one type. Used by the cycle
// check, which is scoped per relationship type.
func (r *RelationshipRepo) ListByType(ctx context.Context, relType string) ([]domain.AssetRelationship, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+relationshipColumns+" FROM asset_relationships WHERE relationship_type = ?", relType)
	if err != nil {
		return nil, fmt.Errorf("list relationships by type: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanRelationships(rows)
}

// ListForAsset returns all relationships touching an asset, on either side.
func (r *RelationshipRepo) ListForAsset(ctx context.Context, assetID string) ([]domain.AssetRelationship, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+relationshipColumns+" FROM asset_relationships WHERE source_asset_id = ? OR target_asset_id = ?",
		assetID, assetID)
	if err != nil {
		return nil, fmt.Errorf("list relationships for asset: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanRelationships(rows)
}

func scanRelationships(rows *sql.Rows) ([]domain.AssetRelationship, error) {
	var rels []domain.AssetRelationship
	for rows.Next() {
		var rel domain.AssetRelationship
		var metadata string
		if err := rows.Scan(&rel.ID, &rel.SourceAssetID, &rel.TargetAssetID,
			&rel.RelationshipType, &metadata, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rel.Metadata = unmarshalMetadata(metadata)
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}
