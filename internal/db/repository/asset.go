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

// AssetRepo implements domain.AssetRepository using SQLite.
type AssetRepo struct {
	db *sql.DB
}

// NewAssetRepo creates a new AssetRepo.
func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{db: db}
}

const assetColumns = "id, name, type, description, created_by, created_at, updated_at"

// GetByID returns the asset with the given id.
func (r *AssetRepo) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	return scanAsset(row, fmt.Sprintf("asset %q not found", id))
}

// GetByName returns the asset with the given name (exact match).
func (r *AssetRepo) GetByName(ctx context.Context, name string) (*domain.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE name = ?", name)
	return scanAsset(row, fmt.Sprintf("asset named %q not found", name))
}

// GetByIDs returns the subset of assets whose ids exist, keyed by id.
// Missing ids are simply absent from the result, never an error.
func (r *AssetRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Asset, error) {
	result := make(map[string]domain.Asset, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query assets by ids: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Description, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		result[a.ID] = a
	}
	return result, rows.Err()
}

// Create inserts a new asset. The caller owns id generation.
func (r *AssetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assets (id, name, type, description, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.Name, asset.Type, asset.Description, asset.CreatedBy, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrConflict("asset named %q already exists", asset.Name)
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// List returns a page of assets ordered by name.
func (r *AssetRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Asset, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets ORDER BY name LIMIT ? OFFSET ?",
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Description, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, total, rows.Err()
}

func scanAsset(row *sql.Row, notFoundMsg string) (*domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Description, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Message: notFoundMsg}
	}
	if err != nil {
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	return &a, nil
}
