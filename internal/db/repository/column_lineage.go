package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metalake/internal/domain"
)

// ColumnLineageRepo implements domain.ColumnLineageRepository using SQLite.
type ColumnLineageRepo struct {
	db *sql.DB
}

// NewColumnLineageRepo creates a new ColumnLineageRepo.
func NewColumnLineageRepo(db *sql.DB) *ColumnLineageRepo {
	return &ColumnLineageRepo{db: db}
}

const columnEdgeColumns = "id, source_asset_id, source_column, target_asset_id, target_column, transformation_type, transformation_expression, confidence, lineage_edge_id, created_at, updated_at"

// Upsert inserts the edge, or updates the row matching the unique
// (source asset, source column, target asset, target column) tuple.
func (r *ColumnLineageRepo) Upsert(ctx context.Context, edge *domain.ColumnLineageEdge) (*domain.ColumnLineageEdge, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO column_lineage_edges
		   (id, source_asset_id, source_column, target_asset_id, target_column,
		    transformation_type, transformation_expression, confidence, lineage_edge_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_asset_id, source_column, target_asset_id, target_column) DO UPDATE SET
		   transformation_type       = excluded.transformation_type,
		   transformation_expression = excluded.transformation_expression,
		   confidence                = excluded.confidence,
		   lineage_edge_id           = excluded.lineage_edge_id,
		   updated_at                = excluded.updated_at`,
		edge.ID, edge.SourceAssetID, edge.SourceColumn,
		edge.TargetAssetID, edge.TargetColumn,
		string(edge.TransformationType), edge.TransformationExpression,
		edge.Confidence, nullStrFromPtr(edge.LineageEdgeID), now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert column lineage edge: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+columnEdgeColumns+` FROM column_lineage_edges
		 WHERE source_asset_id = ? AND source_column = ? AND target_asset_id = ? AND target_column = ?`,
		edge.SourceAssetID, edge.SourceColumn, edge.TargetAssetID, edge.TargetColumn)
	return scanColumnEdgeRow(row, "column lineage edge not found after upsert")
}

// GetByID returns the column edge with the given id.
func (r *ColumnLineageRepo) GetByID(ctx context.Context, id string) (*domain.ColumnLineageEdge, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+columnEdgeColumns+" FROM column_lineage_edges WHERE id = ?", id)
	return scanColumnEdgeRow(row, fmt.Sprintf("column lineage edge %q not found", id))
}

// Delete removes a column edge by id.
func (r *ColumnLineageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM column_lineage_edges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete column lineage edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete column lineage edge rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound("column lineage edge %q not found", id)
	}
	return nil
}

// ListForAsset returns all column edges touching the given asset, on
// either side.
func (r *ColumnLineageRepo) ListForAsset(ctx context.Context, assetID string) ([]domain.ColumnLineageEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+columnEdgeColumns+" FROM column_lineage_edges WHERE source_asset_id = ? OR target_asset_id = ?",
		assetID, assetID)
	if err != nil {
		return nil, fmt.Errorf("list column lineage for asset: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanColumnEdges(rows)
}

// ListAll returns the full current column edge set for graph construction.
func (r *ColumnLineageRepo) ListAll(ctx context.Context) ([]domain.ColumnLineageEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+columnEdgeColumns+" FROM column_lineage_edges")
	if err != nil {
		return nil, fmt.Errorf("list all column lineage edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanColumnEdges(rows)
}

func scanColumnEdges(rows *sql.Rows) ([]domain.ColumnLineageEdge, error) {
	var edges []domain.ColumnLineageEdge
	for rows.Next() {
		var e domain.ColumnLineageEdge
		var transformType string
		var edgeID sql.NullString
		if err := rows.Scan(&e.ID, &e.SourceAssetID, &e.SourceColumn,
			&e.TargetAssetID, &e.TargetColumn, &transformType,
			&e.TransformationExpression, &e.Confidence, &edgeID,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan column lineage edge: %w", err)
		}
		e.TransformationType = domain.ColumnTransformType(transformType)
		e.LineageEdgeID = ptrFromNullStr(edgeID)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func scanColumnEdgeRow(row *sql.Row, notFoundMsg string) (*domain.ColumnLineageEdge, error) {
	var e domain.ColumnLineageEdge
	var transformType string
	var edgeID sql.NullString
	err := row.Scan(&e.ID, &e.SourceAssetID, &e.SourceColumn,
		&e.TargetAssetID, &e.TargetColumn, &transformType,
		&e.TransformationExpression, &e.Confidence, &edgeID,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Message: notFoundMsg}
	}
	if err != nil {
		return nil, fmt.Errorf("scan column lineage edge: %w", err)
	}
	e.TransformationType = domain.ColumnTransformType(transformType)
	e.LineageEdgeID = ptrFromNullStr(edgeID)
	return &e, nil
}
