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

// LineageRepo implements domain.LineageRepository using SQLite.
type LineageRepo struct {
	db *sql.DB
}

// NewLineageRepo creates a new LineageRepo.
func NewLineageRepo(db *sql.DB) *LineageRepo {
	return &LineageRepo{db: db}
}

const lineageEdgeColumns = "id, source_asset_id, target_asset_id, transformation_type, transformation_logic, metadata, created_at, updated_at"

// Upsert inserts the edge, or updates the transformation fields of the
// existing edge for the same (source, target) pair. The stored row is
// returned either way.
func (r *LineageRepo) Upsert(ctx context.Context, edge *domain.LineageEdge) (*domain.LineageEdge, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lineage_edges
		   (id, source_asset_id, target_asset_id, transformation_type, transformation_logic, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_asset_id, target_asset_id) DO UPDATE SET
		   transformation_type  = excluded.transformation_type,
		   transformation_logic = excluded.transformation_logic,
		   metadata             = excluded.metadata,
		   updated_at           = excluded.updated_at`,
		edge.ID, edge.SourceAssetID, edge.TargetAssetID,
		edge.TransformationType, edge.TransformationLogic,
		marshalMetadata(edge.Metadata), now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert lineage edge: %w", err)
	}
	return r.GetByPair(ctx, edge.SourceAssetID, edge.TargetAssetID)
}

// GetByID returns the edge with the given id.
func (r *LineageRepo) GetByID(ctx context.Context, id string) (*domain.LineageEdge, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+lineageEdgeColumns+" FROM lineage_edges WHERE id = ?", id)
	return scanLineageEdgeRow(row, fmt.Sprintf("lineage edge %q not found", id))
}

// GetByPair returns the edge for the unique (source, target) pair.
func (r *LineageRepo) GetByPair(ctx context.Context, sourceAssetID, targetAssetID string) (*domain.LineageEdge, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+lineageEdgeColumns+" FROM lineage_edges WHERE source_asset_id = ? AND target_asset_id = ?",
		sourceAssetID, targetAssetID)
	return scanLineageEdgeRow(row, fmt.Sprintf("lineage edge %s -> %s not found", sourceAssetID, targetAssetID))
}

// Update applies a partial update to an edge by id.
func (r *LineageRepo) Update(ctx context.Context, id string, req domain.UpdateLineageEdgeRequest) (*domain.LineageEdge, error) {
	var sets []string
	var args []interface{}

	if req.TransformationType != nil {
		sets = append(sets, "transformation_type = ?")
		args = append(args, *req.TransformationType)
	}
	if req.TransformationLogic != nil {
		sets = append(sets, "transformation_logic = ?")
		args = append(args, *req.TransformationLogic)
	}
	if req.Metadata != nil {
		sets = append(sets, "metadata = ?")
		args = append(args, marshalMetadata(req.Metadata))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE lineage_edges SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update lineage edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update lineage edge rows affected: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound("lineage edge %q not found", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes an edge by id.
func (r *LineageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM lineage_edges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete lineage edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lineage edge rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound("lineage edge %q not found", id)
	}
	return nil
}

// List returns a filtered page of edges ordered by creation time.
func (r *LineageRepo) List(ctx context.Context, filter domain.EdgeFilter) ([]domain.LineageEdge, int64, error) {
	var conds []string
	var args []interface{}

	if filter.SourceAssetID != nil {
		conds = append(conds, "source_asset_id = ?")
		args = append(args, *filter.SourceAssetID)
	}
	if filter.TargetAssetID != nil {
		conds = append(conds, "target_asset_id = ?")
		args = append(args, *filter.TargetAssetID)
	}
	if filter.TransformationType != nil {
		conds = append(conds, "transformation_type = ?")
		args = append(args, *filter.TransformationType)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lineage_edges"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lineage edges: %w", err)
	}

	listArgs := append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+lineageEdgeColumns+" FROM lineage_edges"+where+" ORDER BY created_at, id LIMIT ? OFFSET ?",
		listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lineage edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	edges, err := scanLineageEdges(rows)
	return edges, total, err
}

// ListAll returns the full current edge set for graph construction.
func (r *LineageRepo) ListAll(ctx context.Context) ([]domain.LineageEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+lineageEdgeColumns+" FROM lineage_edges")
	if err != nil {
		return nil, fmt.Errorf("list all lineage edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanLineageEdges(rows)
}

// PurgeOlderThan removes edges created before the given time and returns
// the number of rows deleted.
func (r *LineageRepo) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM lineage_edges WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge lineage edges: %w", err)
	}
	return res.RowsAffected()
}

func scanLineageEdges(rows *sql.Rows) ([]domain.LineageEdge, error) {
	var edges []domain.LineageEdge
	for rows.Next() {
		var e domain.LineageEdge
		var metadata string
		if err := rows.Scan(&e.ID, &e.SourceAssetID, &e.TargetAssetID,
			&e.TransformationType, &e.TransformationLogic, &metadata,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lineage edge: %w", err)
		}
		e.Metadata = unmarshalMetadata(metadata)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func scanLineageEdgeRow(row *sql.Row, notFoundMsg string) (*domain.LineageEdge, error) {
	var e domain.LineageEdge
	var metadata string
	err := row.Scan(&e.ID, &e.SourceAssetID, &e.TargetAssetID,
		&e.TransformationType, &e.TransformationLogic, &metadata,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Message: notFoundMsg}
	}
	if err != nil {
		return nil, fmt.Errorf("scan lineage edge: %w", err)
	}
	e.Metadata = unmarshalMetadata(metadata)
	return &e, nil
}
