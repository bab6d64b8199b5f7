package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"metalake/internal/domain"
)

// GlossaryRepo implements domain.GlossaryRepository using SQLite. The
// lineage engine reads terms and mappings; writes stay with the glossary
// module of the catalog (tests seed rows directly).
type GlossaryRepo struct {
	db *sql.DB
}

// NewGlossaryRepo creates a new GlossaryRepo.
func NewGlossaryRepo(db *sql.DB) *GlossaryRepo {
	return &GlossaryRepo{db: db}
}

// GetTerm returns the business term with the given id.
func (r *GlossaryRepo) GetTerm(ctx context.Context, id string) (*domain.BusinessTerm, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, status, created_at FROM business_terms WHERE id = ?", id)

	var t domain.BusinessTerm
	err := row.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("business term %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan business term: %w", err)
	}
	return &t, nil
}

// GetTerms returns the subset of terms whose ids exist, keyed by id.
func (r *GlossaryRepo) GetTerms(ctx context.Context, ids []string) (map[string]domain.BusinessTerm, error) {
	result := make(map[string]domain.BusinessTerm, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, status, created_at FROM business_terms WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query business terms: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var t domain.BusinessTerm
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan business term: %w", err)
		}
		result[t.ID] = t
	}
	return result, rows.Err()
}

const mappingColumns = "id, term_id, asset_id, column_name, strength, created_at"

// ListMappingsByTerm returns all semantic mappings for one term.
func (r *GlossaryRepo) ListMappingsByTerm(ctx context.Context, termID string) ([]domain.SemanticMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mappingColumns+" FROM semantic_mappings WHERE term_id = ?", termID)
	if err != nil {
		return nil, fmt.Errorf("list mappings by term: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanMappings(rows)
}

// ListMappingsByAssets returns all semantic mappings touching any of the
// given assets.
func (r *GlossaryRepo) ListMappingsByAssets(ctx context.Context, assetIDs []string) ([]domain.SemanticMapping, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(assetIDs)), ",")
	args := make([]interface{}, len(assetIDs))
	for i, id := range assetIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mappingColumns+" FROM semantic_mappings WHERE asset_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("list mappings by assets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanMappings(rows)
}

func scanMappings(rows *sql.Rows) ([]domain.SemanticMapping, error) {
	var mappings []domain.SemanticMapping
	for rows.Next() {
		var m domain.SemanticMapping
		var column sql.NullString
		if err := rows.Scan(&m.ID, &m.TermID, &m.AssetID, &column, &m.Strength, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan semantic mapping: %w", err)
		}
		m.ColumnName = ptrFromNullStr(column)
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
