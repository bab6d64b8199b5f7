package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metalake/internal/db"
	"metalake/internal/domain"
)

func TestColumnLineageRepo_Upsert_SameTupleUpdates(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewColumnLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "src", "dst")

	first, err := repo.Upsert(ctx, &domain.ColumnLineageEdge{
		ID:                 domain.NewID(),
		SourceAssetID:      ids["src"],
		SourceColumn:       "amount",
		TargetAssetID:      ids["dst"],
		TargetColumn:       "total",
		TransformationType: domain.ColumnTransformDirect,
		Confidence:         1.0,
	})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, &domain.ColumnLineageEdge{
		ID:                       domain.NewID(),
		SourceAssetID:            ids["src"],
		SourceColumn:             "amount",
		TargetAssetID:            ids["dst"],
		TargetColumn:             "total",
		TransformationType:       domain.ColumnTransformAggregated,
		TransformationExpression: "SUM(amount)",
		Confidence:               0.9,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.ColumnTransformAggregated, second.TransformationType)
	assert.InDelta(t, 0.9, second.Confidence, 1e-9)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestColumnLineageRepo_ListForAsset_BothSides(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewColumnLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "a", "b", "c")
	for _, e := range []struct{ src, dst string }{{"a", "b"}, {"b", "c"}} {
		_, err := repo.Upsert(ctx, &domain.ColumnLineageEdge{
			ID:                 domain.NewID(),
			SourceAssetID:      ids[e.src],
			SourceColumn:       "x",
			TargetAssetID:      ids[e.dst],
			TargetColumn:       "y",
			TransformationType: domain.ColumnTransformDirect,
			Confidence:         1.0,
		})
		require.NoError(t, err)
	}

	got, err := repo.ListForAsset(ctx, ids["b"])
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListForAsset(ctx, ids["a"])
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestColumnLineageRepo_Delete(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewColumnLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "src", "dst")
	edge, err := repo.Upsert(ctx, &domain.ColumnLineageEdge{
		ID:                 domain.NewID(),
		SourceAssetID:      ids["src"],
		SourceColumn:       "a",
		TargetAssetID:      ids["dst"],
		TargetColumn:       "b",
		TransformationType: domain.ColumnTransformDirect,
		Confidence:         1.0,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, edge.ID))

	var notFound *domain.NotFoundError
	require.ErrorAs(t, repo.Delete(ctx, edge.ID), &notFound)
}
