package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metalake/internal/db"
	"metalake/internal/domain"
)

func TestRelationshipRepo_Create_DuplicateTriple(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewRelationshipRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "a", "b")

	_, err := repo.Create(ctx, &domain.AssetRelationship{
		ID:               domain.NewID(),
		SourceAssetID:    ids["a"],
		TargetAssetID:    ids["b"],
		RelationshipType: domain.RelationshipDerivedFrom,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.AssetRelationship{
		ID:               domain.NewID(),
		SourceAssetID:    ids["a"],
		TargetAssetID:    ids["b"],
		RelationshipType: domain.RelationshipDerivedFrom,
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// A different type between the same assets is fine.
	_, err = repo.Create(ctx, &domain.AssetRelationship{
		ID:               domain.NewID(),
		SourceAssetID:    ids["a"],
		TargetAssetID:    ids["b"],
		RelationshipType: domain.RelationshipRelatedTo,
	})
	require.NoError(t, err)
}

func TestRelationshipRepo_ListByType(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewRelationshipRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "a", "b", "c")
	mk := func(src, dst, relType string) {
		_, err := repo.Create(ctx, &domain.AssetRelationship{
			ID:               domain.NewID(),
			SourceAssetID:    ids[src],
			TargetAssetID:    ids[dst],
			RelationshipType: relType,
		})
		require.NoError(t, err)
	}
	mk("a", "b", domain.RelationshipDependsOn)
	mk("b", "c", domain.RelationshipDependsOn)
	mk("a", "c", domain.RelationshipContains)

	got, err := repo.ListByType(ctx, domain.RelationshipDependsOn)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListByType(ctx, domain.RelationshipContains)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRelationshipRepo_Delete(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewRelationshipRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "a", "b")
	rel, err := repo.Create(ctx, &domain.AssetRelationship{
		ID:               domain.NewID(),
		SourceAssetID:    ids["a"],
		TargetAssetID:    ids["b"],
		RelationshipType: domain.RelationshipReplaces,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, rel.ID))

	var notFound *domain.NotFoundError
	require.ErrorAs(t, repo.Delete(ctx, rel.ID), &notFound)
}
