package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metalake/internal/db"
	"metalake/internal/domain"
)

func seedAssets(t *testing.T, repo *AssetRepo, names ...string) map[string]string {
	t.Helper()
	ids := make(map[string]string, len(names))
	for _, name := range names {
		a := newAsset(name, domain.AssetTypeTable)
		require.NoError(t, repo.Create(context.Background(), a))
		ids[name] = a.ID
	}
	return ids
}

func TestLineageRepo_Upsert_SamePairUpdates(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "src", "dst")

	first, err := repo.Upsert(ctx, &domain.LineageEdge{
		ID:                 domain.NewID(),
		SourceAssetID:      ids["src"],
		TargetAssetID:      ids["dst"],
		TransformationType: "sql",
	})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, &domain.LineageEdge{
		ID:                  domain.NewID(),
		SourceAssetID:       ids["src"],
		TargetAssetID:       ids["dst"],
		TransformationType:  "aggregation",
		TransformationLogic: "GROUP BY day",
	})
	require.NoError(t, err)

	// Same pair keeps the original row identity.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "aggregation", second.TransformationType)
	assert.Equal(t, "GROUP BY day", second.TransformationLogic)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLineageRepo_Update_Partial(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "src", "dst")
	edge, err := repo.Upsert(ctx, &domain.LineageEdge{
		ID:                 domain.NewID(),
		SourceAssetID:      ids["src"],
		TargetAssetID:      ids["dst"],
		TransformationType: "sql",
		Metadata:           map[string]string{"job": "etl"},
	})
	require.NoError(t, err)

	logic := "SELECT * FROM src"
	updated, err := repo.Update(ctx, edge.ID, domain.UpdateLineageEdgeRequest{
		TransformationLogic: &logic,
	})
	require.NoError(t, err)
	assert.Equal(t, "sql", updated.TransformationType)
	assert.Equal(t, logic, updated.TransformationLogic)
	assert.Equal(t, "etl", updated.Metadata["job"])
}

func TestLineageRepo_Update_NotFound(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewLineageRepo(writeDB)

	logic := "x"
	_, err := repo.Update(context.Background(), "missing", domain.UpdateLineageEdgeRequest{
		TransformationLogic: &logic,
	})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestLineageRepo_List_Filtered(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}} {
		_, err := repo.Upsert(ctx, &domain.LineageEdge{
			ID:                 domain.NewID(),
			SourceAssetID:      ids[pair[0]],
			TargetAssetID:      ids[pair[1]],
			TransformationType: "sql",
		})
		require.NoError(t, err)
	}

	src := ids["a"]
	edges, total, err := repo.List(ctx, domain.EdgeFilter{SourceAssetID: &src})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, src, e.SourceAssetID)
	}
}

func TestLineageRepo_PurgeOlderThan(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	assets := NewAssetRepo(writeDB)
	repo := NewLineageRepo(writeDB)
	ctx := context.Background()

	ids := seedAssets(t, assets, "a", "b")
	_, err := repo.Upsert(ctx, &domain.LineageEdge{
		ID:                 domain.NewID(),
		SourceAssetID:      ids["a"],
		TargetAssetID:      ids["b"],
		TransformationType: "sql",
	})
	require.NoError(t, err)

	// Nothing is older than an hour ago.
	n, err := repo.PurgeOlderThan(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	// Everything is older than an hour from now.
	n, err = repo.PurgeOlderThan(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
