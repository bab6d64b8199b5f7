package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metalake/internal/domain"
)

func newRelationships(f *fixture) *RelationshipService {
	return NewRelationshipService(f.assets, f.rels)
}

func TestRelationship_TwoNodeCycleRejected(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)
	y := f.asset(t, "y", domain.AssetTypeTable)

	_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: x, TargetAssetID: y, RelationshipType: domain.RelationshipDependsOn,
	})
	require.NoError(t, err)

	var conflict *domain.ConflictError
	_, err = svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: y, TargetAssetID: x, RelationshipType: domain.RelationshipDependsOn,
	})
	require.ErrorAs(t, err, &conflict)
}

func TestRelationship_ThreeNodeCycleRejected(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)
	y := f.asset(t, "y", domain.AssetTypeTable)
	z := f.asset(t, "z", domain.AssetTypeTable)

	for _, pair := range [][2]string{{x, y}, {y, z}} {
		_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
			SourceAssetID: pair[0], TargetAssetID: pair[1], RelationshipType: domain.RelationshipDependsOn,
		})
		require.NoError(t, err)
	}

	var conflict *domain.ConflictError
	_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: z, TargetAssetID: x, RelationshipType: domain.RelationshipDependsOn,
	})
	require.ErrorAs(t, err, &conflict)
}

func TestRelationship_ChainWithoutClosureAllowed(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)
	y := f.asset(t, "y", domain.AssetTypeTable)
	z := f.asset(t, "z", domain.AssetTypeTable)

	for _, pair := range [][2]string{{x, y}, {y, z}} {
		_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
			SourceAssetID: pair[0], TargetAssetID: pair[1], RelationshipType: domain.RelationshipDependsOn,
		})
		require.NoError(t, err)
	}
}

func TestRelationship_CycleCheckScopedPerType(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)
	y := f.asset(t, "y", domain.AssetTypeTable)

	_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: x, TargetAssetID: y, RelationshipType: domain.RelationshipDependsOn,
	})
	require.NoError(t, err)

	// The reverse direction under a different hierarchical type is not a
	// cycle; the check only follows same-type edges.
	_, err = svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: y, TargetAssetID: x, RelationshipType: domain.RelationshipDerivedFrom,
	})
	require.NoError(t, err)
}

func TestRelationship_NonHierarchicalSkipsCycleCheck(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)
	y := f.asset(t, "y", domain.AssetTypeTable)

	for _, pair := range [][2]string{{x, y}, {y, x}} {
		_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
			SourceAssetID: pair[0], TargetAssetID: pair[1], RelationshipType: domain.RelationshipRelatedTo,
		})
		require.NoError(t, err)
	}
}

func TestRelationship_Validation(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)

	var validation *domain.ValidationError
	_, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: x, TargetAssetID: x, RelationshipType: domain.RelationshipDependsOn,
	})
	require.ErrorAs(t, err, &validation)

	_, err = svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: x, TargetAssetID: "other", RelationshipType: "FRIENDS_WITH",
	})
	require.ErrorAs(t, err, &validation)

	var notFound *domain.NotFoundError
	_, err = svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: x, TargetAssetID: "missing", RelationshipType: domain.RelationshipDependsOn,
	})
	require.ErrorAs(t, err, &notFound)
}

func TestRelationship_ListForAsset(t *testing.T) {
	f := newFixture(t)
	svc := newRelationships(f)
	ctx := context.Background()

	x := f.asset(t, "x", domain.AssetTypeTable)
	y := f.asset(t, "y", domain.AssetTypeTable)

	created, err := svc.CreateRelationship(ctx, domain.CreateRelationshipRequest{
		SourceAssetID: x, TargetAssetID: y, RelationshipType: domain.RelationshipContains,
	})
	require.NoError(t, err)

	rels, err := svc.ListRelationshipsForAsset(ctx, y)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, created.ID, rels[0].ID)
}
