package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metalake/internal/domain"
)

func newBusinessLineage(f *fixture) *BusinessLineageService {
	return NewBusinessLineageService(f.edges, f.glossary)
}

func (f *fixture) term(t *testing.T, name string) string {
	t.Helper()
	id := domain.NewID()
	_, err := f.writeDB.ExecContext(context.Background(),
		"INSERT INTO business_terms (id, name, status, created_at) VALUES (?, ?, ?, ?)",
		id, name, domain.TermStatusApproved, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func (f *fixture) mapTerm(t *testing.T, termID, assetID string) {
	t.Helper()
	_, err := f.writeDB.ExecContext(context.Background(),
		"INSERT INTO semantic_mappings (id, term_id, asset_id, strength, created_at) VALUES (?, ?, ?, 1.0, ?)",
		domain.NewID(), termID, assetID, time.Now().UTC())
	require.NoError(t, err)
}

func TestBusinessLineage_UnknownTermIsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := newBusinessLineage(f)

	_, err := svc.GetBusinessLineage(context.Background(), "missing", 5)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestBusinessLineage_DerivesTermEdge(t *testing.T) {
	f := newFixture(t)
	svc := newBusinessLineage(f)
	ctx := context.Background()

	orders := f.asset(t, "orders", domain.AssetTypeTable)
	revenue := f.asset(t, "revenue_daily", domain.AssetTypeTable)
	f.edge(t, orders, revenue)

	orderTerm := f.term(t, "Order")
	revenueTerm := f.term(t, "Revenue")
	f.mapTerm(t, orderTerm, orders)
	f.mapTerm(t, revenueTerm, revenue)

	graph, err := svc.GetBusinessLineage(ctx, orderTerm, 5)
	require.NoError(t, err)

	require.Len(t, graph.Edges, 1)
	edge := graph.Edges[0]
	assert.Equal(t, orderTerm, edge.SourceTermID)
	assert.Equal(t, revenueTerm, edge.TargetTermID)
	assert.InDelta(t, 0.5, edge.Strength, 1e-9)
	require.Len(t, edge.AssetPaths, 1)
	assert.Equal(t, []string{orders, revenue}, edge.AssetPaths[0])

	require.Len(t, graph.Nodes, 2)
	for _, node := range graph.Nodes {
		assert.Equal(t, 1, node.AssetCount)
	}
}

func TestBusinessLineage_MultiplePathsAccumulateStrength(t *testing.T) {
	f := newFixture(t)
	svc := newBusinessLineage(f)
	ctx := context.Background()

	ordersA := f.asset(t, "orders_eu", domain.AssetTypeTable)
	ordersB := f.asset(t, "orders_us", domain.AssetTypeTable)
	revenue := f.asset(t, "revenue", domain.AssetTypeTable)
	f.edge(t, ordersA, revenue)
	f.edge(t, ordersB, revenue)

	orderTerm := f.term(t, "Order")
	revenueTerm := f.term(t, "Revenue")
	f.mapTerm(t, orderTerm, ordersA)
	f.mapTerm(t, orderTerm, ordersB)
	f.mapTerm(t, revenueTerm, revenue)

	graph, err := svc.GetBusinessLineage(ctx, orderTerm, 5)
	require.NoError(t, err)

	require.Len(t, graph.Edges, 1)
	edge := graph.Edges[0]
	assert.InDelta(t, 0.6, edge.Strength, 1e-9)
	assert.Len(t, edge.AssetPaths, 2)

	var orderNode domain.TermNode
	for _, node := range graph.Nodes {
		if node.TermID == orderTerm {
			orderNode = node
		}
	}
	assert.Equal(t, 2, orderNode.AssetCount)
}

func TestBusinessLineage_SelfPairsExcluded(t *testing.T) {
	f := newFixture(t)
	svc := newBusinessLineage(f)
	ctx := context.Background()

	staging := f.asset(t, "staging", domain.AssetTypeTable)
	mart := f.asset(t, "mart", domain.AssetTypeTable)
	f.edge(t, staging, mart)

	// Both endpoints carry the same single term, so no edge is derived.
	term := f.term(t, "Order")
	f.mapTerm(t, term, staging)
	f.mapTerm(t, term, mart)

	graph, err := svc.GetBusinessLineage(ctx, term, 5)
	require.NoError(t, err)

	assert.Empty(t, graph.Edges)
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, term, graph.Nodes[0].TermID)
	assert.Equal(t, 2, graph.Nodes[0].AssetCount)
}

func TestBusinessLineage_TermWithoutMappings(t *testing.T) {
	f := newFixture(t)
	svc := newBusinessLineage(f)

	term := f.term(t, "Orphan")
	graph, err := svc.GetBusinessLineage(context.Background(), term, 5)
	require.NoError(t, err)

	assert.Empty(t, graph.Edges)
	require.Len(t, graph.Nodes, 1)
	assert.Zero(t, graph.Nodes[0].AssetCount)
}

func TestBusinessLineage_IndirectTermsViaTraversal(t *testing.T) {
	f := newFixture(t)
	svc := newBusinessLineage(f)
	ctx := context.Background()

	raw := f.asset(t, "raw", domain.AssetTypeTable)
	staging := f.asset(t, "staging", domain.AssetTypeTable)
	mart := f.asset(t, "mart", domain.AssetTypeTable)
	f.edge(t, raw, staging)
	f.edge(t, staging, mart)

	rawTerm := f.term(t, "Raw")
	stagingTerm := f.term(t, "Staging")
	martTerm := f.term(t, "Mart")
	f.mapTerm(t, rawTerm, raw)
	f.mapTerm(t, stagingTerm, staging)
	f.mapTerm(t, martTerm, mart)

	// Starting from the middle term reaches both neighbours.
	graph, err := svc.GetBusinessLineage(ctx, stagingTerm, 5)
	require.NoError(t, err)

	assert.Len(t, graph.Nodes, 3)
	require.Len(t, graph.Edges, 2)
	pairs := map[[2]string]bool{}
	for _, edge := range graph.Edges {
		pairs[[2]string{edge.SourceTermID, edge.TargetTermID}] = true
	}
	assert.True(t, pairs[[2]string{rawTerm, stagingTerm}])
	assert.True(t, pairs[[2]string{stagingTerm, martTerm}])
}
