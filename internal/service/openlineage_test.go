package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metalake/internal/domain"
)

const testSystemPrincipal = "system"

func newIngestion(f *fixture) *IngestionService {
	return NewIngestionService(f.assets, f.edges, testSystemPrincipal, slog.Default())
}

func olEvent(eventType string, inputs, outputs []string) *domain.OpenLineageEvent {
	event := &domain.OpenLineageEvent{
		EventType: eventType,
		Run:       domain.OpenLineageRun{RunID: "run-1"},
		Job:       domain.OpenLineageJob{Namespace: "airflow", Name: "daily_revenue"},
	}
	for _, name := range inputs {
		event.Inputs = append(event.Inputs, domain.OpenLineageDataset{Namespace: "warehouse", Name: name})
	}
	for _, name := range outputs {
		event.Outputs = append(event.Outputs, domain.OpenLineageDataset{Namespace: "warehouse", Name: name})
	}
	return event
}

func TestIngestion_StartEventProducesNoEdges(t *testing.T) {
	f := newFixture(t)
	svc := newIngestion(f)
	ctx := context.Background()

	require.NoError(t, svc.IngestLineageEvent(ctx, olEvent(domain.OpenLineageEventStart, []string{"orders"}, []string{"revenue"})))

	edges, err := f.edges.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestIngestion_CompleteEventProducesEdge(t *testing.T) {
	f := newFixture(t)
	svc := newIngestion(f)
	ctx := context.Background()

	require.NoError(t, svc.IngestLineageEvent(ctx, olEvent(domain.OpenLineageEventComplete, []string{"orders"}, []string{"revenue"})))

	edges, err := f.edges.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, domain.TransformationOpenLineage, edges[0].TransformationType)
	assert.Equal(t, "airflow", edges[0].Metadata["job_namespace"])
	assert.Equal(t, "daily_revenue", edges[0].Metadata["job_name"])
	assert.Equal(t, "run-1", edges[0].Metadata["run_id"])

	source, err := f.assets.GetByName(ctx, "warehouse.orders")
	require.NoError(t, err)
	assert.Equal(t, source.ID, edges[0].SourceAssetID)
}

func TestIngestion_AutoProvisionsAssetsOnce(t *testing.T) {
	f := newFixture(t)
	svc := newIngestion(f)
	ctx := context.Background()

	event := olEvent(domain.OpenLineageEventComplete, []string{"orders"}, []string{"revenue"})
	require.NoError(t, svc.IngestLineageEvent(ctx, event))
	require.NoError(t, svc.IngestLineageEvent(ctx, event))

	assets, total, err := f.assets.List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, a := range assets {
		assert.Equal(t, testSystemPrincipal, a.CreatedBy)
		assert.Equal(t, domain.AssetTypeDataset, a.Type)
	}

	// Repeated ingestion upserts the same edge instead of duplicating.
	edges, err := f.edges.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestIngestion_ExistingAssetReused(t *testing.T) {
	f := newFixture(t)
	svc := newIngestion(f)
	ctx := context.Background()

	existing := f.asset(t, "warehouse.orders", domain.AssetTypeTable)
	require.NoError(t, svc.IngestLineageEvent(ctx, olEvent(domain.OpenLineageEventComplete, []string{"orders"}, []string{"revenue"})))

	edges, err := f.edges.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, existing, edges[0].SourceAssetID)
}

func TestIngestion_MultipleInputsAndOutputs(t *testing.T) {
	f := newFixture(t)
	svc := newIngestion(f)
	ctx := context.Background()

	event := olEvent(domain.OpenLineageEventComplete, []string{"orders", "customers"}, []string{"revenue", "audit"})
	require.NoError(t, svc.IngestLineageEvent(ctx, event))

	edges, err := f.edges.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 4)
}

func TestIngestion_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	svc := newIngestion(f)

	var validation *domain.ValidationError
	err := svc.IngestLineageEvent(context.Background(), &domain.OpenLineageEvent{EventType: domain.OpenLineageEventComplete})
	require.ErrorAs(t, err, &validation)
}
