package service

import (
	"context"
	"errors"
	"log/slog"

	"metalake/internal/domain"
)

// IngestionService turns OpenLineage run events into lineage edges and
// auto-provisioned assets.
type IngestionService struct {
	assets domain.AssetRepository
	edges  domain.LineageRepository

	// systemPrincipal attributes auto-created assets. Injected from
	// configuration so there is no find-or-create race on a user row.
	systemPrincipal string
	logger          *slog.Logger
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(assets domain.AssetRepository, edges domain.LineageRepository, systemPrincipal string, logger *slog.Logger) *IngestionService {
	return &IngestionService{
		assets:          assets,
		edges:           edges,
		systemPrincipal: systemPrincipal,
		logger:          logger,
	}
}

// IngestLineageEvent processes one OpenLineage event. Only COMPLETE
// events produce edges; other phases are accepted and ignored. Failures
// resolving or writing a single (input, output) pair are logged and do
// not abort the rest of the event.
func (s *IngestionService) IngestLineageEvent(ctx context.Context, event *domain.OpenLineageEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.EventType != domain.OpenLineageEventComplete {
		s.logger.Debug("ignoring non-complete lineage event",
			"event_type", event.EventType, "job", event.Job.Name)
		return nil
	}

	resolved := make(map[string]*domain.Asset)
	metadata := map[string]string{
		"job_namespace": event.Job.Namespace,
		"job_name":      event.Job.Name,
		"run_id":        event.Run.RunID,
	}

	for _, output := range event.Outputs {
		target, err := s.resolveDataset(ctx, output, resolved)
		if err != nil {
			s.logger.Error("resolve output dataset failed",
				"dataset", output.QualifiedName(), "error", err)
			continue
		}
		for _, input := range event.Inputs {
			source, err := s.resolveDataset(ctx, input, resolved)
			if err != nil {
				s.logger.Error("resolve input dataset failed",
					"dataset", input.QualifiedName(), "error", err)
				continue
			}
			if source.ID == target.ID {
				continue
			}
			_, err = s.edges.Upsert(ctx, &domain.LineageEdge{
				ID:                  domain.NewID(),
				SourceAssetID:       source.ID,
				TargetAssetID:       target.ID,
				TransformationType:  domain.TransformationOpenLineage,
				TransformationLogic: "job " + event.Job.Name,
				Metadata:            metadata,
			})
			if err != nil {
				s.logger.Error("upsert lineage edge failed",
					"source", source.ID, "target", target.ID, "error", err)
			}
		}
	}
	return nil
}

// resolveDataset maps a dataset descriptor to a catalog asset by exact
// qualified-name match, auto-creating a minimal asset under the system
// principal when absent. This is the only place the engine creates an
// asset.
func (s *IngestionService) resolveDataset(ctx context.Context, dataset domain.OpenLineageDataset, cache map[string]*domain.Asset) (*domain.Asset, error) {
	name := dataset.QualifiedName()
	if asset, ok := cache[name]; ok {
		return asset, nil
	}

	asset, err := s.assets.GetByName(ctx, name)
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		asset = &domain.Asset{
			ID:        domain.NewID(),
			Name:      name,
			Type:      domain.AssetTypeDataset,
			CreatedBy: s.systemPrincipal,
		}
		createErr := s.assets.Create(ctx, asset)
		var conflict *domain.ConflictError
		if errors.As(createErr, &conflict) {
			// Lost a create race; the row exists now.
			asset, err = s.assets.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
		} else if createErr != nil {
			return nil, createErr
		} else {
			s.logger.Info("auto-provisioned asset from lineage event",
				"asset", name, "created_by", s.systemPrincipal)
		}
	} else if err != nil {
		return nil, err
	}

	cache[name] = asset
	return asset, nil
}
