// Package app provides application-level wiring and dependency injection
// for the lineage engine.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"

	"metalake/internal/api"
	"metalake/internal/config"
	"metalake/internal/db/repository"
	"metalake/internal/middleware"
	"metalake/internal/service"
)

// Deps holds the external dependencies that main() must provide:
// database handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Lineage         *service.LineageService
	Ingestion       *service.IngestionService
	Relationships   *service.RelationshipService
	BusinessLineage *service.BusinessLineageService
}

// App holds the fully-wired application.
type App struct {
	Services Services
	Router   http.Handler

	cron   *cron.Cron
	logger *slog.Logger
}

// New wires all repositories, services, and the HTTP router from the
// provided deps.
func New(deps Deps) *App {
	cfg := deps.Cfg

	// Repositories (write-pool)
	assetRepo := repository.NewAssetRepo(deps.WriteDB)
	lineageRepo := repository.NewLineageRepo(deps.WriteDB)
	columnLineageRepo := repository.NewColumnLineageRepo(deps.WriteDB)
	relationshipRepo := repository.NewRelationshipRepo(deps.WriteDB)

	// Repositories (read-pool; glossary data is read-only here)
	glossaryRepo := repository.NewGlossaryRepo(deps.ReadDB)

	svcs := Services{
		Lineage:         service.NewLineageService(assetRepo, lineageRepo, columnLineageRepo),
		Ingestion:       service.NewIngestionService(assetRepo, lineageRepo, cfg.SystemPrincipal, deps.Logger.With("component", "ingestion")),
		Relationships:   service.NewRelationshipService(assetRepo, relationshipRepo),
		BusinessLineage: service.NewBusinessLineageService(lineageRepo, glossaryRepo),
	}

	handler := api.NewHandler(
		svcs.Lineage, svcs.Ingestion, svcs.Relationships, svcs.BusinessLineage,
		deps.Logger.With("component", "api"),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	handler.Routes(r)

	return &App{
		Services: svcs,
		Router:   r,
		logger:   deps.Logger,
	}
}

// StartPurgeJob schedules the lineage retention purge when retention is
// configured. Zero retention days disables the job.
func (a *App) StartPurgeJob(cfg *config.Config) error {
	if cfg.LineageRetentionDays <= 0 {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(cfg.LineagePurgeSchedule, func() {
		n, err := a.Services.Lineage.PurgeOlderThan(context.Background(), cfg.LineageRetentionDays)
		if err != nil {
			a.logger.Error("lineage purge failed", "error", err)
			return
		}
		a.logger.Info("lineage purge completed", "edges_deleted", n, "retention_days", cfg.LineageRetentionDays)
	})
	if err != nil {
		return fmt.Errorf("schedule lineage purge (%q): %w", cfg.LineagePurgeSchedule, err)
	}
	c.Start()
	a.cron = c
	a.logger.Info("lineage purge scheduled",
		"schedule", cfg.LineagePurgeSchedule, "retention_days", cfg.LineageRetentionDays)
	return nil
}

// Stop halts background jobs and waits for in-flight runs to finish.
func (a *App) Stop() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
}
