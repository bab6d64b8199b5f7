// Package api provides the HTTP handlers for the lineage engine REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metalake/internal/middleware"
	"metalake/internal/service"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	lineage       *service.LineageService
	ingestion     *service.IngestionService
	relationships *service.RelationshipService
	business      *service.BusinessLineageService
	logger        *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(
	lineage *service.LineageService,
	ingestion *service.IngestionService,
	relationships *service.RelationshipService,
	business *service.BusinessLineageService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		lineage:       lineage,
		ingestion:     ingestion,
		relationships: relationships,
		business:      business,
		logger:        logger,
	}
}

// Routes mounts every endpoint under /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/lineage", func(r chi.Router) {
			r.Get("/assets/{assetID}/upstream", h.getUpstreamLineage)
			r.Get("/assets/{assetID}/downstream", h.getDownstreamLineage)
			r.Get("/assets/{assetID}/impact", h.performImpactAnalysis)
			r.Get("/assets/{assetID}/columns/{column}/upstream", h.getUpstreamColumnLineage)
			r.Get("/assets/{assetID}/columns/{column}/downstream", h.getDownstreamColumnLineage)
			r.Get("/assets/{assetID}/columns/{column}/impact", h.performColumnImpactAnalysis)
			r.Get("/assets/{assetID}/columns", h.listColumnLineageForAsset)

			r.Get("/edges", h.listEdges)
			r.Post("/edges", h.createLineageEdge)
			r.Get("/edges/{edgeID}", h.getLineageEdge)
			r.Patch("/edges/{edgeID}", h.updateLineageEdge)
			r.Delete("/edges/{edgeID}", h.deleteLineageEdge)

			r.Post("/column-edges", h.createColumnLineageEdge)
			r.Delete("/column-edges/{edgeID}", h.deleteColumnLineageEdge)

			r.Post("/sql/parse", h.parseSQLLineage)
			r.Post("/sql/parse-columns", h.parseSQLColumnLineage)

			r.Post("/events", h.ingestLineageEvent)
		})

		r.Route("/relationships", func(r chi.Router) {
			r.Post("/", h.createRelationship)
			r.Get("/{relationshipID}", h.getRelationship)
			r.Delete("/{relationshipID}", h.deleteRelationship)
		})
		r.Get("/assets/{assetID}/relationships", h.listRelationshipsForAsset)

		r.Get("/business-lineage/terms/{termID}", h.getBusinessLineage)
	})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, map[string]any{
		"code":    status,
		"message": errorMessage(err, status),
	})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    http.StatusBadRequest,
			"message": "invalid JSON body: " + err.Error(),
		})
		return false
	}
	return true
}

// depthParam reads an optional ?depth= query parameter; zero means
// "use the operation default".
func depthParam(r *http.Request) int {
	return intQuery(r.URL.Query().Get("depth"))
}

func intQuery(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
