package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"metalake/internal/domain"
)

// edgeResponse is the wire form of an asset-level lineage edge.
type edgeResponse struct {
	ID                  string            `json:"id"`
	SourceAssetID       string            `json:"sourceAssetId"`
	TargetAssetID       string            `json:"targetAssetId"`
	TransformationType  string            `json:"transformationType"`
	TransformationLogic string            `json:"transformationLogic,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

func toEdgeResponse(e *domain.LineageEdge) edgeResponse {
	return edgeResponse{
		ID:                  e.ID,
		SourceAssetID:       e.SourceAssetID,
		TargetAssetID:       e.TargetAssetID,
		TransformationType:  e.TransformationType,
		TransformationLogic: e.TransformationLogic,
		Metadata:            e.Metadata,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

// columnEdgeResponse is the wire form of a column-level lineage edge.
type columnEdgeResponse struct {
	ID                       string    `json:"id"`
	SourceAssetID            string    `json:"sourceAssetId"`
	SourceColumn             string    `json:"sourceColumn"`
	TargetAssetID            string    `json:"targetAssetId"`
	TargetColumn             string    `json:"targetColumn"`
	TransformationType       string    `json:"transformationType"`
	TransformationExpression string    `json:"transformationExpression,omitempty"`
	Confidence               float64   `json:"confidence"`
	LineageEdgeID            *string   `json:"lineageEdgeId,omitempty"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

func toColumnEdgeResponse(e *domain.ColumnLineageEdge) columnEdgeResponse {
	return columnEdgeResponse{
		ID:                       e.ID,
		SourceAssetID:            e.SourceAssetID,
		SourceColumn:             e.SourceColumn,
		TargetAssetID:            e.TargetAssetID,
		TargetColumn:             e.TargetColumn,
		TransformationType:       string(e.TransformationType),
		TransformationExpression: e.TransformationExpression,
		Confidence:               e.Confidence,
		LineageEdgeID:            e.LineageEdgeID,
		CreatedAt:                e.CreatedAt,
		UpdatedAt:                e.UpdatedAt,
	}
}

// --- lineage queries ---

func (h *Handler) getUpstreamLineage(w http.ResponseWriter, r *http.Request) {
	graph, err := h.lineage.GetUpstreamLineage(r.Context(), chi.URLParam(r, "assetID"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, graph)
}

func (h *Handler) getDownstreamLineage(w http.ResponseWriter, r *http.Request) {
	graph, err := h.lineage.GetDownstreamLineage(r.Context(), chi.URLParam(r, "assetID"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, graph)
}

func (h *Handler) getUpstreamColumnLineage(w http.ResponseWriter, r *http.Request) {
	graph, err := h.lineage.GetUpstreamColumnLineage(r.Context(),
		chi.URLParam(r, "assetID"), chi.URLParam(r, "column"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, graph)
}

func (h *Handler) getDownstreamColumnLineage(w http.ResponseWriter, r *http.Request) {
	graph, err := h.lineage.GetDownstreamColumnLineage(r.Context(),
		chi.URLParam(r, "assetID"), chi.URLParam(r, "column"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, graph)
}

func (h *Handler) performImpactAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.lineage.PerformImpactAnalysis(r.Context(), chi.URLParam(r, "assetID"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) performColumnImpactAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.lineage.PerformColumnImpactAnalysis(r.Context(),
		chi.URLParam(r, "assetID"), chi.URLParam(r, "column"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// --- edge CRUD ---

type createEdgeRequest struct {
	SourceAssetID       string            `json:"sourceAssetId"`
	TargetAssetID       string            `json:"targetAssetId"`
	TransformationType  string            `json:"transformationType"`
	TransformationLogic string            `json:"transformationLogic"`
	Metadata            map[string]string `json:"metadata"`
}

func (h *Handler) createLineageEdge(w http.ResponseWriter, r *http.Request) {
	var body createEdgeRequest
	if !h.decodeJSON(w, r, &body) {
		return
	}
	edge, err := h.lineage.CreateLineageEdge(r.Context(), domain.CreateLineageEdgeRequest{
		SourceAssetID:       body.SourceAssetID,
		TargetAssetID:       body.TargetAssetID,
		TransformationType:  body.TransformationType,
		TransformationLogic: body.TransformationLogic,
		Metadata:            body.Metadata,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toEdgeResponse(edge))
}

func (h *Handler) getLineageEdge(w http.ResponseWriter, r *http.Request) {
	edge, err := h.lineage.GetLineageEdge(r.Context(), chi.URLParam(r, "edgeID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEdgeResponse(edge))
}

type updateEdgeRequest struct {
	TransformationType  *string           `json:"transformationType"`
	TransformationLogic *string           `json:"transformationLogic"`
	Metadata            map[string]string `json:"metadata"`
}

func (h *Handler) updateLineageEdge(w http.ResponseWriter, r *http.Request) {
	var body updateEdgeRequest
	if !h.decodeJSON(w, r, &body) {
		return
	}
	edge, err := h.lineage.UpdateLineageEdge(r.Context(), chi.URLParam(r, "edgeID"), domain.UpdateLineageEdgeRequest{
		TransformationType:  body.TransformationType,
		TransformationLogic: body.TransformationLogic,
		Metadata:            body.Metadata,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEdgeResponse(edge))
}

func (h *Handler) deleteLineageEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.lineage.DeleteLineageEdge(r.Context(), chi.URLParam(r, "edgeID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEdges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EdgeFilter{
		SourceAssetID:      optionalQuery(q.Get("sourceAssetId")),
		TargetAssetID:      optionalQuery(q.Get("targetAssetId")),
		TransformationType: optionalQuery(q.Get("transformationType")),
		Page: domain.PageRequest{
			MaxResults: intQuery(q.Get("maxResults")),
			PageToken:  q.Get("pageToken"),
		},
	}
	edges, total, err := h.lineage.ListEdges(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]edgeResponse, 0, len(edges))
	for i := range edges {
		out = append(out, toEdgeResponse(&edges[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"edges":      out,
		"totalCount": total,
	})
}

// --- column edge CRUD ---

type createColumnEdgeRequest struct {
	SourceAssetID            string   `json:"sourceAssetId"`
	SourceColumn             string   `json:"sourceColumn"`
	TargetAssetID            string   `json:"targetAssetId"`
	TargetColumn             string   `json:"targetColumn"`
	TransformationType       string   `json:"transformationType"`
	TransformationExpression string   `json:"transformationExpression"`
	Confidence               *float64 `json:"confidence"`
	LineageEdgeID            *string  `json:"lineageEdgeId"`
}

func (h *Handler) createColumnLineageEdge(w http.ResponseWriter, r *http.Request) {
	var body createColumnEdgeRequest
	if !h.decodeJSON(w, r, &body) {
		return
	}
	edge, err := h.lineage.CreateColumnLineageEdge(r.Context(), domain.CreateColumnLineageEdgeRequest{
		SourceAssetID:            body.SourceAssetID,
		SourceColumn:             body.SourceColumn,
		TargetAssetID:            body.TargetAssetID,
		TargetColumn:             body.TargetColumn,
		TransformationType:       domain.ColumnTransformType(body.TransformationType),
		TransformationExpression: body.TransformationExpression,
		Confidence:               body.Confidence,
		LineageEdgeID:            body.LineageEdgeID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toColumnEdgeResponse(edge))
}

func (h *Handler) deleteColumnLineageEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.lineage.DeleteColumnLineageEdge(r.Context(), chi.URLParam(r, "edgeID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listColumnLineageForAsset(w http.ResponseWriter, r *http.Request) {
	edges, err := h.lineage.ListColumnLineageForAsset(r.Context(), chi.URLParam(r, "assetID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]columnEdgeResponse, 0, len(edges))
	for i := range edges {
		out = append(out, toColumnEdgeResponse(&edges[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"columnEdges": out})
}

// --- SQL parsing ---

type parseSQLRequest struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect"`
}

func (h *Handler) parseSQLLineage(w http.ResponseWriter, r *http.Request) {
	var body parseSQLRequest
	if !h.decodeJSON(w, r, &body) {
		return
	}
	if body.SQL == "" {
		h.writeError(w, r, domain.ErrValidation("sql is required"))
		return
	}
	result, errs := h.lineage.ParseSQLLineage(body.SQL, body.Dialect)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"inputs":  result.Inputs,
		"outputs": result.Outputs,
		"errors":  errs,
	})
}

func (h *Handler) parseSQLColumnLineage(w http.ResponseWriter, r *http.Request) {
	var body parseSQLRequest
	if !h.decodeJSON(w, r, &body) {
		return
	}
	if body.SQL == "" {
		h.writeError(w, r, domain.ErrValidation("sql is required"))
		return
	}
	h.writeJSON(w, http.StatusOK, h.lineage.ParseSQLColumnLineage(body.SQL, body.Dialect))
}

// --- OpenLineage ingest ---

func (h *Handler) ingestLineageEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.OpenLineageEvent
	if !h.decodeJSON(w, r, &event) {
		return
	}
	if err := h.ingestion.IngestLineageEvent(r.Context(), &event); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func optionalQuery(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
