package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"metalake/internal/domain"
)

type relationshipResponse struct {
	ID               string            `json:"id"`
	SourceAssetID    string            `json:"sourceAssetId"`
	TargetAssetID    string            `json:"targetAssetId"`
	RelationshipType string            `json:"relationshipType"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

func toRelationshipResponse(rel *domain.AssetRelationship) relationshipResponse {
	return relationshipResponse{
		ID:               rel.ID,
		SourceAssetID:    rel.SourceAssetID,
		TargetAssetID:    rel.TargetAssetID,
		RelationshipType: rel.RelationshipType,
		Metadata:         rel.Metadata,
		CreatedAt:        rel.CreatedAt,
	}
}

type createRelationshipRequest struct {
	SourceAssetID    string            `json:"sourceAssetId"`
	TargetAssetID    string            `json:"targetAssetId"`
	RelationshipType string            `json:"relationshipType"`
	Metadata         map[string]string `json:"metadata"`
}

func (h *Handler) createRelationship(w http.ResponseWriter, r *http.Request) {
	var body createRelationshipRequest
	if !h.decodeJSON(w, r, &body) {
		return
	}
	rel, err := h.relationships.CreateRelationship(r.Context(), domain.CreateRelationshipRequest{
		SourceAssetID:    body.SourceAssetID,
		TargetAssetID:    body.TargetAssetID,
		RelationshipType: body.RelationshipType,
		Metadata:         body.Metadata,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toRelationshipResponse(rel))
}

func (h *Handler) getRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := h.relationships.GetRelationship(r.Context(), chi.URLParam(r, "relationshipID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRelationshipResponse(rel))
}

func (h *Handler) deleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := h.relationships.DeleteRelationship(r.Context(), chi.URLParam(r, "relationshipID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRelationshipsForAsset(w http.ResponseWriter, r *http.Request) {
	rels, err := h.relationships.ListRelationshipsForAsset(r.Context(), chi.URLParam(r, "assetID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]relationshipResponse, 0, len(rels))
	for i := range rels {
		out = append(out, toRelationshipResponse(&rels[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"relationships": out})
}

func (h *Handler) getBusinessLineage(w http.ResponseWriter, r *http.Request) {
	graph, err := h.business.GetBusinessLineage(r.Context(), chi.URLParam(r, "termID"), depthParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, graph)
}
