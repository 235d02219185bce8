package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/apperrors"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/services"
)

// IdeaHandler handles idea capture and retrieval endpoints.
type IdeaHandler struct {
	ideas    repositories.IdeaRepository
	pipeline services.Pipeline
	logger   *zap.Logger
}

// NewIdeaHandler creates a new IdeaHandler.
func NewIdeaHandler(ideas repositories.IdeaRepository, pipeline services.Pipeline, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the idea handler's routes on the given mux.
func (h *IdeaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/ideas", h.Create)
	mux.HandleFunc("GET /v1/ideas", h.List)
	mux.HandleFunc("GET /v1/ideas/{id}", h.Get)
	mux.HandleFunc("DELETE /v1/ideas/{id}", h.Delete)
}

type createIdeaRequest struct {
	OwnerID         string `json:"ownerId"`
	InputType       string `json:"inputType"`
	OriginalContent string `json:"originalContent"`
}

// ideaResponse is the wire form of an idea. Archived is derived: it reports
// whether the full content blob still exists in the owner's store.
type ideaResponse struct {
	ID              uuid.UUID            `json:"id"`
	OwnerID         string               `json:"ownerId"`
	InputType       models.InputType     `json:"inputType"`
	OriginalContent string               `json:"originalContent"`
	Status          models.IdeaStatus    `json:"status"`
	Summary         *string              `json:"summary,omitempty"`
	DeepDive        *string              `json:"deepDive,omitempty"`
	Topic           *string              `json:"topic,omitempty"`
	RelatedLinks    []models.RelatedLink `json:"relatedLinks"`
	Archived        bool                 `json:"archived"`
	ArchiveRef      *string              `json:"archiveRef,omitempty"`
	FailureReason   *string              `json:"failureReason,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func toIdeaResponse(idea *models.Idea) ideaResponse {
	links := idea.RelatedLinks
	if links == nil {
		links = []models.RelatedLink{}
	}
	return ideaResponse{
		ID:              idea.ID,
		OwnerID:         idea.OwnerID,
		InputType:       idea.InputType,
		OriginalContent: idea.OriginalContent,
		Status:          idea.Status,
		Summary:         idea.Summary,
		DeepDive:        idea.DeepDive,
		Topic:           idea.Topic,
		RelatedLinks:    links,
		Archived:        idea.Archived(),
		ArchiveRef:      idea.ArchiveRef,
		FailureReason:   idea.FailureReason,
		CreatedAt:       idea.CreatedAt,
		UpdatedAt:       idea.UpdatedAt,
	}
}

// Create handles POST /v1/ideas requests.
// The idea is stored pending and its pipeline run is triggered in-request.
func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OwnerID == "" || req.OriginalContent == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "ownerId and originalContent are required")
		return
	}

	inputType := models.InputType(req.InputType)
	if inputType != models.InputTypeText && inputType != models.InputTypeURL {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", `inputType must be "text" or "url"`)
		return
	}

	idea := &models.Idea{
		OwnerID:         req.OwnerID,
		InputType:       inputType,
		OriginalContent: req.OriginalContent,
	}
	if err := h.ideas.Create(r.Context(), idea); err != nil {
		h.logger.Error("Failed to create idea", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to create idea")
		return
	}

	if err := h.pipeline.ProcessIdea(r.Context(), idea.ID); err != nil {
		// The idea is already stored with its failure reason; the capture
		// itself succeeded.
		h.logger.Warn("Pipeline run failed for captured idea",
			zap.String("idea_id", idea.ID.String()),
			zap.Error(err))
	}

	stored, err := h.ideas.Get(r.Context(), idea.ID)
	if err != nil {
		h.logger.Error("Failed to reload idea", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to load idea")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, toIdeaResponse(stored)); err != nil {
		h.logger.Error("Failed to encode idea response", zap.Error(err))
	}
}

// List handles GET /v1/ideas requests. Requires an owner query parameter and
// accepts an optional topic filter. Results are newest first.
func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "owner query parameter is required")
		return
	}

	ideas, err := h.ideas.ListByOwner(r.Context(), ownerID, r.URL.Query().Get("topic"))
	if err != nil {
		h.logger.Error("Failed to list ideas", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list ideas")
		return
	}

	responses := make([]ideaResponse, 0, len(ideas))
	for _, idea := range ideas {
		responses = append(responses, toIdeaResponse(idea))
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"ideas": responses}); err != nil {
		h.logger.Error("Failed to encode ideas response", zap.Error(err))
	}
}

// Get handles GET /v1/ideas/{id} requests.
func (h *IdeaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ownerID, ok := h.ideaRequest(w, r)
	if !ok {
		return
	}

	idea, err := h.ideas.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "idea not found")
			return
		}
		h.logger.Error("Failed to load idea", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to load idea")
		return
	}
	if idea.OwnerID != ownerID {
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "idea not found")
		return
	}

	if err := WriteJSON(w, http.StatusOK, toIdeaResponse(idea)); err != nil {
		h.logger.Error("Failed to encode idea response", zap.Error(err))
	}
}

// Delete handles DELETE /v1/ideas/{id} requests. Archived content is
// released before the record is removed.
func (h *IdeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ownerID, ok := h.ideaRequest(w, r)
	if !ok {
		return
	}

	err := h.pipeline.DeleteIdea(r.Context(), ownerID, id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "idea not found")
	case errors.Is(err, apperrors.ErrOwnerMismatch):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "idea not found")
	case errors.Is(err, apperrors.ErrConsentRequired):
		_ = ErrorResponse(w, http.StatusConflict, "consent_required",
			"offline access consent is required to release archived content")
	default:
		h.logger.Error("Failed to delete idea", zap.String("idea_id", id.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadGateway, "release_failed",
			"failed to release archived content")
	}
}

// ideaRequest parses the id path value and owner query parameter shared by
// the single-idea endpoints.
func (h *IdeaHandler) ideaRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid idea id")
		return uuid.Nil, "", false
	}

	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "owner query parameter is required")
		return uuid.Nil, "", false
	}

	return id, ownerID, true
}
