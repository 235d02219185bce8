package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/services"
)

// EventHandler handles record-created trigger deliveries.
type EventHandler struct {
	pipeline services.Pipeline
	logger   *zap.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(pipeline services.Pipeline, logger *zap.Logger) *EventHandler {
	return &EventHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the event handler's routes on the given mux.
func (h *EventHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/events/idea-created", h.IdeaCreated)
}

type ideaCreatedEvent struct {
	IdeaID string `json:"ideaId"`
}

// IdeaCreated handles POST /v1/events/idea-created requests.
// The pipeline runs synchronously under its own deadline. Deliveries are
// at-least-once: a duplicate finds the idea already claimed and is a no-op,
// reported as processed.
func (h *EventHandler) IdeaCreated(w http.ResponseWriter, r *http.Request) {
	var event ideaCreatedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ideaID, err := uuid.Parse(event.IdeaID)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid ideaId")
		return
	}

	if err := h.pipeline.ProcessIdea(r.Context(), ideaID); err != nil {
		h.logger.Warn("Pipeline run failed",
			zap.String("idea_id", ideaID.String()),
			zap.Error(err))
		if errors.Is(err, services.ErrIdeaFailed) {
			// The idea is marked failed with a stored reason. The trigger
			// itself is acknowledged so delivery is not retried into a
			// non-pending idea.
			if writeErr := WriteJSON(w, http.StatusOK, map[string]string{"status": "failed"}); writeErr != nil {
				h.logger.Error("Failed to encode event response", zap.Error(writeErr))
			}
			return
		}
		// The idea is still in a claimable state, so a redelivery can
		// complete the run.
		_ = ErrorResponse(w, http.StatusInternalServerError, "processing_error", "idea processing did not complete")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "processed"}); err != nil {
		h.logger.Error("Failed to encode event response", zap.Error(err))
	}
}
