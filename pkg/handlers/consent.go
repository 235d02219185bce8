package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/vault"
)

// ConsentExchanger exchanges an authorization code for stored credentials.
type ConsentExchanger interface {
	ExchangeAuthorizationCode(ctx context.Context, ownerID, code, redirectURI string) error
}

// ConsentHandler handles OAuth consent exchange requests.
type ConsentHandler struct {
	vault  ConsentExchanger
	logger *zap.Logger
}

// NewConsentHandler creates a new ConsentHandler.
func NewConsentHandler(v ConsentExchanger, logger *zap.Logger) *ConsentHandler {
	return &ConsentHandler{vault: v, logger: logger}
}

// RegisterRoutes registers the consent handler's routes on the given mux.
func (h *ConsentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/consent/exchange", h.Exchange)
}

type exchangeRequest struct {
	OwnerID     string `json:"ownerId"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

// Exchange handles POST /v1/consent/exchange requests.
// The authorization code is exchanged for a refresh credential which is
// stored encrypted. Neither the code nor the credential appear in the
// response.
func (h *ConsentHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OwnerID == "" || req.Code == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "ownerId and code are required")
		return
	}

	if err := h.vault.ExchangeAuthorizationCode(r.Context(), req.OwnerID, req.Code, req.RedirectURI); err != nil {
		if errors.Is(err, vault.ErrExchangeFailed) {
			_ = ErrorResponse(w, http.StatusBadGateway, "exchange_failed",
				"authorization code exchange was rejected")
			return
		}
		h.logger.Error("Consent exchange failed", zap.String("owner_id", req.OwnerID), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to store consent")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]bool{"success": true}); err != nil {
		h.logger.Error("Failed to encode exchange response", zap.Error(err))
	}
}
