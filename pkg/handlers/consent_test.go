package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/vault"
)

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func newConsentMux(exchanger *mockExchanger) *http.ServeMux {
	mux := http.NewServeMux()
	NewConsentHandler(exchanger, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestConsentExchangeSuccess(t *testing.T) {
	var gotOwner, gotCode, gotRedirect string
	exchanger := &mockExchanger{
		ExchangeFunc: func(ctx context.Context, ownerID, code, redirectURI string) error {
			gotOwner, gotCode, gotRedirect = ownerID, code, redirectURI
			return nil
		},
	}

	rec := postJSON(t, newConsentMux(exchanger), "/v1/consent/exchange",
		`{"ownerId": "owner-1", "code": "auth-code", "redirectUri": "https://app.test/cb"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gotOwner != "owner-1" || gotCode != "auth-code" || gotRedirect != "https://app.test/cb" {
		t.Errorf("exchange called with %q/%q/%q", gotOwner, gotCode, gotRedirect)
	}

	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp["success"] {
		t.Error("expected success response")
	}
	if strings.Contains(rec.Body.String(), "auth-code") {
		t.Error("authorization code must not appear in the response")
	}
}

func TestConsentExchangeRejected(t *testing.T) {
	exchanger := &mockExchanger{
		ExchangeFunc: func(ctx context.Context, ownerID, code, redirectURI string) error {
			return vault.ErrExchangeFailed
		},
	}

	rec := postJSON(t, newConsentMux(exchanger), "/v1/consent/exchange",
		`{"ownerId": "owner-1", "code": "bad-code"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "exchange_failed") {
		t.Errorf("body = %s, want machine-readable code", rec.Body.String())
	}
}

func TestConsentExchangeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing owner", `{"code": "auth-code"}`},
		{"missing code", `{"ownerId": "owner-1"}`},
		{"malformed JSON", `{"ownerId":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exchanger := &mockExchanger{}
			rec := postJSON(t, newConsentMux(exchanger), "/v1/consent/exchange", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if exchanger.ExchangeCalls != 0 {
				t.Error("exchange must not run on invalid input")
			}
		})
	}
}
