package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/apperrors"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
)

var (
	// ErrExchangeFailed is returned when the authorization-code exchange with
	// the identity provider does not yield a refresh token.
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	// ErrUpstreamRefresh is returned when the provider's refresh endpoint
	// rejects or fails a mint request.
	ErrUpstreamRefresh = errors.New("upstream token refresh failed")
)

// Config holds the identity provider settings for delegated access.
type Config struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
}

// HTTPClient interface for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenMinter mints short-lived access tokens for background uploads.
// The archive client depends on this rather than on the full vault.
type TokenMinter interface {
	MintAccessToken(ctx context.Context, ownerID string) (string, error)
}

// Vault exchanges consent grants for refresh credentials, stores them
// encrypted, and mints short-lived access tokens on demand.
type Vault struct {
	keyring    *Keyring
	records    repositories.CredentialRepository
	config     *Config
	httpClient HTTPClient
	logger     *zap.Logger
}

// New creates a vault.
func New(keyring *Keyring, records repositories.CredentialRepository, config *Config, logger *zap.Logger) *Vault {
	return &Vault{
		keyring:    keyring,
		records:    records,
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("vault"),
	}
}

// NewWithClient creates a vault with a custom HTTP client (for testing).
func NewWithClient(keyring *Keyring, records repositories.CredentialRepository, config *Config, httpClient HTTPClient, logger *zap.Logger) *Vault {
	v := New(keyring, records, config, logger)
	v.httpClient = httpClient
	return v
}

// tokenResponse is the provider's token endpoint response. Fields we do not
// use (scope, id_token) are ignored.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeAuthorizationCode performs the server-to-server exchange of a
// one-time authorization code for a refresh credential, encrypts it under
// the active key and upserts the owner's credential record. The refresh
// token is never returned to the caller and never logged.
func (v *Vault) ExchangeAuthorizationCode(ctx context.Context, ownerID, code, redirectURI string) error {
	if code == "" {
		return fmt.Errorf("%w: missing authorization code", ErrExchangeFailed)
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {v.config.ClientID},
		"client_secret": {v.config.ClientSecret},
		"redirect_uri":  {redirectURI},
	}

	tok, err := v.postTokenForm(ctx, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	if tok.RefreshToken == "" {
		// The provider only returns a refresh token on the first consent
		// grant unless re-consent is forced. Without one there is nothing
		// to store, so the exchange has not established offline access.
		v.logger.Warn("No refresh token in exchange response; owner must revoke and re-consent",
			zap.String("owner_id", ownerID))
		return fmt.Errorf("%w: no refresh token returned", ErrExchangeFailed)
	}

	encrypted, version, err := v.keyring.Encrypt(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	record := &models.CredentialRecord{
		OwnerID:               ownerID,
		EncryptedRefreshToken: encrypted,
		KeyVersion:            version,
	}
	if err := v.records.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store credential record: %w", err)
	}

	v.logger.Info("Stored delegated credential",
		zap.String("owner_id", ownerID),
		zap.Int("key_version", version))
	return nil
}

// MintAccessToken loads the owner's credential record, decrypts the refresh
// token in-process and redeems it for a short-lived access token (validity
// on the order of minutes, decided by the provider).
//
// Failure modes: a missing record or a record written under a superseded key
// version yields apperrors.ErrConsentRequired (fail closed, re-consent is the
// only recovery); corrupt ciphertext yields ErrDecryptionFailed; provider
// rejection yields ErrUpstreamRefresh.
func (v *Vault) MintAccessToken(ctx context.Context, ownerID string) (string, error) {
	record, err := v.records.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrConsentRequired
		}
		return "", fmt.Errorf("failed to load credential record: %w", err)
	}

	refreshToken, err := v.keyring.Decrypt(record.EncryptedRefreshToken, record.KeyVersion)
	if err != nil {
		if errors.Is(err, ErrKeyVersionMismatch) {
			v.logger.Warn("Credential record predates key rotation; re-consent required",
				zap.String("owner_id", ownerID),
				zap.Int("record_key_version", record.KeyVersion),
				zap.Int("active_key_version", v.keyring.Version()))
			return "", fmt.Errorf("%w: key rotated", apperrors.ErrConsentRequired)
		}
		return "", err
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {v.config.ClientID},
		"client_secret": {v.config.ClientSecret},
	}

	tok, err := v.postTokenForm(ctx, form)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamRefresh, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", ErrUpstreamRefresh)
	}

	return tok.AccessToken, nil
}

// postTokenForm sends a form-encoded request to the provider token endpoint.
// Error messages deliberately carry status and error codes only, never
// request bodies, so token material cannot leak into logs.
func (v *Vault) postTokenForm(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.config.TokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decode token response: status %d", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK || tok.Error != "" {
		return nil, fmt.Errorf("token endpoint returned status %d (%s)", resp.StatusCode, tok.Error)
	}

	return &tok, nil
}

// Ensure Vault implements TokenMinter at compile time.
var _ TokenMinter = (*Vault)(nil)
