package vault

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/apperrors"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
)

// memCredentialRepo is an in-memory CredentialRepository for tests.
type memCredentialRepo struct {
	records map[string]*models.CredentialRecord
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{records: make(map[string]*models.CredentialRecord)}
}

func (m *memCredentialRepo) Upsert(_ context.Context, record *models.CredentialRecord) error {
	copied := *record
	m.records[record.OwnerID] = &copied
	return nil
}

func (m *memCredentialRepo) Get(_ context.Context, ownerID string) (*models.CredentialRecord, error) {
	record, ok := m.records[ownerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

var _ repositories.CredentialRepository = (*memCredentialRepo)(nil)

// mockHTTPClient returns canned responses and captures request bodies.
type mockHTTPClient struct {
	status       int
	body         string
	err          error
	capturedBody string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		m.capturedBody = string(b)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}, nil
}

func testVault(t *testing.T, client HTTPClient) (*Vault, *memCredentialRepo) {
	t.Helper()
	keyring, err := NewKeyring(testKey, 1)
	if err != nil {
		t.Fatalf("failed to create keyring: %v", err)
	}
	repo := newMemCredentialRepo()
	cfg := &Config{
		TokenEndpoint: "https://provider.example.com/token",
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
	}
	return NewWithClient(keyring, repo, cfg, client, zap.NewNop()), repo
}

func TestExchangeAuthorizationCode_StoresEncryptedRecord(t *testing.T) {
	client := &mockHTTPClient{
		status: http.StatusOK,
		body:   `{"access_token":"at-1","refresh_token":"rt-secret-1","expires_in":3599}`,
	}
	v, repo := testVault(t, client)

	if err := v.ExchangeAuthorizationCode(context.Background(), "owner-1", "auth-code", "https://app.example.com/callback"); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	record, err := repo.Get(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if record.KeyVersion != 1 {
		t.Errorf("expected key version 1, got %d", record.KeyVersion)
	}
	if strings.Contains(record.EncryptedRefreshToken, "rt-secret-1") {
		t.Error("refresh token stored in plaintext")
	}

	// The exchange must have sent the authorization-code grant.
	if !strings.Contains(client.capturedBody, "grant_type=authorization_code") {
		t.Errorf("unexpected request body: %s", client.capturedBody)
	}
}

func TestExchangeAuthorizationCode_NoRefreshToken(t *testing.T) {
	client := &mockHTTPClient{
		status: http.StatusOK,
		body:   `{"access_token":"at-1","expires_in":3599}`,
	}
	v, repo := testVault(t, client)

	err := v.ExchangeAuthorizationCode(context.Background(), "owner-1", "auth-code", "")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
	if _, err := repo.Get(context.Background(), "owner-1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Error("no record should be stored when exchange fails")
	}
}

func TestExchangeAuthorizationCode_ProviderRejects(t *testing.T) {
	client := &mockHTTPClient{
		status: http.StatusBadRequest,
		body:   `{"error":"invalid_grant","error_description":"code expired"}`,
	}
	v, _ := testVault(t, client)

	err := v.ExchangeAuthorizationCode(context.Background(), "owner-1", "expired-code", "")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
}

func TestMintAccessToken_Success(t *testing.T) {
	client := &mockHTTPClient{
		status: http.StatusOK,
		body:   `{"access_token":"at-1","refresh_token":"rt-secret-1","expires_in":3599}`,
	}
	v, _ := testVault(t, client)

	if err := v.ExchangeAuthorizationCode(context.Background(), "owner-1", "auth-code", ""); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	client.body = `{"access_token":"short-lived-at","expires_in":300}`
	token, err := v.MintAccessToken(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if token != "short-lived-at" {
		t.Errorf("expected minted token, got %q", token)
	}

	// Mint must redeem the decrypted refresh token via the refresh grant.
	if !strings.Contains(client.capturedBody, "grant_type=refresh_token") {
		t.Errorf("unexpected request body: %s", client.capturedBody)
	}
	if !strings.Contains(client.capturedBody, "refresh_token=rt-secret-1") {
		t.Error("refresh grant did not carry the stored refresh token")
	}
}

func TestMintAccessToken_NoRecordMeansConsentRequired(t *testing.T) {
	v, _ := testVault(t, &mockHTTPClient{status: http.StatusOK, body: `{}`})

	_, err := v.MintAccessToken(context.Background(), "stranger")
	if !errors.Is(err, apperrors.ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
}

func TestMintAccessToken_RotatedKeyFailsClosed(t *testing.T) {
	client := &mockHTTPClient{
		status: http.StatusOK,
		body:   `{"access_token":"at-1","refresh_token":"rt-secret-1"}`,
	}
	v, repo := testVault(t, client)
	if err := v.ExchangeAuthorizationCode(context.Background(), "owner-1", "auth-code", ""); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	// Rotate the key to version 2; the stored v1 record must now be
	// unreadable and force re-consent, not decrypt.
	rotated, err := NewKeyring(testKey, 2)
	if err != nil {
		t.Fatalf("failed to rotate keyring: %v", err)
	}
	v2 := NewWithClient(rotated, repo, &Config{TokenEndpoint: "https://provider.example.com/token"}, client, zap.NewNop())

	_, err = v2.MintAccessToken(context.Background(), "owner-1")
	if !errors.Is(err, apperrors.ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired after rotation, got %v", err)
	}
}

func TestMintAccessToken_UpstreamRefreshFailure(t *testing.T) {
	client := &mockHTTPClient{
		status: http.StatusOK,
		body:   `{"access_token":"at-1","refresh_token":"rt-secret-1"}`,
	}
	v, _ := testVault(t, client)
	if err := v.ExchangeAuthorizationCode(context.Background(), "owner-1", "auth-code", ""); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	client.status = http.StatusBadRequest
	client.body = `{"error":"invalid_grant"}`

	_, err := v.MintAccessToken(context.Background(), "owner-1")
	if !errors.Is(err, ErrUpstreamRefresh) {
		t.Fatalf("expected ErrUpstreamRefresh, got %v", err)
	}
}
