// Package archive stores full extracted idea content in an external document
// store, authorized with owner-scoped access tokens minted by the vault.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/retry"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/vault"
)

var (
	// ErrUploadFailed indicates the document upload failed after retries.
	ErrUploadFailed = errors.New("archive upload failed")
	// ErrReleaseFailed indicates the document delete failed after retries.
	ErrReleaseFailed = errors.New("archive release failed")
)

// HTTPClient abstracts HTTP request execution for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Metadata is attached to archived documents to keep them searchable in the
// owner's store. IdeaID is always stamped from the upload's idea id so the
// document can be traced back to its record without the engine.
type Metadata struct {
	Topic     string    `json:"topic,omitempty"`
	IdeaID    string    `json:"ideaId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client defines the interface for blob archival.
type Client interface {
	// Archive uploads the full extracted content as a document in the
	// owner's store and returns the blob id.
	Archive(ctx context.Context, ownerID string, ideaID uuid.UUID, content string, meta Metadata) (string, error)

	// Release deletes an archived document. Deleting a blob that no longer
	// exists is a success.
	Release(ctx context.Context, ownerID, blobID string) error
}

// Config holds archive API settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type client struct {
	config      Config
	minter      vault.TokenMinter
	httpClient  HTTPClient
	retryConfig *retry.Config
	logger      *zap.Logger
}

// New creates an archive client with a default HTTP client.
func New(config Config, minter vault.TokenMinter, logger *zap.Logger) Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &client{
		config:      config,
		minter:      minter,
		httpClient:  &http.Client{Timeout: config.Timeout},
		retryConfig: retry.DefaultConfig(),
		logger:      logger.Named("archive"),
	}
}

// NewWithClient creates an archive client with a custom HTTP client.
func NewWithClient(config Config, minter vault.TokenMinter, httpClient HTTPClient, logger *zap.Logger) Client {
	c := New(config, minter, logger).(*client)
	c.httpClient = httpClient
	return c
}

var _ Client = (*client)(nil)

type uploadRequest struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

func (c *client) Archive(ctx context.Context, ownerID string, ideaID uuid.UUID, content string, meta Metadata) (string, error) {
	token, err := c.minter.MintAccessToken(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("mint archive token: %w", err)
	}

	meta.IdeaID = ideaID.String()
	meta.CreatedAt = meta.CreatedAt.UTC()
	body, err := json.Marshal(uploadRequest{
		Name:     fmt.Sprintf("idea-%s.txt", ideaID),
		MimeType: "text/plain",
		Content:  content,
		Metadata: meta,
	})
	if err != nil {
		return "", fmt.Errorf("marshal upload request: %w", err)
	}

	var blobID string
	err = retry.DoIfRetryable(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.BaseURL+"/v1/documents", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &httpError{message: err.Error(), retryable: true}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return newStatusError(resp.StatusCode)
		}

		var parsed uploadResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
			return fmt.Errorf("decode upload response: %w", err)
		}
		if parsed.ID == "" {
			return fmt.Errorf("upload response missing document id")
		}
		blobID = parsed.ID
		return nil
	})
	if err != nil {
		c.logger.Warn("Archive upload failed",
			zap.String("idea_id", ideaID.String()),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	c.logger.Info("Idea content archived",
		zap.String("idea_id", ideaID.String()),
		zap.String("blob_id", blobID),
		zap.Int("chars", len(content)))

	return blobID, nil
}

func (c *client) Release(ctx context.Context, ownerID, blobID string) error {
	token, err := c.minter.MintAccessToken(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("mint archive token: %w", err)
	}

	err = retry.DoIfRetryable(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.config.BaseURL+"/v1/documents/"+blobID, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &httpError{message: err.Error(), retryable: true}
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

		// Already gone counts as released.
		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return newStatusError(resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReleaseFailed, err)
	}

	c.logger.Info("Archived content released", zap.String("blob_id", blobID))
	return nil
}

// httpError carries retryability so the retry wrapper can distinguish
// transient archive failures from permanent rejections.
type httpError struct {
	message   string
	retryable bool
}

func (e *httpError) Error() string     { return e.message }
func (e *httpError) IsRetryable() bool { return e.retryable }

func newStatusError(status int) *httpError {
	return &httpError{
		message:   fmt.Sprintf("archive API returned HTTP %d", status),
		retryable: status == http.StatusTooManyRequests || status >= 500,
	}
}
