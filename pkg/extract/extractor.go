// Package extract turns captured idea content into plain text suitable for
// archival and enrichment. Extraction is best-effort: failures are reported
// in the result, never as errors, so the pipeline can still enrich around a
// page that refused to load.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/logging"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
)

// HTTPClient abstracts HTTP request execution for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Extractor defines the interface for content extraction.
type Extractor interface {
	// Extract resolves the captured content to plain text. It never returns
	// an error: unreachable or unreadable sources degrade to a result with
	// ExtractionFailed set.
	Extract(ctx context.Context, inputType models.InputType, content string) models.ExtractionResult
}

// Config holds extraction settings.
type Config struct {
	// FetchTimeout bounds a single page or transcript fetch. Fetches are
	// single-attempt; a slow source degrades rather than stalls the pipeline.
	FetchTimeout time.Duration
	// MaxContentChars truncates oversize extracted text.
	MaxContentChars int
}

// Browser-like headers. Several publishers serve bot-detection pages to
// default Go user agents.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

type extractor struct {
	config     Config
	httpClient HTTPClient
	logger     *zap.Logger
}

// New creates a content extractor with a default HTTP client.
func New(config Config, logger *zap.Logger) Extractor {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 20 * time.Second
	}
	if config.MaxContentChars <= 0 {
		config.MaxContentChars = 900_000
	}
	return &extractor{
		config:     config,
		httpClient: &http.Client{Timeout: config.FetchTimeout},
		logger:     logger.Named("extract"),
	}
}

// NewWithClient creates a content extractor with a custom HTTP client.
func NewWithClient(config Config, httpClient HTTPClient, logger *zap.Logger) Extractor {
	e := New(config, logger).(*extractor)
	e.httpClient = httpClient
	return e
}

var _ Extractor = (*extractor)(nil)

func (e *extractor) Extract(ctx context.Context, inputType models.InputType, content string) models.ExtractionResult {
	switch inputType {
	case models.InputTypeText:
		return models.ExtractionResult{
			Text:       truncate(content, e.config.MaxContentChars),
			Provenance: models.ProvenanceRawText,
		}
	case models.InputTypeURL:
		return e.extractURL(ctx, content)
	default:
		return models.ExtractionResult{
			ExtractionFailed: true,
			FailureDetail:    fmt.Sprintf("unsupported input type %q", inputType),
		}
	}
}

func (e *extractor) extractURL(ctx context.Context, rawURL string) models.ExtractionResult {
	if videoID, ok := parseYouTubeVideoID(rawURL); ok {
		return e.extractTranscript(ctx, videoID)
	}
	return e.extractWebpage(ctx, rawURL)
}

func (e *extractor) extractWebpage(ctx context.Context, rawURL string) models.ExtractionResult {
	failed := func(detail string) models.ExtractionResult {
		e.logger.Warn("Webpage extraction failed",
			zap.String("url", logging.SanitizeURL(rawURL)),
			zap.String("detail", detail))
		return models.ExtractionResult{
			Provenance:       models.ProvenanceWebpage,
			ExtractionFailed: true,
			FailureDetail:    detail,
		}
	}

	body, status, err := e.fetch(ctx, rawURL)
	if err != nil {
		return failed(fmt.Sprintf("fetch failed: %v", err))
	}
	if status < 200 || status >= 300 {
		return failed(fmt.Sprintf("fetch returned HTTP %d", status))
	}

	text := articleText(body)
	if text == "" {
		return failed("no readable text in page")
	}

	e.logger.Debug("Webpage extracted",
		zap.String("url", logging.SanitizeURL(rawURL)),
		zap.Int("chars", len(text)))

	return models.ExtractionResult{
		Text:       truncate(text, e.config.MaxContentChars),
		Provenance: models.ProvenanceWebpage,
	}
}

// fetch performs a single GET with browser headers. No retries: extraction
// degrades on failure instead of delaying the pipeline.
func (e *extractor) fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// truncate cuts s to at most max bytes, backing off to the nearest rune
// boundary so the result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
