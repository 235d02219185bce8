// Package enrich generates structured study material for captured ideas via
// an OpenAI-compatible completion endpoint.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/llm"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/retry"
)

// ErrSchemaViolation indicates the model produced output that does not match
// the required enrichment schema. It is structural, not transient: the caller
// gets it only after the single regeneration attempt also failed.
var ErrSchemaViolation = errors.New("enrichment response violates schema")

// Service defines the interface for idea enrichment.
type Service interface {
	// Enrich produces validated enrichment for extracted text. A non-empty
	// failureNote marks the extraction as failed and is folded into the
	// prompt so the overview acknowledges the missing source.
	Enrich(ctx context.Context, extractedText, failureNote string) (*models.EnrichmentResult, error)
}

type service struct {
	client      llm.Client
	retryConfig *retry.Config
	logger      *zap.Logger
}

// New creates an enrichment service.
func New(client llm.Client, logger *zap.Logger) Service {
	return &service{
		client:      client,
		retryConfig: retry.DefaultConfig(),
		logger:      logger.Named("enrich"),
	}
}

var _ Service = (*service)(nil)

func (s *service) Enrich(ctx context.Context, extractedText, failureNote string) (*models.EnrichmentResult, error) {
	prompt := buildEnrichmentPrompt(extractedText, failureNote)

	result, err := s.generateAndValidate(ctx, prompt)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrSchemaViolation) {
		return nil, err
	}

	// One regeneration on a schema violation. Structural failures are not
	// transient, so a second violation propagates.
	s.logger.Warn("Enrichment schema violation, regenerating", zap.Error(err))

	result, err = s.generateAndValidate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) generateAndValidate(ctx context.Context, prompt string) (*models.EnrichmentResult, error) {
	var response string
	err := retry.DoIfRetryable(ctx, s.retryConfig, func() error {
		var genErr error
		response, genErr = s.client.GenerateJSON(ctx, prompt, systemMessage)
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("generate enrichment: %w", err)
	}

	result, err := llm.ParseJSONResponse[models.EnrichmentResult](response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	if err := validate(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// validate enforces the enrichment schema: overview, deepDive and topic must
// be non-empty, and related links must be well-formed. Lists longer than
// MaxRelatedLinks are clamped rather than rejected.
func validate(result *models.EnrichmentResult) error {
	if strings.TrimSpace(result.Overview) == "" {
		return fmt.Errorf("%w: missing overview", ErrSchemaViolation)
	}
	if strings.TrimSpace(result.DeepDive) == "" {
		return fmt.Errorf("%w: missing deepDive", ErrSchemaViolation)
	}
	if strings.TrimSpace(result.Topic) == "" {
		return fmt.Errorf("%w: missing topic", ErrSchemaViolation)
	}

	for i, link := range result.RelatedLinks {
		if strings.TrimSpace(link.Title) == "" || strings.TrimSpace(link.URL) == "" {
			return fmt.Errorf("%w: related link %d missing title or url", ErrSchemaViolation, i)
		}
	}
	if len(result.RelatedLinks) > models.MaxRelatedLinks {
		result.RelatedLinks = result.RelatedLinks[:models.MaxRelatedLinks]
	}
	if result.RelatedLinks == nil {
		result.RelatedLinks = []models.RelatedLink{}
	}

	return nil
}
