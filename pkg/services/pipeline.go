// Package services contains the enrichment pipeline orchestrator.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/apperrors"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/archive"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/enrich"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/extract"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/logging"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
)

// ErrIdeaFailed wraps pipeline errors for which the idea was moved to the
// failed state with a stored reason. Errors not carrying it left the idea in
// a non-terminal state, so the caller may retrigger.
var ErrIdeaFailed = errors.New("idea processing failed")

// Pipeline defines the idea enrichment orchestrator.
type Pipeline interface {
	// ProcessIdea runs the full enrichment pipeline for a captured idea.
	// Duplicate trigger deliveries are a silent no-op: the conditional
	// pending → processing claim is the only idempotency guard.
	ProcessIdea(ctx context.Context, ideaID uuid.UUID) error

	// DeleteIdea removes an idea and its archived content. The blob is
	// released before the record is deleted so a failure cannot strand an
	// unreachable blob.
	DeleteIdea(ctx context.Context, ownerID string, ideaID uuid.UUID) error
}

// Config holds pipeline settings.
type Config struct {
	// ProcessTimeout bounds a full pipeline run per idea.
	ProcessTimeout time.Duration
}

type pipeline struct {
	config    Config
	ideas     repositories.IdeaRepository
	extractor extract.Extractor
	enricher  enrich.Service
	archiver  archive.Client
	logger    *zap.Logger
}

// NewPipeline creates the enrichment pipeline.
func NewPipeline(
	config Config,
	ideas repositories.IdeaRepository,
	extractor extract.Extractor,
	enricher enrich.Service,
	archiver archive.Client,
	logger *zap.Logger,
) Pipeline {
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 540 * time.Second
	}
	return &pipeline{
		config:    config,
		ideas:     ideas,
		extractor: extractor,
		enricher:  enricher,
		archiver:  archiver,
		logger:    logger.Named("pipeline"),
	}
}

var _ Pipeline = (*pipeline)(nil)

func (p *pipeline) ProcessIdea(ctx context.Context, ideaID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.ProcessTimeout)
	defer cancel()

	logger := p.logger.With(zap.String("idea_id", ideaID.String()))

	idea, err := p.ideas.Claim(ctx, ideaID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Info("Idea not claimable, skipping duplicate trigger")
			return nil
		}
		return fmt.Errorf("claim idea: %w", err)
	}

	logger.Info("Idea claimed for processing",
		zap.String("owner_id", idea.OwnerID),
		zap.String("input_type", string(idea.InputType)))

	extraction := p.extractor.Extract(ctx, idea.InputType, idea.OriginalContent)
	if extraction.ExtractionFailed {
		logger.Warn("Extraction degraded",
			zap.String("provenance", string(extraction.Provenance)),
			zap.String("detail", extraction.FailureDetail))
	}

	p.archiveContent(ctx, logger, idea, &extraction)

	enrichInput := extraction.Text
	if extraction.ExtractionFailed {
		enrichInput = idea.OriginalContent
	}

	result, err := p.enricher.Enrich(ctx, enrichInput, extraction.FailureDetail)
	if err != nil {
		logger.Error("Enrichment failed", zap.Error(err))
		return p.failIdea(ctx, logger, ideaID, fmt.Errorf("enrich idea: %w", err))
	}

	if err := p.ideas.CompleteProcessing(ctx, ideaID, result); err != nil {
		return p.failIdea(ctx, logger, ideaID, fmt.Errorf("commit enrichment: %w", err))
	}

	logger.Info("Idea ready",
		zap.String("topic", result.Topic),
		zap.Int("related_links", len(result.RelatedLinks)))
	return nil
}

// archiveContent uploads the extracted text and persists the blob reference.
// Archival is best-effort: a failure leaves the idea unarchived but does not
// stop enrichment.
func (p *pipeline) archiveContent(ctx context.Context, logger *zap.Logger, idea *models.Idea, extraction *models.ExtractionResult) {
	if extraction.ExtractionFailed || extraction.Text == "" {
		return
	}

	blobID, err := p.archiver.Archive(ctx, idea.OwnerID, idea.ID, extraction.Text, archive.Metadata{
		CreatedAt: idea.CreatedAt,
	})
	if err != nil {
		logger.Warn("Archival skipped", zap.Error(err))
		return
	}

	if err := p.ideas.SetArchiveRef(ctx, idea.ID, blobID); err != nil {
		logger.Warn("Failed to persist archive ref",
			zap.String("blob_id", blobID),
			zap.Error(err))
		return
	}

	logger.Info("Idea content archived", zap.String("blob_id", blobID))
}

// failIdea records a terminal failure on the idea. When the record update
// succeeds the returned error carries ErrIdeaFailed; when it does not, the
// idea is left non-terminal and the plain error signals that a retrigger is
// still possible.
func (p *pipeline) failIdea(ctx context.Context, logger *zap.Logger, ideaID uuid.UUID, err error) error {
	reason := logging.TruncateString(logging.SanitizeError(err), 500)
	if markErr := p.ideas.MarkFailed(ctx, ideaID, reason); markErr != nil {
		logger.Error("Failed to record idea failure", zap.Error(markErr))
		return err
	}
	return fmt.Errorf("%w: %w", ErrIdeaFailed, err)
}

func (p *pipeline) DeleteIdea(ctx context.Context, ownerID string, ideaID uuid.UUID) error {
	idea, err := p.ideas.Get(ctx, ideaID)
	if err != nil {
		return fmt.Errorf("load idea: %w", err)
	}
	if idea.OwnerID != ownerID {
		return apperrors.ErrOwnerMismatch
	}

	if idea.ArchiveRef != nil {
		if err := p.archiver.Release(ctx, ownerID, *idea.ArchiveRef); err != nil {
			// The record stays so the blob reference is not lost.
			return fmt.Errorf("release archived content: %w", err)
		}
	}

	if err := p.ideas.Delete(ctx, ideaID); err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}

	p.logger.Info("Idea deleted",
		zap.String("idea_id", ideaID.String()),
		zap.Bool("had_archive", idea.ArchiveRef != nil))
	return nil
}
