// Package repositories contains PostgreSQL data access for ideafarm-engine.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/apperrors"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/database"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
)

const ideaColumns = `id, owner_id, input_type, original_content, archive_ref,
	summary, deep_dive, topic, related_links, status, failure_reason,
	created_at, updated_at`

// IdeaRepository defines data access for ideas.
type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) error
	Get(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	// Claim atomically transitions pending → processing and returns the
	// claimed idea. If the idea is not currently pending (duplicate trigger
	// delivery, already processed), it returns apperrors.ErrConflict. This
	// conditional write is the pipeline's only idempotency guard.
	Claim(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	// SetArchiveRef records the external blob id. It only succeeds while the
	// idea is processing and the ref has not been set before.
	SetArchiveRef(ctx context.Context, id uuid.UUID, ref string) error
	// CompleteProcessing writes the enrichment result and transitions
	// processing → ready in a single statement.
	CompleteProcessing(ctx context.Context, id uuid.UUID, result *models.EnrichmentResult) error
	// MarkFailed transitions processing → failed with a stored reason.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListByOwner(ctx context.Context, ownerID string, topic string) ([]*models.Idea, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ideaRepository struct {
	db *database.DB
}

// NewIdeaRepository creates a new idea repository.
func NewIdeaRepository(db *database.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) error {
	if idea.ID == uuid.Nil {
		idea.ID = uuid.New()
	}

	now := time.Now()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	if idea.Status == "" {
		idea.Status = models.StatusPending
	}
	if idea.RelatedLinks == nil {
		idea.RelatedLinks = []models.RelatedLink{}
	}

	links, err := json.Marshal(idea.RelatedLinks)
	if err != nil {
		return fmt.Errorf("failed to marshal related links: %w", err)
	}

	query := `
		INSERT INTO ideas (id, owner_id, input_type, original_content, related_links, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		idea.ID,
		idea.OwnerID,
		idea.InputType,
		idea.OriginalContent,
		links,
		idea.Status,
		idea.CreatedAt,
		idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create idea: %w", err)
	}

	return nil
}

func (r *ideaRepository) Get(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	query := fmt.Sprintf(`SELECT %s FROM ideas WHERE id = $1`, ideaColumns)
	return r.scanIdea(r.db.QueryRow(ctx, query, id))
}

func (r *ideaRepository) Claim(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	query := fmt.Sprintf(`
		UPDATE ideas
		SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s`, ideaColumns)

	idea, err := r.scanIdea(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, apperrors.ErrNotFound) {
		// Either the idea does not exist or it is no longer pending.
		return nil, apperrors.ErrConflict
	}
	return idea, err
}

func (r *ideaRepository) SetArchiveRef(ctx context.Context, id uuid.UUID, ref string) error {
	query := `
		UPDATE ideas
		SET archive_ref = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing' AND archive_ref IS NULL`

	result, err := r.db.Exec(ctx, query, id, ref)
	if err != nil {
		return fmt.Errorf("failed to set archive ref: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *ideaRepository) CompleteProcessing(ctx context.Context, id uuid.UUID, result *models.EnrichmentResult) error {
	links := result.RelatedLinks
	if links == nil {
		links = []models.RelatedLink{}
	}
	encoded, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to marshal related links: %w", err)
	}

	query := `
		UPDATE ideas
		SET status = 'ready', summary = $2, deep_dive = $3, topic = $4,
		    related_links = $5, failure_reason = NULL, updated_at = now()
		WHERE id = $1 AND status = 'processing'`

	res, err := r.db.Exec(ctx, query, id, result.Overview, result.DeepDive, result.Topic, encoded)
	if err != nil {
		return fmt.Errorf("failed to complete idea: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *ideaRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE ideas
		SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing'`

	res, err := r.db.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark idea failed: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *ideaRepository) ListByOwner(ctx context.Context, ownerID string, topic string) ([]*models.Idea, error) {
	query := fmt.Sprintf(`SELECT %s FROM ideas WHERE owner_id = $1`, ideaColumns)
	args := []any{ownerID}
	if topic != "" {
		query += ` AND topic = $2`
		args = append(args, topic)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer rows.Close()

	var ideas []*models.Idea
	for rows.Next() {
		idea, err := r.scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ideas: %w", err)
	}

	return ideas, nil
}

func (r *ideaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM ideas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete idea: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ideaRepository) scanIdea(row pgx.Row) (*models.Idea, error) {
	var idea models.Idea
	var links []byte

	err := row.Scan(
		&idea.ID,
		&idea.OwnerID,
		&idea.InputType,
		&idea.OriginalContent,
		&idea.ArchiveRef,
		&idea.Summary,
		&idea.DeepDive,
		&idea.Topic,
		&links,
		&idea.Status,
		&idea.FailureReason,
		&idea.CreatedAt,
		&idea.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan idea: %w", err)
	}

	if err := json.Unmarshal(links, &idea.RelatedLinks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal related links: %w", err)
	}

	return &idea, nil
}

// Ensure ideaRepository implements IdeaRepository at compile time.
var _ IdeaRepository = (*ideaRepository)(nil)
