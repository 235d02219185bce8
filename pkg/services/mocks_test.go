package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/archive"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
)

type mockIdeaRepo struct {
	CreateFunc             func(ctx context.Context, idea *models.Idea) error
	GetFunc                func(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	ClaimFunc              func(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	SetArchiveRefFunc      func(ctx context.Context, id uuid.UUID, ref string) error
	CompleteProcessingFunc func(ctx context.Context, id uuid.UUID, result *models.EnrichmentResult) error
	MarkFailedFunc         func(ctx context.Context, id uuid.UUID, reason string) error
	ListByOwnerFunc        func(ctx context.Context, ownerID, topic string) ([]*models.Idea, error)
	DeleteFunc             func(ctx context.Context, id uuid.UUID) error

	ClaimCalls         int
	SetArchiveRefCalls int
	CompleteCalls      int
	MarkFailedCalls    int
	DeleteCalls        int
}

var _ repositories.IdeaRepository = (*mockIdeaRepo)(nil)

func (m *mockIdeaRepo) Create(ctx context.Context, idea *models.Idea) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, idea)
	}
	return nil
}

func (m *mockIdeaRepo) Get(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Idea{ID: id}, nil
}

func (m *mockIdeaRepo) Claim(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	m.ClaimCalls++
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, id)
	}
	return &models.Idea{ID: id, Status: models.StatusProcessing}, nil
}

func (m *mockIdeaRepo) SetArchiveRef(ctx context.Context, id uuid.UUID, ref string) error {
	m.SetArchiveRefCalls++
	if m.SetArchiveRefFunc != nil {
		return m.SetArchiveRefFunc(ctx, id, ref)
	}
	return nil
}

func (m *mockIdeaRepo) CompleteProcessing(ctx context.Context, id uuid.UUID, result *models.EnrichmentResult) error {
	m.CompleteCalls++
	if m.CompleteProcessingFunc != nil {
		return m.CompleteProcessingFunc(ctx, id, result)
	}
	return nil
}

func (m *mockIdeaRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	m.MarkFailedCalls++
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, reason)
	}
	return nil
}

func (m *mockIdeaRepo) ListByOwner(ctx context.Context, ownerID, topic string) ([]*models.Idea, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, topic)
	}
	return nil, nil
}

func (m *mockIdeaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockExtractor struct {
	ExtractFunc  func(ctx context.Context, inputType models.InputType, content string) models.ExtractionResult
	ExtractCalls int
}

func (m *mockExtractor) Extract(ctx context.Context, inputType models.InputType, content string) models.ExtractionResult {
	m.ExtractCalls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, inputType, content)
	}
	return models.ExtractionResult{Text: content, Provenance: models.ProvenanceRawText}
}

type mockEnricher struct {
	EnrichFunc   func(ctx context.Context, extractedText, failureNote string) (*models.EnrichmentResult, error)
	EnrichCalls  int
	LastInput    string
	LastFailNote string
}

func (m *mockEnricher) Enrich(ctx context.Context, extractedText, failureNote string) (*models.EnrichmentResult, error) {
	m.EnrichCalls++
	m.LastInput = extractedText
	m.LastFailNote = failureNote
	if m.EnrichFunc != nil {
		return m.EnrichFunc(ctx, extractedText, failureNote)
	}
	return &models.EnrichmentResult{
		Overview:     "overview",
		DeepDive:     "deep dive",
		Topic:        "testing",
		RelatedLinks: []models.RelatedLink{},
	}, nil
}

type mockArchiver struct {
	ArchiveFunc  func(ctx context.Context, ownerID string, ideaID uuid.UUID, content string, meta archive.Metadata) (string, error)
	ReleaseFunc  func(ctx context.Context, ownerID, blobID string) error
	ArchiveCalls int
	ReleaseCalls int
}

func (m *mockArchiver) Archive(ctx context.Context, ownerID string, ideaID uuid.UUID, content string, meta archive.Metadata) (string, error) {
	m.ArchiveCalls++
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, ownerID, ideaID, content, meta)
	}
	return "blob-1", nil
}

func (m *mockArchiver) Release(ctx context.Context, ownerID, blobID string) error {
	m.ReleaseCalls++
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, ownerID, blobID)
	}
	return nil
}
