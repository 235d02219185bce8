package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/services"
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
}

var _ repositories.IdeaRepository = (*mockIdeaRepo)(nil)

func (m *mockIdeaRepo) Create(ctx context.Context, idea *models.Idea) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, idea)
	}
	if idea.ID == uuid.Nil {
		idea.ID = uuid.New()
	}
	return nil
}

func (m *mockIdeaRepo) Get(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Idea{ID: id, Status: models.StatusPending}, nil
}

func (m *mockIdeaRepo) Claim(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, id)
	}
	return &models.Idea{ID: id}, nil
}

func (m *mockIdeaRepo) SetArchiveRef(ctx context.Context, id uuid.UUID, ref string) error {
	if m.SetArchiveRefFunc != nil {
		return m.SetArchiveRefFunc(ctx, id, ref)
	}
	return nil
}

func (m *mockIdeaRepo) CompleteProcessing(ctx context.Context, id uuid.UUID, result *models.EnrichmentResult) error {
	if m.CompleteProcessingFunc != nil {
		return m.CompleteProcessingFunc(ctx, id, result)
	}
	return nil
}

func (m *mockIdeaRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
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
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockPipeline struct {
	ProcessIdeaFunc  func(ctx context.Context, ideaID uuid.UUID) error
	DeleteIdeaFunc   func(ctx context.Context, ownerID string, ideaID uuid.UUID) error
	ProcessIdeaCalls int
	DeleteIdeaCalls  int
}

var _ services.Pipeline = (*mockPipeline)(nil)

func (m *mockPipeline) ProcessIdea(ctx context.Context, ideaID uuid.UUID) error {
	m.ProcessIdeaCalls++
	if m.ProcessIdeaFunc != nil {
		return m.ProcessIdeaFunc(ctx, ideaID)
	}
	return nil
}

func (m *mockPipeline) DeleteIdea(ctx context.Context, ownerID string, ideaID uuid.UUID) error {
	m.DeleteIdeaCalls++
	if m.DeleteIdeaFunc != nil {
		return m.DeleteIdeaFunc(ctx, ownerID, ideaID)
	}
	return nil
}

type mockExchanger struct {
	ExchangeFunc  func(ctx context.Context, ownerID, code, redirectURI string) error
	ExchangeCalls int
}

var _ ConsentExchanger = (*mockExchanger)(nil)

func (m *mockExchanger) ExchangeAuthorizationCode(ctx context.Context, ownerID, code, redirectURI string) error {
	m.ExchangeCalls++
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, ownerID, code, redirectURI)
	}
	return nil
}
