package advisor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/taste-karachi/advisor-cli/internal/guardrail"
	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/store"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
	"github.com/taste-karachi/advisor-cli/pkg/anthropic"
)

// --- Vector store Mock ---

type mockVectorStore struct {
	mock.Mock
}

func (m *mockVectorStore) Query(ctx context.Context, text string, k int, pred vectorstore.Predicate) ([]model.ScoredReview, error) {
	args := m.Called(ctx, text, k, pred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoredReview), args.Error(1)
}

func (m *mockVectorStore) Add(ctx context.Context, docs []model.ReviewDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *mockVectorStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockVectorStore) Close() {}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Guardrail gate Mock ---

type mockGate struct {
	mock.Mock
}

func (m *mockGate) CheckInput(text string) guardrail.Result {
	args := m.Called(text)
	return args.Get(0).(guardrail.Result)
}

func (m *mockGate) CheckOutput(text string, retrievedContext []string) guardrail.Result {
	args := m.Called(text, retrievedContext)
	return args.Get(0).(guardrail.Result)
}

// --- Audit store Mock ---

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) SaveConsultation(ctx context.Context, c model.Consultation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockAuditStore) GetConsultation(ctx context.Context, id string) (*model.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Consultation), args.Error(1)
}

func (m *mockAuditStore) ListConsultations(ctx context.Context, filter store.Filter) ([]model.Consultation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Consultation), args.Error(1)
}

func (m *mockAuditStore) CountByStatus(ctx context.Context) (map[model.AdviceStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.AdviceStatus]int), args.Error(1)
}

func (m *mockAuditStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockAuditStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Ensure interface compliance ---
var (
	_ vectorstore.Store = (*mockVectorStore)(nil)
	_ anthropic.Client  = (*mockAnthropicClient)(nil)
	_ guardrail.Gate    = (*mockGate)(nil)
	_ store.Store       = (*mockAuditStore)(nil)
)
