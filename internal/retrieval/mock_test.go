package retrieval

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Query(ctx context.Context, text string, k int, pred vectorstore.Predicate) ([]model.ScoredReview, error) {
	args := m.Called(ctx, text, k, pred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoredReview), args.Error(1)
}

func (m *mockStore) Add(ctx context.Context, docs []model.ReviewDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Close() {}

var _ vectorstore.Store = (*mockStore)(nil)
