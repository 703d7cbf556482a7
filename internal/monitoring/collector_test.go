package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveConsultation(ctx context.Context, c model.Consultation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockStore) GetConsultation(ctx context.Context, id string) (*model.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Consultation), args.Error(1)
}

func (m *mockStore) ListConsultations(ctx context.Context, filter store.Filter) ([]model.Consultation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Consultation), args.Error(1)
}

func (m *mockStore) CountByStatus(ctx context.Context) (map[model.AdviceStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.AdviceStatus]int), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ store.Store = (*mockStore)(nil)

func consultation(status model.AdviceStatus, tier, reviews int, latencyMS int64, tokens int) model.Consultation {
	return model.Consultation{
		Status:              status,
		FilterTierUsed:      tier,
		NumReviewsRetrieved: reviews,
		LatencyMS:           latencyMS,
		InputTokens:         tokens,
		OutputTokens:        tokens / 2,
		CreatedAt:           time.Now().UTC(),
	}
}

func TestCollect_Aggregates(t *testing.T) {
	st := new(mockStore)
	st.On("ListConsultations", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.Limit == 10000 && !f.CreatedAfter.IsZero()
	})).Return([]model.Consultation{
		consultation(model.StatusSuccess, 0, 5, 1000, 400),
		consultation(model.StatusSuccess, 1, 3, 2000, 300),
		consultation(model.StatusBlocked, 0, 0, 10, 0),
		consultation(model.StatusDegraded, 2, 2, 3000, 500),
	}, nil)

	snap, err := NewCollector(st).Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 2, snap.Success)
	assert.Equal(t, 1, snap.Blocked)
	assert.Equal(t, 1, snap.Degraded)
	assert.InDelta(t, 0.25, snap.BlockRate, 0.001)
	assert.InDelta(t, 0.25, snap.DegradeRate, 0.001)
	assert.Equal(t, int64(1502), snap.AvgLatencyMS)
	assert.InDelta(t, 2.5, snap.AvgReviews, 0.001)
	assert.Equal(t, 1800, snap.TotalTokens)
	assert.Equal(t, [3]int{2, 1, 1}, snap.TierDistribution)
	assert.Equal(t, 24, snap.LookbackHours)
}

func TestCollect_EmptyWindow(t *testing.T) {
	st := new(mockStore)
	st.On("ListConsultations", mock.Anything, mock.Anything).
		Return([]model.Consultation{}, nil)

	snap, err := NewCollector(st).Collect(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.Total)
	assert.Zero(t, snap.BlockRate)
	assert.Zero(t, snap.AvgLatencyMS)
}

func TestCollect_StoreError(t *testing.T) {
	st := new(mockStore)
	st.On("ListConsultations", mock.Anything, mock.Anything).
		Return(nil, eris.New("db down"))

	_, err := NewCollector(st).Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list consultations")
}
