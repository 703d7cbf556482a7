package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taste-karachi/advisor-cli/internal/advisor"
	"github.com/taste-karachi/advisor-cli/internal/guardrail"
	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
	"github.com/taste-karachi/advisor-cli/internal/retrieval"
	"github.com/taste-karachi/advisor-cli/internal/store"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
	anthropicpkg "github.com/taste-karachi/advisor-cli/pkg/anthropic"
)

// stubVectors serves canned reviews without a database.
type stubVectors struct {
	reviews []model.ScoredReview
	err     error
}

func (s *stubVectors) Query(ctx context.Context, text string, k int, pred vectorstore.Predicate) ([]model.ScoredReview, error) {
	return s.reviews, s.err
}
func (s *stubVectors) Add(ctx context.Context, docs []model.ReviewDocument) error { return nil }
func (s *stubVectors) Count(ctx context.Context) (int64, error)                   { return int64(len(s.reviews)), nil }
func (s *stubVectors) Close()                                                     {}

// stubLLM returns fixed advice text.
type stubLLM struct {
	text string
}

func (s *stubLLM) CreateMessage(ctx context.Context, req anthropicpkg.MessageRequest) (*anthropicpkg.MessageResponse, error) {
	return &anthropicpkg.MessageResponse{
		Content: []anthropicpkg.ContentBlock{{Type: "text", Text: s.text}},
		Usage:   anthropicpkg.TokenUsage{InputTokens: 100, OutputTokens: 25},
	}, nil
}

// allowGate passes everything through.
type allowGate struct{}

func (allowGate) CheckInput(text string) guardrail.Result {
	return guardrail.Result{Action: guardrail.ActionAllow}
}
func (allowGate) CheckOutput(text string, retrievedContext []string) guardrail.Result {
	return guardrail.Result{Action: guardrail.ActionAllow}
}

func stubReviews(n int) []model.ScoredReview {
	out := make([]model.ScoredReview, n)
	for i := range out {
		out[i] = model.ScoredReview{
			Review: model.ReviewDocument{
				ID:     string(rune('a' + i)),
				Text:   "Great food and service",
				Rating: 4.5,
			},
			Distance: 0.1,
		}
	}
	return out
}

func newTestEnv(t *testing.T, vs *stubVectors) *advisorEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	counters := new(monitoring.Counters)
	engine := retrieval.NewEngine(vs, counters, retrieval.Config{})
	gen := advisor.NewGenerator(&stubLLM{text: "Focus on quality."}, allowGate{}, counters, advisor.GeneratorConfig{Model: "claude-haiku-4-5"})

	return &advisorEnv{
		Store:    st,
		Engine:   engine,
		Advisor:  advisor.New(engine, gen, st),
		Counters: counters,
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServe_Health(t *testing.T) {
	h := newRouter(newTestEnv(t, &stubVectors{}), 24)

	rec := doRequest(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_Advise(t *testing.T) {
	env := newTestEnv(t, &stubVectors{reviews: stubReviews(3)})
	h := newRouter(env, 24)

	rec := doRequest(t, h, http.MethodPost, "/v1/advise",
		`{"category":"Chinese Restaurant","area":"Clifton","price_level":"PRICE_LEVEL_MODERATE"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.AdviceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, "Focus on quality.", resp.Advice)
	assert.Equal(t, 3, resp.NumReviewsRetrieved)

	// The turn is audited.
	rows, err := env.Store.ListConsultations(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Chinese Restaurant", rows[0].Category)
}

func TestServe_AdviseBadBody(t *testing.T) {
	h := newRouter(newTestEnv(t, &stubVectors{}), 24)

	rec := doRequest(t, h, http.MethodPost, "/v1/advise", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_AdviseStoreUnavailable(t *testing.T) {
	h := newRouter(newTestEnv(t, &stubVectors{err: eris.New("connection refused")}), 24)

	rec := doRequest(t, h, http.MethodPost, "/v1/advise", `{"category":"Cafe"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServe_ChatSessionLifecycle(t *testing.T) {
	h := newRouter(newTestEnv(t, &stubVectors{reviews: stubReviews(2)}), 24)

	// Unknown session without features is rejected.
	rec := doRequest(t, h, http.MethodPost, "/v1/chat/s1", `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Opening turn with features.
	rec = doRequest(t, h, http.MethodPost, "/v1/chat/s1", `{"features":{"category":"Cafe","area":"Clifton"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Follow-up turn with a message.
	rec = doRequest(t, h, http.MethodPost, "/v1/chat/s1", `{"message":"Can you summarize that again?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.AdviceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusSuccess, resp.Status)

	// Follow-up without a message is rejected.
	rec = doRequest(t, h, http.MethodPost, "/v1/chat/s1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_Metrics(t *testing.T) {
	env := newTestEnv(t, &stubVectors{reviews: stubReviews(1)})
	h := newRouter(env, 24)

	doRequest(t, h, http.MethodPost, "/v1/advise", `{"category":"Cafe"}`)

	rec := doRequest(t, h, http.MethodGet, "/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Contains(t, payload, "process")
	require.Contains(t, payload, "window")

	var window monitoring.MetricsSnapshot
	require.NoError(t, json.Unmarshal(payload["window"], &window))
	assert.Equal(t, 1, window.Total)
}
