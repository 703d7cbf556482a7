package advisor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/retrieval"
	"github.com/taste-karachi/advisor-cli/internal/store"
)

// Advisor wires retrieval and generation into complete consultations and
// records every turn in the audit log.
type Advisor struct {
	engine *retrieval.Engine
	gen    *Generator
	store  store.Store // nil disables the audit log
}

// New creates an Advisor. store may be nil.
func New(engine *retrieval.Engine, gen *Generator, st store.Store) *Advisor {
	return &Advisor{engine: engine, gen: gen, store: st}
}

// Advise runs a one-shot consultation for the given restaurant profile.
// Retrieval failures surface as errors; generation failures are folded
// into the response status.
func (a *Advisor) Advise(ctx context.Context, features model.RestaurantFeatures) (model.AdviceResponse, error) {
	result, err := a.engine.Retrieve(ctx, features)
	if err != nil {
		return model.AdviceResponse{}, eris.Wrap(err, "advisor: retrieve")
	}

	resp := a.gen.Generate(ctx, features, result, features.Summary(a.gen.cfg.VibeFields))
	a.record(ctx, features, resp)
	return resp, nil
}

// StartConversation retrieves the initial evidence for a profile and returns
// the opening advice together with a conversation context for follow-ups.
func (a *Advisor) StartConversation(ctx context.Context, features model.RestaurantFeatures) (*model.ConversationContext, model.AdviceResponse, error) {
	result, err := a.engine.Retrieve(ctx, features)
	if err != nil {
		return nil, model.AdviceResponse{}, eris.Wrap(err, "advisor: retrieve")
	}

	conv := model.NewConversation(features)
	conv.MergeRetrieval(result)

	resp := a.gen.Generate(ctx, features, result, features.Summary(a.gen.cfg.VibeFields))
	conv.AddTurn(model.RoleUser, features.Summary(a.gen.cfg.VibeFields))
	conv.AddTurn(model.RoleAssistant, resp.Advice)
	a.record(ctx, features, resp)
	return conv, resp, nil
}

// Turn handles one follow-up message against an ongoing conversation.
// Messages that ask for fresh evidence re-query the vector store with the
// message text and merge the results into the accumulated context; others
// answer from what has already been retrieved.
func (a *Advisor) Turn(ctx context.Context, conv *model.ConversationContext, message string) (model.AdviceResponse, error) {
	if NeedsRetrieval(message) {
		result, err := a.engine.RetrieveQuery(ctx, message, conv.Features)
		if err != nil {
			return model.AdviceResponse{}, eris.Wrap(err, "advisor: follow-up retrieve")
		}
		conv.MergeRetrieval(result)
		zap.L().Debug("advisor: follow-up retrieval",
			zap.Int("tier", result.Tier),
			zap.Int("fetched", len(result.Reviews)),
			zap.Int("accumulated", len(conv.Retrieved)))
	}

	accumulated := model.RetrievalResult{Reviews: conv.Retrieved, Tier: conv.Tier}
	resp := a.gen.Generate(ctx, conv.Features, accumulated, message)
	conv.AddTurn(model.RoleUser, message)
	conv.AddTurn(model.RoleAssistant, resp.Advice)
	a.record(ctx, conv.Features, resp)
	return resp, nil
}

// record persists the audit row. A storage failure is logged, never fatal:
// losing one audit record must not fail the consultation.
func (a *Advisor) record(ctx context.Context, features model.RestaurantFeatures, resp model.AdviceResponse) {
	if a.store == nil {
		return
	}
	c := model.Consultation{
		ID:                  uuid.NewString(),
		Category:            features.Category,
		Area:                features.Area,
		PriceLevel:          features.PriceLevel,
		Status:              resp.Status,
		BlockReason:         resp.BlockReason,
		FilterTierUsed:      resp.FilterTierUsed,
		NumReviewsRetrieved: resp.NumReviewsRetrieved,
		InputTokens:         resp.InputTokens,
		OutputTokens:        resp.OutputTokens,
		LatencyMS:           resp.LatencyMS,
		CreatedAt:           time.Now().UTC(),
	}
	if err := a.store.SaveConsultation(ctx, c); err != nil {
		zap.L().Warn("advisor: audit save failed", zap.String("id", c.ID), zap.Error(err))
	}
}
