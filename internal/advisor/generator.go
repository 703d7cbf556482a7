package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taste-karachi/advisor-cli/internal/guardrail"
	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
	"github.com/taste-karachi/advisor-cli/pkg/anthropic"
)

// GeneratorConfig tunes the LLM call per turn.
type GeneratorConfig struct {
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int64         `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	VibeFields  []string      `yaml:"vibe_fields" mapstructure:"vibe_fields"`
	Temperature *float64      `yaml:"temperature" mapstructure:"temperature"`
}

// Generator turns a restaurant profile plus retrieved reviews into advice.
// Every response passes the guardrail gate on the way in and on the way out;
// a blocked input never reaches the LLM.
type Generator struct {
	llm      anthropic.Client
	gate     guardrail.Gate
	counters *monitoring.Counters
	cfg      GeneratorConfig
}

// NewGenerator creates a Generator. counters may be nil.
func NewGenerator(llm anthropic.Client, gate guardrail.Gate, counters *monitoring.Counters, cfg GeneratorConfig) *Generator {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Generator{llm: llm, gate: gate, counters: counters, cfg: cfg}
}

// Generate runs one full advice turn: input guardrail, prompt rendering,
// the LLM call, and output moderation. userInput is the rendered user-facing
// text for this turn (the profile summary for a first consultation, the raw
// message for follow-ups). It never returns an error: every failure mode
// collapses into a blocked response with a reason, so callers always have
// something to show the user.
func (g *Generator) Generate(ctx context.Context, features model.RestaurantFeatures, retrieval model.RetrievalResult, userInput string) model.AdviceResponse {
	start := time.Now()
	resp := model.AdviceResponse{
		Status:              model.StatusSuccess,
		NumReviewsRetrieved: len(retrieval.Reviews),
		FilterTierUsed:      retrieval.Tier,
		FeaturesUsed:        features.Echo(g.cfg.VibeFields),
	}

	if in := g.gate.CheckInput(userInput); in.Action == guardrail.ActionBlock {
		resp.Status = model.StatusBlocked
		resp.BlockReason = in.RuleType + ": " + in.Reason
		resp.Advice = guardrail.BlockedResponse(in)
		return g.finish(resp, start)
	}

	if retrieval.Empty() {
		resp.Advice = noReviewsMessage
		return g.finish(resp, start)
	}

	llmCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	msg, err := g.llm.CreateMessage(llmCtx, anthropic.MessageRequest{
		Model:     g.cfg.Model,
		MaxTokens: g.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(features, retrieval.Reviews, g.cfg.VibeFields)},
		},
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		zap.L().Error("advisor: llm call failed", zap.Error(err))
		resp.Status = model.StatusBlocked
		resp.BlockReason = "llm: " + err.Error()
		resp.Advice = "Advice generation is temporarily unavailable. Please try again shortly."
		return g.finish(resp, start)
	}

	resp.InputTokens = int(msg.Usage.InputTokens)
	resp.OutputTokens = int(msg.Usage.OutputTokens)
	msg.Usage.LogCost(g.cfg.Model, "advise")

	advice := msg.Text()
	switch out := g.gate.CheckOutput(advice, retrieval.Texts()); out.Action {
	case guardrail.ActionBlock:
		resp.Status = model.StatusBlocked
		resp.BlockReason = out.RuleType + ": " + out.Reason
		resp.Advice = guardrail.BlockedResponse(out)
	case guardrail.ActionWarn:
		resp.Status = model.StatusDegraded
		resp.Advice = advice + guardrail.GroundingDisclaimer
	case guardrail.ActionModify:
		resp.Advice = out.ModifiedContent
	default:
		resp.Advice = advice
	}
	return g.finish(resp, start)
}

func (g *Generator) finish(resp model.AdviceResponse, start time.Time) model.AdviceResponse {
	elapsed := time.Since(start)
	resp.LatencyMS = elapsed.Milliseconds()
	if g.counters != nil {
		g.counters.RecordTurn(resp.Status, resp.InputTokens, resp.OutputTokens, elapsed)
	}
	zap.L().Debug("advisor: turn generated",
		zap.String("status", string(resp.Status)),
		zap.Int("reviews", resp.NumReviewsRetrieved),
		zap.Int("tier", resp.FilterTierUsed),
		zap.Int64("latency_ms", resp.LatencyMS))
	return resp
}
