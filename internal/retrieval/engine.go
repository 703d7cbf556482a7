package retrieval

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
)

// ErrUnavailable indicates the vector store could not be queried. It is
// distinct from an empty result, which is a valid outcome.
var ErrUnavailable = eris.New("retrieval: store unavailable")

// Config tunes the retrieval engine.
type Config struct {
	K             int      `yaml:"k" mapstructure:"k"`
	MinAcceptable int      `yaml:"min_acceptable" mapstructure:"min_acceptable"`
	VibeFields    []string `yaml:"vibe_fields" mapstructure:"vibe_fields"`
}

// Engine walks the relaxation ladder against the vector store.
type Engine struct {
	store    vectorstore.Store
	counters *monitoring.Counters
	cfg      Config
}

// NewEngine creates a retrieval engine. counters may be nil.
func NewEngine(store vectorstore.Store, counters *monitoring.Counters, cfg Config) *Engine {
	if cfg.K <= 0 {
		cfg.K = 5
	}
	if cfg.MinAcceptable <= 0 {
		cfg.MinAcceptable = 1
	}
	if cfg.VibeFields == nil {
		cfg.VibeFields = DefaultVibeAllowlist
	}
	return &Engine{store: store, counters: counters, cfg: cfg}
}

// Retrieve runs the progressive search using the profile's synthesized
// query text.
func (e *Engine) Retrieve(ctx context.Context, features model.RestaurantFeatures) (model.RetrievalResult, error) {
	return e.RetrieveQuery(ctx, features.QueryText(), features)
}

// RetrieveQuery runs the progressive search with caller-supplied query text
// (the follow-up path, where the user's message carries the semantics).
//
// Tiers are tried strictest first. The first tier returning at least
// MinAcceptable reviews wins and later tiers are never queried. The final
// tier's result is accepted regardless of size, including empty. Store
// failures abort the walk; they are never converted to an empty result.
func (e *Engine) RetrieveQuery(ctx context.Context, queryText string, features model.RestaurantFeatures) (model.RetrievalResult, error) {
	levels := Plan(features, e.cfg.VibeFields)

	var result model.RetrievalResult
	for i, level := range levels {
		matches, err := e.store.Query(ctx, queryText, e.cfg.K, level.Predicate)
		if err != nil {
			return model.RetrievalResult{}, eris.Wrapf(ErrUnavailable, "tier %d: %v", level.Tier, err)
		}

		result = model.RetrievalResult{Reviews: matches, Tier: level.Tier}
		last := i == len(levels)-1
		if len(matches) >= e.cfg.MinAcceptable || last {
			break
		}
		zap.L().Debug("retrieval tier relaxed",
			zap.Int("tier", level.Tier),
			zap.Int("matches", len(matches)),
			zap.Int("min_acceptable", e.cfg.MinAcceptable),
		)
	}

	if e.counters != nil {
		e.counters.RecordRetrieval(result.Tier, len(result.Reviews))
	}
	zap.L().Info("retrieval complete",
		zap.Int("tier", result.Tier),
		zap.Int("reviews", len(result.Reviews)),
	)
	return result, nil
}
