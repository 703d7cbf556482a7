package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/taste-karachi/advisor-cli/internal/advisor"
	"github.com/taste-karachi/advisor-cli/internal/guardrail"
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
	"github.com/taste-karachi/advisor-cli/internal/retrieval"
	"github.com/taste-karachi/advisor-cli/internal/store"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
	anthropicpkg "github.com/taste-karachi/advisor-cli/pkg/anthropic"
	"github.com/taste-karachi/advisor-cli/pkg/embeddings"
)

// advisorEnv bundles the initialized consultation dependencies for a command.
type advisorEnv struct {
	Store    store.Store
	Vectors  *vectorstore.PostgresStore
	Engine   *retrieval.Engine
	Advisor  *advisor.Advisor
	Counters *monitoring.Counters
}

// Close releases resources held by the environment.
func (e *advisorEnv) Close() {
	if e.Vectors != nil {
		e.Vectors.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore creates the consultation audit store from config.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initEmbedder creates the Jina embeddings client from config.
func initEmbedder() embeddings.Client {
	opts := []embeddings.Option{
		embeddings.WithBaseURL(cfg.Embeddings.BaseURL),
		embeddings.WithModel(cfg.Embeddings.Model),
	}
	if cfg.Embeddings.RequestsPerS > 0 {
		opts = append(opts, embeddings.WithRateLimit(cfg.Embeddings.RequestsPerS))
	}
	return embeddings.NewClient(cfg.Embeddings.Key, opts...)
}

// initVectors connects to the pgvector review store.
func initVectors(ctx context.Context) (*vectorstore.PostgresStore, error) {
	vs, err := vectorstore.NewPostgres(ctx, cfg.VectorStore.DatabaseURL, initEmbedder(), cfg.VectorStore.Dimensions, &cfg.VectorStore.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "init vector store")
	}
	return vs, nil
}

// initAdvisor validates the config for the given command mode and wires the
// full consultation stack: audit store, vector store, retrieval engine,
// guardrails, and the LLM generator.
func initAdvisor(ctx context.Context, mode string) (*advisorEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	vs, err := initVectors(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	counters := new(monitoring.Counters)
	engine := retrieval.NewEngine(vs, counters, cfg.Retrieval)
	rails := guardrail.New(cfg.Guardrail, counters)

	llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
	gen := advisor.NewGenerator(llm, rails, counters, advisor.GeneratorConfig{
		Model:      cfg.Anthropic.Model,
		MaxTokens:  cfg.Anthropic.MaxTokens,
		Timeout:    time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
		VibeFields: cfg.Retrieval.VibeFields,
	})

	return &advisorEnv{
		Store:    st,
		Vectors:  vs,
		Engine:   engine,
		Advisor:  advisor.New(engine, gen, st),
		Counters: counters,
	}, nil
}
