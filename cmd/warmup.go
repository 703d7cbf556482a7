package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taste-karachi/advisor-cli/internal/advisor"
	anthropicpkg "github.com/taste-karachi/advisor-cli/pkg/anthropic"
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Prime the prompt cache and the embedding path",
	Long:  "Sends a primer request with the cached consultant system prompt so subsequent turns hit a warm prompt cache, and, when the vector store is configured, runs one throwaway similarity query to exercise the embedding path.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("warmup"); err != nil {
			return err
		}

		llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
		req := anthropicpkg.MessageRequest{
			Model:     cfg.Anthropic.Model,
			MaxTokens: 16,
			System:    anthropicpkg.BuildCachedSystemBlocks(advisor.SystemPrompt()),
			Messages: []anthropicpkg.Message{
				{Role: "user", Content: "test restaurant"},
			},
		}
		resp, err := anthropicpkg.PrimerRequest(ctx, llm, req)
		if err != nil {
			return eris.Wrap(err, "warmup primer")
		}
		zap.L().Info("prompt cache primed",
			zap.String("model", resp.Model),
			zap.Int64("cache_creation_tokens", resp.Usage.CacheCreationInputTokens),
		)

		// Embedding-path warmup is best effort: the original behavior falls
		// back to lazy init on first request if the store is unreachable.
		if cfg.VectorStore.DatabaseURL == "" || cfg.Embeddings.Key == "" {
			zap.L().Info("vector store not configured, skipping embedding warmup")
			return nil
		}
		vs, err := initVectors(ctx)
		if err != nil {
			zap.L().Warn("embedding warmup skipped", zap.Error(err))
			return nil
		}
		defer vs.Close()

		if _, err := vs.Query(ctx, "test restaurant", 1, nil); err != nil {
			zap.L().Warn("embedding warmup query failed", zap.Error(err))
			return nil
		}
		zap.L().Info("embedding path warmed up")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(warmupCmd)
}
