// Package vectorstore provides semantic search over ingested restaurant
// reviews, backed by Postgres with the pgvector extension.
package vectorstore

import (
	"context"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

// Condition is one metadata equality constraint.
type Condition struct {
	Field string
	Value any
}

// Predicate is an ordered conjunction of equality conditions. An empty
// predicate matches every document.
type Predicate []Condition

// Store is the vector store used for retrieval and ingestion.
type Store interface {
	// Query embeds the text and returns the k nearest reviews matching the
	// predicate, ordered by ascending distance.
	Query(ctx context.Context, text string, k int, pred Predicate) ([]model.ScoredReview, error)
	// Add upserts review documents with their embeddings.
	Add(ctx context.Context, docs []model.ReviewDocument) error
	// Count returns the number of stored reviews.
	Count(ctx context.Context) (int64, error)
	Close()
}
