package model

import "time"

// AdviceStatus classifies the terminal state of a consultation turn.
type AdviceStatus string

const (
	StatusSuccess  AdviceStatus = "success"
	StatusBlocked  AdviceStatus = "blocked"
	StatusDegraded AdviceStatus = "degraded"
)

// AdviceResponse is the result of one advice generation.
type AdviceResponse struct {
	Advice              string         `json:"advice"`
	Status              AdviceStatus   `json:"status"`
	BlockReason         string         `json:"block_reason,omitempty"`
	NumReviewsRetrieved int            `json:"num_reviews_retrieved"`
	FilterTierUsed      int            `json:"filter_tier_used"`
	FeaturesUsed        map[string]any `json:"features_used"`
	InputTokens         int            `json:"input_tokens"`
	OutputTokens        int            `json:"output_tokens"`
	LatencyMS           int64          `json:"latency_ms"`
}

// Consultation is the persisted audit record for one advice turn.
type Consultation struct {
	ID                  string       `json:"id"`
	Category            string       `json:"category"`
	Area                string       `json:"area"`
	PriceLevel          string       `json:"price_level"`
	Status              AdviceStatus `json:"status"`
	BlockReason         string       `json:"block_reason,omitempty"`
	FilterTierUsed      int          `json:"filter_tier_used"`
	NumReviewsRetrieved int          `json:"num_reviews_retrieved"`
	InputTokens         int          `json:"input_tokens"`
	OutputTokens        int          `json:"output_tokens"`
	LatencyMS           int64        `json:"latency_ms"`
	CreatedAt           time.Time    `json:"created_at"`
}
