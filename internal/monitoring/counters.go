// Package monitoring tracks consultation health, both as live process
// counters and as aggregates over the audit log.
package monitoring

import (
	"sync/atomic"
	"time"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

// tierCount is sized for the three-level relaxation ladder.
const tierCount = 3

// Counters holds process-wide totals. All methods are safe for concurrent
// use; serve mode updates them from every request goroutine.
type Counters struct {
	turnsSuccess  atomic.Int64
	turnsBlocked  atomic.Int64
	turnsDegraded atomic.Int64

	inputTokens  atomic.Int64
	outputTokens atomic.Int64

	retrievals     [tierCount]atomic.Int64
	reviewsFetched atomic.Int64

	inputBlocks  atomic.Int64
	outputBlocks atomic.Int64

	latencyTotalMS atomic.Int64
	latencyCount   atomic.Int64
}

// RecordTurn tallies one finished consultation turn.
func (c *Counters) RecordTurn(status model.AdviceStatus, inputTokens, outputTokens int, latency time.Duration) {
	switch status {
	case model.StatusBlocked:
		c.turnsBlocked.Add(1)
	case model.StatusDegraded:
		c.turnsDegraded.Add(1)
	default:
		c.turnsSuccess.Add(1)
	}
	c.inputTokens.Add(int64(inputTokens))
	c.outputTokens.Add(int64(outputTokens))
	c.latencyTotalMS.Add(latency.Milliseconds())
	c.latencyCount.Add(1)
}

// RecordRetrieval tallies one completed retrieval pass.
func (c *Counters) RecordRetrieval(tier, reviews int) {
	if tier >= 0 && tier < tierCount {
		c.retrievals[tier].Add(1)
	}
	c.reviewsFetched.Add(int64(reviews))
}

// RecordInputBlock tallies an input guardrail rejection.
func (c *Counters) RecordInputBlock() { c.inputBlocks.Add(1) }

// RecordOutputBlock tallies an output guardrail rejection.
func (c *Counters) RecordOutputBlock() { c.outputBlocks.Add(1) }

// CountersSnapshot is a point-in-time copy of the live counters.
type CountersSnapshot struct {
	TurnsSuccess  int64 `json:"turns_success"`
	TurnsBlocked  int64 `json:"turns_blocked"`
	TurnsDegraded int64 `json:"turns_degraded"`

	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`

	RetrievalsByTier [tierCount]int64 `json:"retrievals_by_tier"`
	ReviewsFetched   int64            `json:"reviews_fetched"`

	InputBlocks  int64 `json:"input_blocks"`
	OutputBlocks int64 `json:"output_blocks"`

	AvgLatencyMS int64 `json:"avg_latency_ms"`
}

// Snapshot copies the current counter values.
func (c *Counters) Snapshot() CountersSnapshot {
	snap := CountersSnapshot{
		TurnsSuccess:   c.turnsSuccess.Load(),
		TurnsBlocked:   c.turnsBlocked.Load(),
		TurnsDegraded:  c.turnsDegraded.Load(),
		InputTokens:    c.inputTokens.Load(),
		OutputTokens:   c.outputTokens.Load(),
		ReviewsFetched: c.reviewsFetched.Load(),
		InputBlocks:    c.inputBlocks.Load(),
		OutputBlocks:   c.outputBlocks.Load(),
	}
	for i := range snap.RetrievalsByTier {
		snap.RetrievalsByTier[i] = c.retrievals[i].Load()
	}
	if n := c.latencyCount.Load(); n > 0 {
		snap.AvgLatencyMS = c.latencyTotalMS.Load() / n
	}
	return snap
}
