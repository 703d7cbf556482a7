package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of consultation health.
type MetricsSnapshot struct {
	// Consultation totals within the lookback window.
	Total        int     `json:"total"`
	Success      int     `json:"success"`
	Blocked      int     `json:"blocked"`
	Degraded     int     `json:"degraded"`
	BlockRate    float64 `json:"block_rate"`
	DegradeRate  float64 `json:"degrade_rate"`
	AvgLatencyMS int64   `json:"avg_latency_ms"`
	AvgReviews   float64 `json:"avg_reviews"`
	TotalTokens  int     `json:"total_tokens"`

	// How often each filter tier ended up serving the request.
	TierDistribution [3]int `json:"tier_distribution"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector aggregates metrics from the consultation audit log.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)
	consultations, err := c.store.ListConsultations(ctx, store.Filter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list consultations")
	}

	snap.Total = len(consultations)
	var totalLatency int64
	var totalReviews int

	for _, con := range consultations {
		switch con.Status {
		case model.StatusSuccess:
			snap.Success++
		case model.StatusBlocked:
			snap.Blocked++
		case model.StatusDegraded:
			snap.Degraded++
		}
		if con.FilterTierUsed >= 0 && con.FilterTierUsed < len(snap.TierDistribution) {
			snap.TierDistribution[con.FilterTierUsed]++
		}
		totalLatency += con.LatencyMS
		totalReviews += con.NumReviewsRetrieved
		snap.TotalTokens += con.InputTokens + con.OutputTokens
	}

	if snap.Total > 0 {
		snap.BlockRate = float64(snap.Blocked) / float64(snap.Total)
		snap.DegradeRate = float64(snap.Degraded) / float64(snap.Total)
		snap.AvgLatencyMS = totalLatency / int64(snap.Total)
		snap.AvgReviews = float64(totalReviews) / float64(snap.Total)
	}

	return snap, nil
}
