package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Config controls metrics aggregation and alerting thresholds.
// A zero threshold disables the corresponding alert.
type Config struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	BlockRateThreshold   float64 `yaml:"block_rate_threshold" mapstructure:"block_rate_threshold"`
	DegradeRateThreshold float64 `yaml:"degrade_rate_threshold" mapstructure:"degrade_rate_threshold"`
	LatencyThresholdMS   int64   `yaml:"latency_threshold_ms" mapstructure:"latency_threshold_ms"`
}

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertBlockRate   AlertType = "guardrail_block_rate"
	AlertDegradeRate AlertType = "grounding_degrade_rate"
	AlertLatency     AlertType = "latency"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// minSampleSize avoids rate alerts firing off a handful of consultations.
const minSampleSize = 10

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    Config
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg Config) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.Total >= minSampleSize && a.cfg.BlockRateThreshold > 0 && snap.BlockRate > a.cfg.BlockRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertBlockRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Guardrail block rate %.1f%% exceeds threshold %.1f%% (%d blocked / %d total in last %dh)",
				snap.BlockRate*100, a.cfg.BlockRateThreshold*100,
				snap.Blocked, snap.Total, snap.LookbackHours,
			),
			Details: map[string]any{
				"block_rate": snap.BlockRate,
				"threshold":  a.cfg.BlockRateThreshold,
				"blocked":    snap.Blocked,
				"total":      snap.Total,
			},
			Timestamp: now,
		})
	}

	if snap.Total >= minSampleSize && a.cfg.DegradeRateThreshold > 0 && snap.DegradeRate > a.cfg.DegradeRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertDegradeRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Grounding degrade rate %.1f%% exceeds threshold %.1f%% (%d degraded / %d total in last %dh)",
				snap.DegradeRate*100, a.cfg.DegradeRateThreshold*100,
				snap.Degraded, snap.Total, snap.LookbackHours,
			),
			Details: map[string]any{
				"degrade_rate": snap.DegradeRate,
				"threshold":    a.cfg.DegradeRateThreshold,
				"degraded":     snap.Degraded,
				"total":        snap.Total,
			},
			Timestamp: now,
		})
	}

	if a.cfg.LatencyThresholdMS > 0 && snap.Total > 0 && snap.AvgLatencyMS > a.cfg.LatencyThresholdMS {
		alerts = append(alerts, Alert{
			Type:     AlertLatency,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Average consultation latency %dms exceeds threshold %dms in last %dh",
				snap.AvgLatencyMS, a.cfg.LatencyThresholdMS, snap.LookbackHours,
			),
			Details: map[string]any{
				"avg_latency_ms": snap.AvgLatencyMS,
				"threshold_ms":   a.cfg.LatencyThresholdMS,
				"total":          snap.Total,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
