// Package guardrail validates user input and moderates generated advice
// before it reaches the caller.
package guardrail

import (
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
)

// Action is the disposition of a guardrail check.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionBlock  Action = "block"
	ActionModify Action = "modify"
	ActionWarn   Action = "warn"
)

// Result is the outcome of one guardrail check.
type Result struct {
	Action          Action  `json:"action"`
	RuleType        string  `json:"rule_type"`
	Reason          string  `json:"reason,omitempty"`
	ModifiedContent string  `json:"modified_content,omitempty"`
	Confidence      float64 `json:"confidence"`
}

// Config tunes guardrail behavior. The zero value disables everything;
// use DefaultConfig for production settings.
type Config struct {
	EnablePIIDetection     bool `yaml:"enable_pii_detection" mapstructure:"enable_pii_detection"`
	EnableInjectionFilter  bool `yaml:"enable_injection_filter" mapstructure:"enable_injection_filter"`
	EnableOffTopicFilter   bool `yaml:"enable_off_topic_filter" mapstructure:"enable_off_topic_filter"`
	EnableToxicityFilter   bool `yaml:"enable_toxicity_filter" mapstructure:"enable_toxicity_filter"`
	EnableGroundingFilter  bool `yaml:"enable_grounding_filter" mapstructure:"enable_grounding_filter"`
	EnableCompetitorFilter bool `yaml:"enable_competitor_filter" mapstructure:"enable_competitor_filter"`

	ToxicityThreshold    float64 `yaml:"toxicity_threshold" mapstructure:"toxicity_threshold"`
	GroundingThreshold   float64 `yaml:"grounding_threshold" mapstructure:"grounding_threshold"`

	// StrictMode blocks off-topic input; otherwise it only warns.
	StrictMode bool `yaml:"strict_mode" mapstructure:"strict_mode"`
}

// DefaultConfig returns production guardrail settings. The competitor
// filter stays off unless explicitly enabled.
func DefaultConfig() Config {
	return Config{
		EnablePIIDetection:    true,
		EnableInjectionFilter: true,
		EnableOffTopicFilter:  true,
		EnableToxicityFilter:  true,
		EnableGroundingFilter: true,
		ToxicityThreshold:     0.7,
		GroundingThreshold:    0.5,
		StrictMode:            true,
	}
}

// Gate runs input validation and output moderation.
type Gate interface {
	// CheckInput validates a user message before it reaches the LLM.
	CheckInput(text string) Result
	// CheckOutput moderates a generated response against the retrieved
	// review context.
	CheckOutput(text string, retrievedContext []string) Result
}

// Rails is the default Gate implementation. counters may be nil.
type Rails struct {
	cfg      Config
	counters *monitoring.Counters
}

// New creates a guardrail gate.
func New(cfg Config, counters *monitoring.Counters) *Rails {
	return &Rails{cfg: cfg, counters: counters}
}
