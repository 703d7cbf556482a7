package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/taste-karachi/advisor-cli/internal/guardrail"
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
	"github.com/taste-karachi/advisor-cli/internal/retrieval"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	VectorStore VectorStoreConfig `yaml:"vectorstore" mapstructure:"vectorstore"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" mapstructure:"embeddings"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Retrieval   retrieval.Config  `yaml:"retrieval" mapstructure:"retrieval"`
	Guardrail   guardrail.Config  `yaml:"guardrail" mapstructure:"guardrail"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Monitoring  monitoring.Config `yaml:"monitoring" mapstructure:"monitoring"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the consultation audit log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// VectorStoreConfig configures the pgvector review store.
type VectorStoreConfig struct {
	DatabaseURL string                 `yaml:"database_url" mapstructure:"database_url"`
	Dimensions  int                    `yaml:"dimensions" mapstructure:"dimensions"`
	Pool        vectorstore.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// EmbeddingsConfig holds Jina embeddings API settings.
type EmbeddingsConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Model        string  `yaml:"model" mapstructure:"model"`
	RequestsPerS float64 `yaml:"requests_per_s" mapstructure:"requests_per_s"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// IngestConfig configures review ingestion.
type IngestConfig struct {
	BatchSize  int `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrent int `yaml:"concurrent" mapstructure:"concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "advisor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("vectorstore.dimensions", 1024)
	v.SetDefault("vectorstore.pool.max_conns", 10)
	v.SetDefault("vectorstore.pool.min_conns", 2)
	v.SetDefault("embeddings.base_url", "https://api.jina.ai/v1")
	v.SetDefault("embeddings.model", "jina-embeddings-v3")
	v.SetDefault("anthropic.model", "claude-haiku-4-5")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("retrieval.k", 5)
	v.SetDefault("retrieval.min_acceptable", 1)
	v.SetDefault("retrieval.vibe_fields", retrieval.DefaultVibeAllowlist)
	v.SetDefault("guardrail.enable_pii_detection", true)
	v.SetDefault("guardrail.enable_injection_filter", true)
	v.SetDefault("guardrail.enable_off_topic_filter", true)
	v.SetDefault("guardrail.enable_toxicity_filter", true)
	v.SetDefault("guardrail.enable_grounding_filter", true)
	v.SetDefault("guardrail.enable_competitor_filter", false)
	v.SetDefault("guardrail.toxicity_threshold", 0.7)
	v.SetDefault("guardrail.grounding_threshold", 0.5)
	v.SetDefault("guardrail.strict_mode", true)
	v.SetDefault("ingest.batch_size", 100)
	v.SetDefault("ingest.concurrent", 4)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.block_rate_threshold", 0.3)
	v.SetDefault("monitoring.degrade_rate_threshold", 0.2)
	v.SetDefault("monitoring.latency_threshold_ms", 10000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode needs before it runs, so
// missing credentials fail fast instead of mid-consultation.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireRetrieval := func() {
		if c.VectorStore.DatabaseURL == "" {
			problems = append(problems, "vectorstore.database_url is required")
		}
		if c.Embeddings.Key == "" {
			problems = append(problems, "embeddings.key is required")
		}
	}
	requireLLM := func() {
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	}

	switch mode {
	case "advise", "chat":
		requireRetrieval()
		requireLLM()
	case "ingest":
		requireRetrieval()
		if c.Ingest.BatchSize < 1 || c.Ingest.BatchSize > 1000 {
			problems = append(problems, "ingest.batch_size must be between 1 and 1000")
		}
		if c.Ingest.Concurrent < 1 || c.Ingest.Concurrent > 32 {
			problems = append(problems, "ingest.concurrent must be between 1 and 32")
		}
	case "warmup":
		requireLLM()
	case "serve":
		requireRetrieval()
		requireLLM()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "history", "metrics":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Retrieval.K < 0 || c.Retrieval.K > 100 {
		problems = append(problems, "retrieval.k must be between 0 and 100")
	}
	if c.Guardrail.ToxicityThreshold < 0 || c.Guardrail.ToxicityThreshold > 1 {
		problems = append(problems, "guardrail.toxicity_threshold must be between 0 and 1")
	}
	if c.Guardrail.GroundingThreshold < 0 || c.Guardrail.GroundingThreshold > 1 {
		problems = append(problems, "guardrail.grounding_threshold must be between 0 and 1")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
