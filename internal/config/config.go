// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Brave     BraveConfig     `yaml:"brave" mapstructure:"brave"`
	GitHub    GitHubConfig    `yaml:"github" mapstructure:"github"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Rates     RatesConfig     `yaml:"rates" mapstructure:"rates"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// QueueConfig configures the Temporal-backed job queue.
type QueueConfig struct {
	HostPort    string `yaml:"host_port" mapstructure:"host_port"`
	Namespace   string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue   string `yaml:"task_queue" mapstructure:"task_queue"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// SerperConfig holds Serper.dev web search settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BraveConfig holds Brave Search API settings.
type BraveConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GitHubConfig holds GitHub REST API settings.
type GitHubConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds settings for the candidate summary generator.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ScoringConfig lifts the confidence thresholds and caps into config.
type ScoringConfig struct {
	MinConfidence      float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	AutoMergeThreshold float64 `yaml:"auto_merge_threshold" mapstructure:"auto_merge_threshold"`
	Tier2Cap           int     `yaml:"tier2_cap" mapstructure:"tier2_cap"`
}

// DiscoveryConfig configures the discovery pipeline and its budget.
type DiscoveryConfig struct {
	MaxQueries                int     `yaml:"max_queries" mapstructure:"max_queries"`
	MaxPlatforms              int     `yaml:"max_platforms" mapstructure:"max_platforms"`
	MaxIdentitiesPerPlatform  int     `yaml:"max_identities_per_platform" mapstructure:"max_identities_per_platform"`
	TimeoutSecs               int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxParallelPlatforms      int     `yaml:"max_parallel_platforms" mapstructure:"max_parallel_platforms"`
	MinConfidenceForEarlyStop float64 `yaml:"min_confidence_for_early_stop" mapstructure:"min_confidence_for_early_stop"`
	ReverseLinkQueries        int     `yaml:"reverse_link_queries" mapstructure:"reverse_link_queries"`
	// GatherCommitEvidence opts in to collecting recent-commit evidence
	// pointers (never emails) on GitHub matches.
	GatherCommitEvidence bool `yaml:"gather_commit_evidence" mapstructure:"gather_commit_evidence"`
	// ReplayMode routes all provider calls through fixture transports.
	ReplayMode  bool   `yaml:"replay_mode" mapstructure:"replay_mode"`
	FixturePath string `yaml:"fixture_path" mapstructure:"fixture_path"`
}

// RateConfig is a per-provider token bucket setting.
type RateConfig struct {
	QPS   float64 `yaml:"qps" mapstructure:"qps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// RatesConfig holds per-provider token bucket settings.
type RatesConfig struct {
	Serper RateConfig `yaml:"serper" mapstructure:"serper"`
	Brave  RateConfig `yaml:"brave" mapstructure:"brave"`
	GitHub RateConfig `yaml:"github" mapstructure:"github"`
	// Enqueue bounds the inbound enrich API; excess requests get 429.
	Enqueue RateConfig `yaml:"enqueue" mapstructure:"enqueue"`
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
	v.SetEnvPrefix("IDENTITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("queue.host_port", "localhost:7233")
	v.SetDefault("queue.namespace", "default")
	v.SetDefault("queue.task_queue", "identity-enrichment")
	v.SetDefault("queue.concurrency", 3)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("brave.base_url", "https://api.search.brave.com/res/v1")
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("scoring.min_confidence", 0.25)
	v.SetDefault("scoring.auto_merge_threshold", 0.90)
	v.SetDefault("scoring.tier2_cap", 3)
	v.SetDefault("discovery.max_queries", 30)
	v.SetDefault("discovery.max_platforms", 10)
	v.SetDefault("discovery.max_identities_per_platform", 5)
	v.SetDefault("discovery.timeout_secs", 60)
	v.SetDefault("discovery.max_parallel_platforms", 3)
	v.SetDefault("discovery.min_confidence_for_early_stop", 0.90)
	v.SetDefault("discovery.reverse_link_queries", 4)
	v.SetDefault("rates.serper.qps", 5.0)
	v.SetDefault("rates.serper.burst", 5)
	v.SetDefault("rates.brave.qps", 1.0)
	v.SetDefault("rates.brave.burst", 2)
	v.SetDefault("rates.github.qps", 2.0)
	v.SetDefault("rates.github.burst", 5)
	v.SetDefault("rates.enqueue.qps", 10.0)
	v.SetDefault("rates.enqueue.burst", 20)

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
