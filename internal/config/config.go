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
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Stats     StatsConfig     `yaml:"stats" mapstructure:"stats"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	PageTokenDelayMS int     `yaml:"page_token_delay_ms" mapstructure:"page_token_delay_ms"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	ExtractModel string `yaml:"extract_model" mapstructure:"extract_model"`
	ScoreModel   string `yaml:"score_model" mapstructure:"score_model"`
}

// IngestConfig configures the places ingestion engine.
type IngestConfig struct {
	MaxResultsPerQuery int `yaml:"max_results_per_query" mapstructure:"max_results_per_query"`
	CacheWindowDays    int `yaml:"cache_window_days" mapstructure:"cache_window_days"`
	EmptyPageLimit     int `yaml:"empty_page_limit" mapstructure:"empty_page_limit"`
}

// ExtractConfig configures the extraction engine's per-category caps.
type ExtractConfig struct {
	MaxEmails      int `yaml:"max_emails" mapstructure:"max_emails"`
	MaxPhones      int `yaml:"max_phones" mapstructure:"max_phones"`
	MaxSocials     int `yaml:"max_socials" mapstructure:"max_socials"`
	MaxTeamMembers int `yaml:"max_team_members" mapstructure:"max_team_members"`
	MaxSnippets    int `yaml:"max_snippets" mapstructure:"max_snippets"`
	MaxSignals     int `yaml:"max_signals" mapstructure:"max_signals"`
}

// StatsConfig configures the market statistics engine.
type StatsConfig struct {
	MinCohortSize int `yaml:"min_cohort_size" mapstructure:"min_cohort_size"`
}

// ScoringConfig configures the qualitative scoring engine.
type ScoringConfig struct {
	MaxConcurrentLeads int `yaml:"max_concurrent_leads" mapstructure:"max_concurrent_leads"`
	MaxPromptChars     int `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
}

// ServerConfig configures the job-intake HTTP server.
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
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.requests_per_sec", 0.5)
	v.SetDefault("google.page_token_delay_ms", 2000)
	v.SetDefault("anthropic.extract_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.score_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ingest.max_results_per_query", 60)
	v.SetDefault("ingest.cache_window_days", 30)
	v.SetDefault("ingest.empty_page_limit", 3)
	v.SetDefault("extract.max_emails", 10)
	v.SetDefault("extract.max_phones", 10)
	v.SetDefault("extract.max_socials", 10)
	v.SetDefault("extract.max_team_members", 25)
	v.SetDefault("extract.max_snippets", 20)
	v.SetDefault("extract.max_signals", 10)
	v.SetDefault("stats.min_cohort_size", 5)
	v.SetDefault("scoring.max_concurrent_leads", 4)
	v.SetDefault("scoring.max_prompt_chars", 24000)

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

// Validate checks that the configuration is sufficient for the given
// command mode ("ingest", "extract", "stats", "score", "serve", "migrate").
func (c *Config) Validate(mode string) error {
	var missing []string

	needDB := func() {
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	}

	switch mode {
	case "ingest":
		needDB()
		if c.Google.Key == "" {
			missing = append(missing, "google.key is required")
		}
	case "score":
		needDB()
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
	case "extract", "stats", "migrate":
		needDB()
	case "serve":
		needDB()
		if c.Google.Key == "" {
			missing = append(missing, "google.key is required")
		}
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
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
