package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Every scoring weight and
// threshold the engine uses lives here so that nothing is hardcoded in the
// rule implementations; the loaded value is passed explicitly into
// constructors and treated as immutable.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// JinaConfig holds Jina AI search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec    int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst     int    `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// SearchConfig configures retry behavior for search calls.
type SearchConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	MaxResults     int           `yaml:"max_results" mapstructure:"max_results"`
}

// BreakerConfig configures the per-store circuit breakers.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" mapstructure:"recovery_timeout"`
}

// DiscoveryConfig configures the pipeline orchestrator.
type DiscoveryConfig struct {
	Workers         int           `yaml:"workers" mapstructure:"workers"`
	VariantTimeout  time.Duration `yaml:"variant_timeout" mapstructure:"variant_timeout"`
	MaxQueries      int           `yaml:"max_queries" mapstructure:"max_queries"`
	CommitThreshold float64       `yaml:"commit_threshold" mapstructure:"commit_threshold"`
	RetentionDays   int           `yaml:"retention_days" mapstructure:"retention_days"`
	Locale          string        `yaml:"locale" mapstructure:"locale"`
}

// ScoringConfig holds the confidence adjustment weights and level
// thresholds. The defaults mirror the empirically chosen production values;
// they are configuration, not invariants, pending calibration against
// labeled data.
type ScoringConfig struct {
	TrustedStoreBonus  float64  `yaml:"trusted_store_bonus" mapstructure:"trusted_store_bonus"`
	ExactCapacityBonus float64  `yaml:"exact_capacity_bonus" mapstructure:"exact_capacity_bonus"`
	CorroborationBonus float64  `yaml:"corroboration_bonus" mapstructure:"corroboration_bonus"`
	OfficialBonus      float64  `yaml:"official_bonus" mapstructure:"official_bonus"`
	AccessoryPenalty   float64  `yaml:"accessory_penalty" mapstructure:"accessory_penalty"`
	RefurbishedPenalty float64  `yaml:"refurbished_penalty" mapstructure:"refurbished_penalty"`
	OutlierPenalty     float64  `yaml:"outlier_penalty" mapstructure:"outlier_penalty"`
	HighThreshold      float64  `yaml:"high_threshold" mapstructure:"high_threshold"`
	MediumThreshold    float64  `yaml:"medium_threshold" mapstructure:"medium_threshold"`
	TrustedStores      []string `yaml:"trusted_stores" mapstructure:"trusted_stores"`
	PriceTolerance     float64  `yaml:"price_tolerance" mapstructure:"price_tolerance"`
}

// ValidationConfig holds the deterministic rejection rule parameters.
type ValidationConfig struct {
	PriceBandLow  float64 `yaml:"price_band_low" mapstructure:"price_band_low"`
	PriceBandHigh float64 `yaml:"price_band_high" mapstructure:"price_band_high"`
}

// ServerConfig configures the read-only price API.
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
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pricewatch.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.timeout_secs", 15)
	v.SetDefault("jina.rate_per_sec", 2)
	v.SetDefault("jina.rate_burst", 4)
	v.SetDefault("search.max_attempts", 3)
	v.SetDefault("search.initial_backoff", "500ms")
	v.SetDefault("search.max_backoff", "10s")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.recovery_timeout", "30s")
	v.SetDefault("discovery.workers", 4)
	v.SetDefault("discovery.variant_timeout", "90s")
	v.SetDefault("discovery.max_queries", 10)
	v.SetDefault("discovery.commit_threshold", 0.70)
	v.SetDefault("discovery.retention_days", 30)
	v.SetDefault("discovery.locale", "Egypt")
	v.SetDefault("scoring.trusted_store_bonus", 0.4)
	v.SetDefault("scoring.exact_capacity_bonus", 0.3)
	v.SetDefault("scoring.corroboration_bonus", 0.2)
	v.SetDefault("scoring.official_bonus", 0.1)
	v.SetDefault("scoring.accessory_penalty", 0.5)
	v.SetDefault("scoring.refurbished_penalty", 0.3)
	v.SetDefault("scoring.outlier_penalty", 0.4)
	v.SetDefault("scoring.high_threshold", 0.75)
	v.SetDefault("scoring.medium_threshold", 0.50)
	v.SetDefault("scoring.trusted_stores", []string{"amazon", "noon", "jumia", "btech"})
	v.SetDefault("scoring.price_tolerance", 0.02)
	v.SetDefault("validation.price_band_low", 0.7)
	v.SetDefault("validation.price_band_high", 1.3)

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
