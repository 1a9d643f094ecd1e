// Package config loads pitfacts settings from config.yaml and PITFACTS_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/pitfacts/internal/calendar"
	"github.com/sells-group/pitfacts/internal/classify"
	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/normalize"
	"github.com/sells-group/pitfacts/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	EDGAR     EDGARConfig     `yaml:"edgar" mapstructure:"edgar"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Calendar  CalendarConfig  `yaml:"calendar" mapstructure:"calendar"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig selects the result sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres, sqlite, or memory
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EDGARConfig configures access to the SEC company-facts API.
type EDGARConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-request timeout.
func (c EDGARConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TierBandConfig is one availability threshold.
type TierBandConfig struct {
	Min  float64 `yaml:"min" mapstructure:"min"`
	Tier string  `yaml:"tier" mapstructure:"tier"`
}

// ClassifyConfig configures the field classifier and catalog scoring.
type ClassifyConfig struct {
	SnapshotPath           string             `yaml:"snapshot_path" mapstructure:"snapshot_path"`
	Bands                  []TierBandConfig   `yaml:"bands" mapstructure:"bands"`
	CriticalBonus          float64            `yaml:"critical_bonus" mapstructure:"critical_bonus"`
	TierBonus              map[string]float64 `yaml:"tier_bonus" mapstructure:"tier_bonus"`
	PreferredTaxonomy      string             `yaml:"preferred_taxonomy" mapstructure:"preferred_taxonomy"`
	PreferredTaxonomyBonus float64            `yaml:"preferred_taxonomy_bonus" mapstructure:"preferred_taxonomy_bonus"`
	DeprecatedPenalty      float64            `yaml:"deprecated_penalty" mapstructure:"deprecated_penalty"`
}

// Scoring converts the settings into the classifier's scoring rules. Unset
// values keep the defaults.
func (c ClassifyConfig) Scoring() classify.ScoringConfig {
	s := classify.DefaultScoring()
	if len(c.Bands) > 0 {
		s.Bands = make([]classify.TierBand, len(c.Bands))
		for i, b := range c.Bands {
			s.Bands[i] = classify.TierBand{Min: b.Min, Tier: model.Tier(b.Tier)}
		}
	}
	if c.CriticalBonus > 0 {
		s.CriticalBonus = c.CriticalBonus
	}
	if len(c.TierBonus) > 0 {
		s.TierBonus = make(map[model.Tier]float64, len(c.TierBonus))
		for tier, bonus := range c.TierBonus {
			s.TierBonus[model.Tier(tier)] = bonus
		}
	}
	if c.PreferredTaxonomy != "" {
		s.PreferredTaxonomy = c.PreferredTaxonomy
	}
	if c.PreferredTaxonomyBonus > 0 {
		s.PreferredTaxonomyBonus = c.PreferredTaxonomyBonus
	}
	if c.DeprecatedPenalty > 0 {
		s.DeprecatedPenalty = c.DeprecatedPenalty
	}
	return s
}

// CalendarConfig configures fiscal calendar resolution.
type CalendarConfig struct {
	ToleranceDays int `yaml:"tolerance_days" mapstructure:"tolerance_days"`
}

// Resolver returns the resolver settings.
func (c CalendarConfig) Resolver() calendar.Config {
	cfg := calendar.DefaultConfig()
	if c.ToleranceDays > 0 {
		cfg.ToleranceDays = c.ToleranceDays
	}
	return cfg
}

// NormalizeConfig configures start-date inference.
type NormalizeConfig struct {
	AnnualDays  int `yaml:"annual_days" mapstructure:"annual_days"`
	QuarterDays int `yaml:"quarter_days" mapstructure:"quarter_days"`
}

// Normalizer returns the normalizer settings.
func (c NormalizeConfig) Normalizer() normalize.Config {
	cfg := normalize.DefaultConfig()
	if c.AnnualDays > 0 {
		cfg.AnnualDays = c.AnnualDays
	}
	if c.QuarterDays > 0 {
		cfg.QuarterDays = c.QuarterDays
	}
	return cfg
}

// PipelineConfig configures the entity runner.
type PipelineConfig struct {
	Workers   int    `yaml:"workers" mapstructure:"workers"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	FactsDir  string `yaml:"facts_dir" mapstructure:"facts_dir"`
}

// RetryConfig configures retries for EDGAR requests and database writes.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// Policy converts the settings into a retry policy.
func (c RetryConfig) Policy() resilience.RetryConfig {
	return resilience.FromSettings(c.MaxAttempts, c.InitialBackoffMs, c.MaxBackoffMs, c.Multiplier, c.JitterFraction)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PITFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "pitfacts.db")
	v.SetDefault("store.max_conns", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("edgar.user_agent", "")
	v.SetDefault("edgar.base_url", "https://data.sec.gov")
	v.SetDefault("edgar.rate_per_sec", 10)
	v.SetDefault("edgar.max_retries", 3)
	v.SetDefault("edgar.timeout_secs", 60)
	v.SetDefault("classify.snapshot_path", "snapshot.yaml")
	v.SetDefault("classify.critical_bonus", 50)
	v.SetDefault("classify.preferred_taxonomy", "us-gaap")
	v.SetDefault("classify.preferred_taxonomy_bonus", 5)
	v.SetDefault("classify.deprecated_penalty", 100)
	v.SetDefault("calendar.tolerance_days", 7)
	v.SetDefault("normalize.annual_days", 365)
	v.SetDefault("normalize.quarter_days", 91)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.batch_size", 5000)
	v.SetDefault("pipeline.facts_dir", "")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Pipeline.Workers < 1 {
		return eris.Errorf("config: pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.EDGAR.RatePerSec <= 0 {
		return eris.Errorf("config: edgar.rate_per_sec must be positive, got %v", c.EDGAR.RatePerSec)
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
