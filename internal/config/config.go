// Package config defines the application configuration, loaded via viper
// from a YAML file with CAUSALBRIDGE_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"causalbridge/api/schemas"
)

// Config is the root configuration object.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Breaker BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
	Fit     FitConfig     `mapstructure:"fit" yaml:"fit"`
	Traces  TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

// LoggerConfig controls the zap logger bootstrap.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
}

// EngineConfig locates and bounds the external statistical engine.
type EngineConfig struct {
	Path        string          `mapstructure:"path" yaml:"path"`
	Quality     schemas.Quality `mapstructure:"quality" yaml:"quality"`
	CallTimeout time.Duration   `mapstructure:"call_timeout" yaml:"call_timeout"`
	MaxNodes    int             `mapstructure:"max_nodes" yaml:"max_nodes"`
}

// BreakerConfig tunes the circuit breaker guarding engine calls.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	CooldownPeriod   time.Duration `mapstructure:"cooldown_period" yaml:"cooldown_period"`
}

// FitConfig tunes fit-quality policy.
type FitConfig struct {
	MinSamples         int     `mapstructure:"min_samples" yaml:"min_samples"`
	ValidateR2         bool    `mapstructure:"validate_r2" yaml:"validate_r2"`
	R2Threshold        float64 `mapstructure:"r2_threshold" yaml:"r2_threshold"`
	R2WarningThreshold float64 `mapstructure:"r2_warning_threshold" yaml:"r2_warning_threshold"`
	CacheSize          int     `mapstructure:"cache_size" yaml:"cache_size"`
}

// TracesConfig configures the optional Postgres trace source.
type TracesConfig struct {
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
	Table       string `mapstructure:"table" yaml:"table"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// setDefaults registers every configuration key with its default value.
// Registration is what makes environment overrides work: viper only consults
// the environment for keys it already knows about, so a key missing here is
// invisible to CAUSALBRIDGE_* even when it has a struct field.
func setDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "causalbridge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.add_source", false)

	// -- Engine --
	v.SetDefault("engine.path", "/usr/local/bin/causal-engine")
	v.SetDefault("engine.quality", string(schemas.QualityGood))
	v.SetDefault("engine.call_timeout", "30s")
	v.SetDefault("engine.max_nodes", 10000)

	// -- Breaker --
	v.SetDefault("breaker.failure_threshold", 3)
	v.SetDefault("breaker.cooldown_period", "60s")

	// -- Fit --
	v.SetDefault("fit.min_samples", 100)
	v.SetDefault("fit.validate_r2", false)
	v.SetDefault("fit.r2_threshold", 0.5)
	v.SetDefault("fit.r2_warning_threshold", 0.7)
	v.SetDefault("fit.cache_size", 32)

	// -- Traces --
	v.SetDefault("traces.database_url", "")
	v.SetDefault("traces.table", "")
}

// Load reads configuration from path (or the working directory when empty),
// layered over Default with environment variable overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("causalbridge")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CAUSALBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Default(), fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults plus env vars apply.
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// EngineSettings projects the config onto the per-call engine options.
func (c Config) EngineSettings() schemas.EngineConfig {
	return schemas.EngineConfig{
		Quality:     c.Engine.Quality,
		ValidateR2:  c.Fit.ValidateR2,
		R2Threshold: c.Fit.R2Threshold,
	}
}
