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
	Resolve    ResolveConfig    `yaml:"resolve" mapstructure:"resolve"`
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Stats      StatsConfig      `yaml:"stats" mapstructure:"stats"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ResolveConfig configures clustering.
type ResolveConfig struct {
	// Threshold is the similarity cutoff. Values above 1 are read as a
	// percentage (85 means 0.85).
	Threshold    float64 `yaml:"threshold" mapstructure:"threshold"`
	Strategy     string  `yaml:"strategy" mapstructure:"strategy"`
	Canonical    string  `yaml:"canonical" mapstructure:"canonical"`
	PreNormalize bool    `yaml:"pre_normalize" mapstructure:"pre_normalize"`
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	RulesFile    string  `yaml:"rules_file" mapstructure:"rules_file"`
}

// InputConfig configures how extracts are read and filtered.
type InputConfig struct {
	Encoding      string   `yaml:"encoding" mapstructure:"encoding"`
	States        []string `yaml:"states" mapstructure:"states"`
	Years         []int    `yaml:"years" mapstructure:"years"`
	FilePattern   string   `yaml:"file_pattern" mapstructure:"file_pattern"`
	Sheet         string   `yaml:"sheet" mapstructure:"sheet"`
	SkipMalformed bool     `yaml:"skip_malformed" mapstructure:"skip_malformed"`
}

// StatsConfig configures name-pattern statistics.
type StatsConfig struct {
	MinWordFreq      int `yaml:"min_word_freq" mapstructure:"min_word_freq"`
	MinAcronymLength int `yaml:"min_acronym_length" mapstructure:"min_acronym_length"`
}

// FetchConfig configures extract downloads.
type FetchConfig struct {
	Dir         string   `yaml:"dir" mapstructure:"dir"`
	UserAgent   string   `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	RatePerHost float64  `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	Workers     int      `yaml:"workers" mapstructure:"workers"`
	URLs        []string `yaml:"urls" mapstructure:"urls"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// MaxConns and MinConns size the Postgres pool; zero uses the store
	// defaults.
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// MaxNames caps the names accepted by one cluster or pairs request.
	MaxNames int `yaml:"max_names" mapstructure:"max_names"`
}

// MonitoringConfig configures run-health alerts while serving.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	SkippedRateThreshold float64 `yaml:"skipped_rate_threshold" mapstructure:"skipped_rate_threshold"`
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
	v.SetEnvPrefix("RESOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("resolve.threshold", 0.85)
	v.SetDefault("resolve.strategy", "batch")
	v.SetDefault("resolve.canonical", "first")
	v.SetDefault("resolve.pre_normalize", false)
	v.SetDefault("resolve.workers", 1)
	v.SetDefault("resolve.rules_file", "")
	v.SetDefault("input.encoding", "auto")
	v.SetDefault("input.file_pattern", "")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.skip_malformed", false)
	v.SetDefault("stats.min_word_freq", 5)
	v.SetDefault("stats.min_acronym_length", 2)
	v.SetDefault("fetch.dir", "data")
	v.SetDefault("fetch.user_agent", "employer-resolve/1.0")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.rate_per_host", 5.0)
	v.SetDefault("fetch.workers", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "employer-resolve.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_names", 5000)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.skipped_rate_threshold", 0.05)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
	cfg.Resolve.Threshold = NormalizeThreshold(cfg.Resolve.Threshold)

	return &cfg, nil
}

// NormalizeThreshold accepts a fraction or a percentage and returns a
// fraction.
func NormalizeThreshold(t float64) float64 {
	if t > 1 {
		return t / 100
	}
	return t
}

// Validate checks the settings a command mode depends on. Modes are
// "resolve", "fetch", "store" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "resolve":
		errs = append(errs, c.validateResolve()...)
	case "fetch":
		if c.Fetch.MaxAttempts < 1 {
			errs = append(errs, "fetch.max_attempts must be >= 1")
		}
		if c.Fetch.Workers < 1 || c.Fetch.Workers > 32 {
			errs = append(errs, "fetch.workers must be between 1 and 32")
		}
	case "store":
		errs = append(errs, c.validateStore()...)
	case "serve":
		errs = append(errs, c.validateResolve()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateResolve() []string {
	var errs []string
	if c.Resolve.Threshold < 0 || c.Resolve.Threshold > 1 {
		errs = append(errs, "resolve.threshold must be between 0 and 1 (or 0 and 100)")
	}
	switch c.Resolve.Strategy {
	case "batch", "stream":
	default:
		errs = append(errs, "resolve.strategy must be batch or stream")
	}
	switch c.Resolve.Canonical {
	case "first", "longest":
	default:
		errs = append(errs, "resolve.canonical must be first or longest")
	}
	if c.Resolve.Workers < 1 {
		errs = append(errs, "resolve.workers must be >= 1")
	}
	return errs
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// InitLogger sets up the global zap logger.
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
