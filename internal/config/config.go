package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/bea-cli/pkg/bea"
)

// Environment variables read outside the BEA_ prefix convention.
const (
	EnvAPIKey  = "BEA_API_KEY"
	EnvDataDir = "BEA_DATA"
)

// Config holds the full application configuration.
type Config struct {
	APIKey        string      `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string      `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerMinute int         `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	StrictFlags   bool        `yaml:"strict_flags" mapstructure:"strict_flags"`
	DataDir       string      `yaml:"data_dir" mapstructure:"data_dir"`
	Store         StoreConfig `yaml:"store" mapstructure:"store"`
	Log           LogConfig   `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the observation database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment, in
// increasing precedence.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BEA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("data_dir", EnvDataDir, "BEA_DATA_DIR"); err != nil {
		return nil, eris.Wrap(err, "config: bind data_dir")
	}

	// Defaults
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", bea.DefaultBaseURL)
	v.SetDefault("timeout_secs", 60)
	v.SetDefault("rate_per_minute", bea.DefaultRatePerMinute)
	v.SetDefault("strict_flags", false)
	v.SetDefault("store.path", "bea.db")
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

	return &cfg, nil
}

// Validate checks the settings a mode depends on. "api" needs a key,
// "cache" a data directory, "store" a database path.
func (c *Config) Validate(mode string) error {
	if c.TimeoutSecs <= 0 {
		return eris.New("config: timeout_secs must be > 0")
	}
	if c.RatePerMinute < 0 {
		return eris.New("config: rate_per_minute must be >= 0")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}

	switch mode {
	case "api":
		if strings.TrimSpace(c.APIKey) == "" {
			return bea.EnvError(EnvAPIKey)
		}
	case "cache":
		if strings.TrimSpace(c.DataDir) == "" {
			return bea.EnvError(EnvDataDir)
		}
	case "store":
		if strings.TrimSpace(c.Store.Path) == "" {
			return eris.New("config: store.path is required")
		}
	case "":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
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
