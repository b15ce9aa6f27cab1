package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MEO_GENERATOR_API_KEY
const EnvPrefix = "MEO"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       logger.Config   `mapstructure:"log"`
	Places    PlacesConfig    `mapstructure:"places"`
	GBP       GBPConfig       `mapstructure:"gbp"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PlacesConfig struct {
	Provider     string        `mapstructure:"provider"` // fixture | google
	APIHost      string        `mapstructure:"api_host"`
	APIKey       string        `mapstructure:"api_key"`
	LanguageCode string        `mapstructure:"language_code"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FixtureDelay time.Duration `mapstructure:"fixture_delay"`
}

type GBPConfig struct {
	Mode     string        `mapstructure:"mode"` // heuristic | http
	ProbeURL string        `mapstructure:"probe_url"`
	Marker   string        `mapstructure:"marker"`
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type GeneratorConfig struct {
	Provider    string        `mapstructure:"provider"` // gemini | openai | mock
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	DisplayLanguage string        `mapstructure:"display_language"`
	LookupTimeout   time.Duration `mapstructure:"lookup_timeout"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
}

type RateLimitConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	MaxRequests   int    `mapstructure:"max_requests"`
	WindowSeconds int    `mapstructure:"window_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
	v.SetDefault("log.output", lc.Output)
	v.SetDefault("log.enable_caller", lc.EnableCaller)
	v.SetDefault("log.enable_stacktrace", lc.EnableStacktrace)
	v.SetDefault("log.file.filename", lc.File.Filename)
	v.SetDefault("log.file.max_size", lc.File.MaxSize)
	v.SetDefault("log.file.max_age", lc.File.MaxAge)
	v.SetDefault("log.file.max_backups", lc.File.MaxBackups)
	v.SetDefault("log.file.compress", lc.File.Compress)

	v.SetDefault("places.provider", "fixture")
	v.SetDefault("places.api_host", "https://places.googleapis.com")
	v.SetDefault("places.api_key", "")
	v.SetDefault("places.language_code", "ja")
	v.SetDefault("places.max_results", 10)
	v.SetDefault("places.timeout", 10*time.Second)
	v.SetDefault("places.fixture_delay", 1500*time.Millisecond)

	v.SetDefault("gbp.mode", "heuristic")
	v.SetDefault("gbp.probe_url", "")
	v.SetDefault("gbp.marker", "unclaimed")
	v.SetDefault("gbp.min_delay", 200*time.Millisecond)
	v.SetDefault("gbp.max_delay", 500*time.Millisecond)
	v.SetDefault("gbp.timeout", 30*time.Second)

	v.SetDefault("generator.provider", "gemini")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.model", "gemini-2.5-flash")
	v.SetDefault("generator.temperature", 0.4)
	v.SetDefault("generator.timeout", 60*time.Second)

	v.SetDefault("search.display_language", "ja")
	v.SetDefault("search.lookup_timeout", 15*time.Second)
	v.SetDefault("search.call_timeout", 45*time.Second)
	v.SetDefault("search.max_concurrency", 32)
	v.SetDefault("search.session_ttl", 30*time.Minute)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("ratelimit.max_requests", 20)
	v.SetDefault("ratelimit.window_seconds", 60)
}

// LoadConfig reads path (optional; a missing file falls back to defaults) and
// applies MEO_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate fails on values the service cannot start with, including a missing
// credential for the selected generative backend.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch c.Places.Provider {
	case "fixture":
	case "google":
		if c.Places.APIKey == "" {
			return errors.New("places.api_key is required for the google places provider")
		}
	default:
		return fmt.Errorf("unsupported places.provider: %q", c.Places.Provider)
	}

	switch c.GBP.Mode {
	case "heuristic":
		if c.GBP.MinDelay < 0 || c.GBP.MaxDelay < c.GBP.MinDelay {
			return errors.New("gbp.min_delay/max_delay must satisfy 0 <= min <= max")
		}
	case "http":
		if c.GBP.ProbeURL == "" {
			return errors.New("gbp.probe_url is required when gbp.mode is http")
		}
	default:
		return fmt.Errorf("unsupported gbp.mode: %q", c.GBP.Mode)
	}

	switch c.Generator.Provider {
	case "gemini", "openai":
		if c.Generator.APIKey == "" {
			return fmt.Errorf("generator.api_key is required for provider %q (set %s_GENERATOR_API_KEY)",
				c.Generator.Provider, EnvPrefix)
		}
	case "mock":
	default:
		return fmt.Errorf("unsupported generator.provider: %q", c.Generator.Provider)
	}

	if c.Search.DisplayLanguage == "" {
		return errors.New("search.display_language is required")
	}
	if c.Search.MaxConcurrency <= 0 {
		return errors.New("search.max_concurrency must be greater than 0")
	}

	if c.RateLimit.Enabled && c.RateLimit.RedisAddr == "" {
		return errors.New("ratelimit.redis_addr is required when rate limiting is enabled")
	}

	return nil
}

// Addr returns the HTTP listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
