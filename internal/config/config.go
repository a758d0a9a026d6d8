package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the chat service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Session   SessionConfig   `mapstructure:"session"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type GeneralConfig struct {
	LogLevel   string `mapstructure:"log_level"`
	PrettyLogs bool   `mapstructure:"pretty_logs"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StateTimeout    time.Duration `mapstructure:"state_timeout"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	return nil
}

// LLMConfig selects the inference backend and its sampling parameters
type LLMConfig struct {
	Provider           string  `mapstructure:"provider"`
	BaseURL            string  `mapstructure:"base_url"`
	APIKey             string  `mapstructure:"api_key"`
	DefaultModel       string  `mapstructure:"default_model"`
	PlannerTemperature float64 `mapstructure:"planner_temperature"`
	PlannerMaxTokens   int     `mapstructure:"planner_max_tokens"`
	ChatTemperature    float64 `mapstructure:"chat_temperature"`
	ChatMaxTokens      int     `mapstructure:"chat_max_tokens"`
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, l.Provider)
	}
	if strings.TrimSpace(l.DefaultModel) == "" {
		return fmt.Errorf("llm.default_model is required")
	}
	if l.PlannerMaxTokens <= 0 || l.ChatMaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be greater than zero")
	}
	return nil
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	ContextWindow int           `mapstructure:"context_window"`
	TurnTimeout   time.Duration `mapstructure:"turn_timeout"`
}

func (s SessionConfig) Validate() error {
	if s.TTL <= 0 {
		return fmt.Errorf("session.ttl must be greater than zero")
	}
	if s.ContextWindow <= 0 {
		return fmt.Errorf("session.context_window must be greater than zero")
	}
	if s.TurnTimeout <= 0 {
		return fmt.Errorf("session.turn_timeout must be greater than zero")
	}
	return nil
}

type ToolsConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	GeocodingURL    string        `mapstructure:"geocoding_url"`
	ForecastURL     string        `mapstructure:"forecast_url"`
	EncyclopediaURL string        `mapstructure:"encyclopedia_url"`
	SatelliteURL    string        `mapstructure:"satellite_url"`
}

func (t ToolsConfig) Validate() error {
	if t.Timeout <= 0 {
		return fmt.Errorf("tools.timeout must be greater than zero")
	}
	if !strings.Contains(t.EncyclopediaURL, "{lang}") {
		return fmt.Errorf("tools.encyclopedia_url must contain a {lang} placeholder")
	}
	return nil
}

type StorageConfig struct {
	Backend  string         `mapstructure:"backend"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(s.Redis.Addr) == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(s.Postgres.URL) == "" {
			return fmt.Errorf("storage.postgres.url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", s.Backend)
	}
	return nil
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.pretty_logs", false)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.state_timeout", 10*time.Second)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.default_model", "@cf/meta/llama-3.3-70b-instruct-fp8-fast")
	v.SetDefault("llm.planner_temperature", 0.1)
	v.SetDefault("llm.planner_max_tokens", 256)
	v.SetDefault("llm.chat_temperature", 0.6)
	v.SetDefault("llm.chat_max_tokens", 1024)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.context_window", 40)
	v.SetDefault("session.turn_timeout", 2*time.Minute)

	v.SetDefault("tools.timeout", 12*time.Second)
	v.SetDefault("tools.user_agent", "go-toolchat/1.0 (+https://github.com/go-toolchat)")
	v.SetDefault("tools.geocoding_url", "https://geocoding-api.open-meteo.com/v1/search")
	v.SetDefault("tools.forecast_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("tools.encyclopedia_url", "https://{lang}.wikipedia.org")
	v.SetDefault("tools.satellite_url", "https://api.wheretheiss.at/v1/satellites/25544")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.redis.addr", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.postgres.url", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "go-toolchat")
}

// Load reads the optional config file at path (or config.{json,yaml} in the
// usual places), applies TOOLCHAT_* environment overrides and validates the
// result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("TOOLCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	for _, validate := range []func() error{
		c.Server.Validate,
		c.LLM.Validate,
		c.Session.Validate,
		c.Tools.Validate,
		c.Storage.Validate,
	} {
		if err := validate(); err != nil {
			return goerr.Wrap(err, "invalid config")
		}
	}
	return nil
}
