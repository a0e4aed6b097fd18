package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultUpstreamURL is used when no connection endpoint has been saved yet.
const DefaultUpstreamURL = "http://localhost:8080"

type Config struct {
	Port               int     `mapstructure:"port"`
	LogLevel           string  `mapstructure:"log_level"`
	HotReload          bool    `mapstructure:"hot_reload"`
	MockAPI            bool    `mapstructure:"mock_api"`
	ConnectionFile     string  `mapstructure:"connection_file"`
	DefaultUpstreamURL string  `mapstructure:"default_upstream_url"`
	Session            Session `mapstructure:"session"`
	Mock               Mock    `mapstructure:"mock"`
}

type Session struct {
	RedisURL   string        `mapstructure:"redis_url"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type Mock struct {
	Port             int           `mapstructure:"port"`
	PostgresURL      string        `mapstructure:"postgres_url"`
	DynamoDBEndpoint string        `mapstructure:"dynamodb_endpoint"`
	OpenAIKey        string        `mapstructure:"openai_key"`
	OpenAIBaseURL    string        `mapstructure:"openai_base_url"`
	OpenAIModel      string        `mapstructure:"openai_model"`
	StreamDelay      time.Duration `mapstructure:"stream_delay"`
}

// URL is the address the front end uses to reach the in-process mock backend.
func (m Mock) URL() string {
	return fmt.Sprintf("http://localhost:%d", m.Port)
}

var defaults = map[string]interface{}{
	"port":                   7860,
	"log_level":              "INFO",
	"hot_reload":             false,
	"mock_api":               false,
	"connection_file":        "config/config.json",
	"default_upstream_url":   DefaultUpstreamURL,
	"session.redis_url":      "",
	"session.cookie_name":    "session_",
	"session.ttl":            "24h",
	"session.secure":         false,
	"mock.port":              8080,
	"mock.postgres_url":      "",
	"mock.dynamodb_endpoint": "",
	"mock.openai_key":        "",
	"mock.openai_base_url":   "",
	"mock.openai_model":      "gpt-4o-mini",
	"mock.stream_delay":      "500ms",
}

// Load reads .env (if present), an optional config/app.yaml and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The OpenAI settings keep the names the SDKs use everywhere else.
	_ = v.BindEnv("mock.openai_key", "OPENAI_API_KEY")
	_ = v.BindEnv("mock.openai_base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("mock.openai_model", "OPENAI_MODEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
