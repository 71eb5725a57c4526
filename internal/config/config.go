package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Store     StoreConfig      `mapstructure:"store"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Providers []ProviderConfig `mapstructure:"providers"`
	Routing   RoutingConfig    `mapstructure:"routing"`
	Tiers     map[string]Tier  `mapstructure:"tiers"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`

	// APIKeys maps a caller credential to its subscription tier.
	APIKeys map[string]string `mapstructure:"api_keys"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ProviderConfig is the static declaration of one generation backend.
type ProviderConfig struct {
	ID      string `mapstructure:"id" validate:"required"`
	Type    string `mapstructure:"type" validate:"required"`
	Name    string `mapstructure:"name"`
	APIKey  string `mapstructure:"api_key" validate:"required_unless=Type ollama"`
	BaseURL string `mapstructure:"base_url"`
	Enabled bool   `mapstructure:"enabled"`

	DefaultTextModel  string   `mapstructure:"default_text_model"`
	DefaultImageModel string   `mapstructure:"default_image_model"`
	Models            []string `mapstructure:"models"`
	SupportsStyles    bool     `mapstructure:"supports_styles"`

	// Provider-specific extras (e.g. anthropic api version, openai organization).
	Config map[string]string `mapstructure:"config"`
}

// RoutingConfig holds the mutable routing preferences. The routing engine guards
// it behind its own lock; this struct is plain data.
type RoutingConfig struct {
	DefaultTextProvider  string `mapstructure:"default_text_provider"`
	DefaultImageProvider string `mapstructure:"default_image_provider"`

	// PinnedImageProvider, when set and admissible, is tried before the default.
	PinnedImageProvider string `mapstructure:"pinned_image_provider"`

	TextFallbackOrder  []string `mapstructure:"text_fallback_order"`
	ImageFallbackOrder []string `mapstructure:"image_fallback_order"`

	// BackupImageURL is the placeholder returned when every provider fails.
	BackupImageURL string `mapstructure:"backup_image_url"`
}

// Tier gates which providers a subscription level may use.
type Tier struct {
	AllowedProviders []string `mapstructure:"allowed_providers"`
	MaxRequests      int      `mapstructure:"max_requests"`
	MaxTokens        int      `mapstructure:"max_tokens"`
}

// Allows reports whether the tier permits the given provider id. An empty
// allowlist means the tier may use everything.
func (t Tier) Allows(providerID string) bool {
	if len(t.AllowedProviders) == 0 {
		return true
	}
	for _, id := range t.AllowedProviders {
		if id == providerID {
			return true
		}
	}
	return false
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	}

	// Default Values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("store.dsn", "file:fable.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("routing.backup_image_url", DefaultBackupImageURL)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve API Keys declared as ENV:VAR_NAME indirections
	for i, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "ENV:") {
			envVar := strings.TrimPrefix(p.APIKey, "ENV:")
			// Check process environment first (explicit override)
			val := os.Getenv(envVar)
			if val == "" {
				val = v.GetString(envVar)
			}
			cfg.Providers[i].APIKey = val
		}
	}

	return &cfg, nil
}

// DefaultBackupImageURL is served when the whole image fallback chain fails.
const DefaultBackupImageURL = "/assets/illustrations/placeholder.png"
