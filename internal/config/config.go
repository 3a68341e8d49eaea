// Package config loads service settings from environment variables and the
// resort catalog, validating everything eagerly so the service refuses to
// start with inconsistent thresholds or windows.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Weather providers.
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	FetchTimeout      time.Duration
	CacheTTL          time.Duration
	CacheSize         int
	ProviderRPS       float64

	// Engine.
	Thresholds            domain.Thresholds
	VerificationTolerance float64
	NoiseFloorInches      float64
	CooldownWindow        time.Duration
	CheckInterval         time.Duration
	Locations             []domain.Location

	// Slack.
	SlackWebhookURL           string
	SlackMonitoringWebhookURL string
	NotificationsDisabled     bool

	// Optional decision stream.
	KafkaBrokers       []string
	KafkaDecisionTopic string

	// Optional durable cooldown state.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored for development.
// Validation is eager: any inconsistency is a *domain.ConfigurationError and
// the caller must not start.
func Load() (*Config, error) {
	// Development convenience only; absence is not an error.
	_ = godotenv.Load()

	thresholds := domain.Thresholds{
		Light:    envFloat("THRESHOLD_LIGHT", 2),
		Moderate: envFloat("THRESHOLD_MODERATE", 6),
		Heavy:    envFloat("THRESHOLD_HEAVY", 12),
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	cooldown, err := envDuration("ALERT_COOLDOWN", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	if cooldown <= 0 {
		return nil, &domain.ConfigurationError{Setting: "ALERT_COOLDOWN", Reason: "must be positive"}
	}

	interval, err := envDuration("CHECK_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, &domain.ConfigurationError{Setting: "CHECK_INTERVAL", Reason: "must be positive"}
	}

	tolerance := envFloat("VERIFICATION_THRESHOLD", 2.0)
	if tolerance < 0 {
		return nil, &domain.ConfigurationError{Setting: "VERIFICATION_THRESHOLD", Reason: "must be non-negative"}
	}
	noiseFloor := envFloat("VERIFICATION_NOISE_FLOOR", 0.1)
	if noiseFloor < 0 {
		return nil, &domain.ConfigurationError{Setting: "VERIFICATION_NOISE_FLOOR", Reason: "must be non-negative"}
	}

	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	locations, err := LoadLocations()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_KEY"),
		FetchTimeout:      fetchTimeout,
		CacheTTL:          cacheTTL,
		CacheSize:         envInt("CACHE_SIZE", 256),
		ProviderRPS:       envFloat("PROVIDER_RPS", 1),

		Thresholds:            thresholds,
		VerificationTolerance: tolerance,
		NoiseFloorInches:      noiseFloor,
		CooldownWindow:        cooldown,
		CheckInterval:         interval,
		Locations:             locations,

		SlackWebhookURL:           os.Getenv("SLACK_WEBHOOK_URL"),
		SlackMonitoringWebhookURL: envOrDefault("SLACK_MONITORING_WEBHOOK_URL", os.Getenv("SLACK_WEBHOOK_URL")),
		NotificationsDisabled:     strings.EqualFold(os.Getenv("DISABLE_NOTIFICATIONS"), "true"),

		KafkaBrokers:       splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		KafkaDecisionTopic: envOrDefault("KAFKA_DECISION_TOPIC", "snowfall-alert-decisions"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, &domain.ConfigurationError{Setting: "OPENWEATHER_API_KEY", Reason: "required"}
	}
	if cfg.WeatherAPIKey == "" {
		return nil, &domain.ConfigurationError{Setting: "WEATHERAPI_KEY", Reason: "required"}
	}
	if cfg.SlackWebhookURL == "" && !cfg.NotificationsDisabled {
		return nil, &domain.ConfigurationError{
			Setting: "SLACK_WEBHOOK_URL",
			Reason:  "required unless DISABLE_NOTIFICATIONS=true",
		}
	}
	if cfg.ProviderRPS <= 0 {
		return nil, &domain.ConfigurationError{Setting: "PROVIDER_RPS", Reason: "must be positive"}
	}
	if cfg.CacheSize <= 0 {
		return nil, &domain.ConfigurationError{Setting: "CACHE_SIZE", Reason: "must be positive"}
	}
	if len(cfg.Locations) == 0 {
		return nil, &domain.ConfigurationError{Setting: "ENABLED_RESORTS", Reason: "no locations enabled"}
	}

	return cfg, nil
}

// KafkaEnabled reports whether the decision stream should be wired.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RedisEnabled reports whether cooldown state should persist across restarts.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &domain.ConfigurationError{Setting: key, Reason: fmt.Sprintf("invalid duration %q", s)}
	}
	return d, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
