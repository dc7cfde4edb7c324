// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
)

const (
	defaultPort             = "8080"
	defaultPlacementTimeout = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultMaxUploadBytes   = 5 << 20
)

// Config carries environment-driven settings shared by the API, worker and jobs.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	PostgresDSN          string
	PostgresMaxOpenConns int
	RedisURL             string

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	OrderPlacementTimeout time.Duration
	OrderStatusPolicy     string
	OrderEnforceTotal     bool
	IdempotencyTTL        time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	Cloudinary          CloudinaryConfig
	ImageMaxUploadBytes int64
}

// CloudinaryConfig holds image host credentials. They are only ever read from the environment.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Load reads an optional .env file, then the environment, applies defaults and validates.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:              envDefault("PORT", defaultPort),
		Environment:       envDefault("ENVIRONMENT", "local"),
		LogLevel:          envDefault("LOG_LEVEL", "info"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		OrderStatusPolicy: envDefault("ORDER_STATUS_POLICY", "assume-paid"),
		OrderEnforceTotal: isTruthy(os.Getenv("ORDER_ENFORCE_TOTAL")),
		Cloudinary: CloudinaryConfig{
			URL:       strings.TrimSpace(os.Getenv("CLOUDINARY_URL")),
			CloudName: strings.TrimSpace(os.Getenv("CLOUDINARY_CLOUD_NAME")),
			APIKey:    strings.TrimSpace(os.Getenv("CLOUDINARY_API_KEY")),
			APISecret: strings.TrimSpace(os.Getenv("CLOUDINARY_API_SECRET")),
			Folder:    strings.TrimSpace(os.Getenv("CLOUDINARY_FOLDER")),
		},
	}

	var err error
	if cfg.PostgresMaxOpenConns, err = positiveInt("POSTGRES_MAX_OPEN_CONNS", 0); err != nil {
		return Config{}, err
	}
	if cfg.OrderPlacementTimeout, err = positiveDuration("ORDER_PLACEMENT_TIMEOUT", defaultPlacementTimeout); err != nil {
		return Config{}, err
	}
	hours, err := positiveInt("IDEMPOTENCY_TTL_HOURS", int(defaultIdempotencyTTL/time.Hour))
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = time.Duration(hours) * time.Hour
	if cfg.RateLimitBurst, err = positiveInt("RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be a positive number")
		}
		cfg.RateLimitRPS = rps
	} else {
		cfg.RateLimitRPS = 10
	}
	maxBytes, err := positiveInt("IMAGE_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.ImageMaxUploadBytes = int64(maxBytes)

	switch cfg.OrderStatusPolicy {
	case "assume-paid", "await-payment":
	default:
		return Config{}, fmt.Errorf("ORDER_STATUS_POLICY must be assume-paid or await-payment")
	}
	return cfg, nil
}

// CloudinaryConfigured reports whether image host credentials are complete.
func (c Config) CloudinaryConfigured() bool {
	if c.Cloudinary.URL != "" {
		return true
	}
	return c.Cloudinary.CloudName != "" && c.Cloudinary.APIKey != "" && c.Cloudinary.APISecret != ""
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

// positiveDuration accepts Go durations ("15s") or plain seconds ("15").
func positiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}
