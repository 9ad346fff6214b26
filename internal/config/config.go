package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds process configuration. Env vars provide the defaults;
// an optional YAML file named by ECOMETER_CONFIG overrides them.
type Config struct {
	HTTPAddr       string
	PostgresDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	OutboxInterval time.Duration
	OutboxBatch    int
}

// fileConfig is the YAML shape; durations are Go duration strings.
type fileConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	JWTSecret      string `yaml:"jwt_secret"`
	TokenTTL       string `yaml:"token_ttl"`
	OutboxInterval string `yaml:"outbox_interval"`
	OutboxBatch    int    `yaml:"outbox_batch"`
}

// Load reads configuration from env and the optional YAML file.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		PostgresDSN:    os.Getenv("PG_DSN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       getenvDurationDefault("TOKEN_TTL", 24*time.Hour),
		OutboxInterval: getenvDurationDefault("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatch:    getenvIntDefault("OUTBOX_BATCH", 50),
	}

	if path := os.Getenv("ECOMETER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if err := applyFile(&cfg, file); err != nil {
			return cfg, err
		}
	}

	if cfg.PostgresDSN == "" {
		return cfg, errors.New("config: PG_DSN required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: JWT_SECRET required")
	}
	return cfg, nil
}

func applyFile(cfg *Config, file fileConfig) error {
	if file.HTTPAddr != "" {
		cfg.HTTPAddr = file.HTTPAddr
	}
	if file.PostgresDSN != "" {
		cfg.PostgresDSN = file.PostgresDSN
	}
	if file.JWTSecret != "" {
		cfg.JWTSecret = file.JWTSecret
	}
	if file.TokenTTL != "" {
		ttl, err := time.ParseDuration(file.TokenTTL)
		if err != nil {
			return errors.New("config: invalid token_ttl")
		}
		cfg.TokenTTL = ttl
	}
	if file.OutboxInterval != "" {
		interval, err := time.ParseDuration(file.OutboxInterval)
		if err != nil {
			return errors.New("config: invalid outbox_interval")
		}
		cfg.OutboxInterval = interval
	}
	if file.OutboxBatch != 0 {
		cfg.OutboxBatch = file.OutboxBatch
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
