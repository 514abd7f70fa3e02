package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/passbi/transit_catalogue/internal/cache"
	"github.com/passbi/transit_catalogue/internal/db"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// StorageConfig selects where the serialized base lives
type StorageConfig struct {
	Backend  string `yaml:"backend" validate:"oneof=file redis"`
	Path     string `yaml:"path"`
	RedisKey string `yaml:"redis_key" validate:"required_if=Backend redis"`
}

// APIConfig configures the HTTP query server
type APIConfig struct {
	Port               int `yaml:"port" validate:"gt=0,lte=65535"`
	RateLimitPerSecond int `yaml:"rate_limit_per_second" validate:"gte=0"`
}

// Config is the process configuration
type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	API      APIConfig     `yaml:"api"`
	Redis    cache.Config  `yaml:"redis"`
	Database db.Config     `yaml:"database"`
}

// LoadConfigFromEnv builds a configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("API_PORT", "8080"))
	rateLimit, _ := strconv.Atoi(getEnv("API_RATE_LIMIT_PER_SECOND", "0"))

	return &Config{
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", BackendFile),
			Path:     getEnv("STORAGE_PATH", "transport_catalogue.db"),
			RedisKey: getEnv("STORAGE_REDIS_KEY", "transit_catalogue:base"),
		},
		API: APIConfig{
			Port:               port,
			RateLimitPerSecond: rateLimit,
		},
		Redis:    *cache.LoadConfigFromEnv(),
		Database: *db.LoadConfigFromEnv(),
	}
}

// Load reads the environment, overlays the YAML file at path when one is given,
// and validates the result
func Load(path string) (*Config, error) {
	cfg := LoadConfigFromEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Storage); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	if err := v.Struct(c.API); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}
	// connection sections matter only when their backend is in use
	if c.Storage.Backend == BackendRedis || c.API.RateLimitPerSecond > 0 {
		if err := v.Struct(c.Redis); err != nil {
			return fmt.Errorf("invalid redis config: %w", err)
		}
	}
	return nil
}

// ValidateDatabase checks the database section
func (c *Config) ValidateDatabase() error {
	if err := validator.New().Struct(c.Database); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
