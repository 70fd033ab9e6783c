// Package config reads the screen's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting the process reads at start-up.
type Config struct {
	InferenceEndpoint string `validate:"required,url"`
	ListenAddr        string `validate:"required"`
	IncludeOverlay    bool
	MediaAccess       string        `validate:"oneof=granted denied"`
	PickQuality       float64       `validate:"gt=0,lte=1"`
	PickMaxDimension  uint          `validate:"gte=16"`
	RedisAddr         string        `validate:"omitempty,hostname_port"`
	CacheTTL          time.Duration `validate:"gt=0"`
	LogLevel          string        `validate:"oneof=debug info warn error"`
	LogFile           string
}

// MediaAccessGranted reports whether the host grants photo access.
func (c *Config) MediaAccessGranted() bool {
	return c.MediaAccess == "granted"
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load(dotEnvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotEnvFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		InferenceEndpoint: getEnv("INFERENCE_ENDPOINT", "http://localhost:5000/predict"),
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		MediaAccess:       strings.ToLower(getEnv("MEDIA_ACCESS", "granted")),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:           os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.IncludeOverlay, err = strconv.ParseBool(getEnv("INCLUDE_OVERLAY", "true")); err != nil {
		return nil, fmt.Errorf("INCLUDE_OVERLAY: %w", err)
	}
	if cfg.PickQuality, err = strconv.ParseFloat(getEnv("PICK_QUALITY", "0.85"), 64); err != nil {
		return nil, fmt.Errorf("PICK_QUALITY: %w", err)
	}
	maxDim, err := strconv.ParseUint(getEnv("PICK_MAX_DIMENSION", "1024"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("PICK_MAX_DIMENSION: %w", err)
	}
	cfg.PickMaxDimension = uint(maxDim)
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
