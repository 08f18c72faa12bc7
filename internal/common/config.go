package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Loader     LoaderConfig
	Quality    QualityConfig
	Enrichment EnrichmentConfig
	Review     ReviewConfig
	Server     ServerConfig
}

// LoaderConfig holds ingestion-related configuration
type LoaderConfig struct {
	Workers int
}

// QualityConfig holds validation-related configuration
type QualityConfig struct {
	VATRate      float64 // gross = net × rate
	VATTolerance float64 // absolute tolerance in currency units
}

// EnrichmentConfig holds enrichment-related configuration
type EnrichmentConfig struct {
	Disabled        bool
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	Timeout         time.Duration
	RetryBackoff    time.Duration
	SummaryMaxChars int
}

// ReviewConfig holds review-store configuration
type ReviewConfig struct {
	DataDir string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			Workers: getEnvAsInt("LOADER_WORKERS", 4),
		},
		Quality: QualityConfig{
			VATRate:      getEnvAsFloat64("VAT_RATE", 1.24),
			VATTolerance: getEnvAsFloat64("VAT_TOLERANCE", 0.01),
		},
		Enrichment: EnrichmentConfig{
			Disabled:        getEnvAsBool("AI_ENRICHMENT_DISABLED", false),
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:     getEnvAsFloat32("OPENAI_TEMPERATURE", 0.2),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
			RetryBackoff:    getEnvAsDuration("ENRICH_RETRY_BACKOFF", 2*time.Second),
			SummaryMaxChars: getEnvAsInt("SUMMARY_MAX_CHARS", 240),
		},
		Review: ReviewConfig{
			DataDir: getEnv("REVIEW_DATA_DIR", "./data"),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
