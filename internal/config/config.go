package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"estimateml/internal/errors"
)

// Config represents the complete toolkit configuration
type Config struct {
	Training  TrainingConfig
	Cache     CacheConfig
	Inference InferenceConfig
	Storage   StorageConfig
	Log       LogConfig
}

// TrainingConfig holds gradient-descent hyperparameters
type TrainingConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
}

// CacheConfig holds prediction cache settings
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// InferenceConfig holds thresholds and degradation switches for the inference models
type InferenceConfig struct {
	FallbackEnabled         bool
	AnomalyThreshold        float64 // anomaly score in (0,1] at which an item is flagged
	ClassificationThreshold float64 // below this (and below margin) the classifier answers "general"
	AdvisoryConfidence      float64 // percent; predictions below it are returned with a caveat
	CostSavingMargin        float64 // fraction a price must exceed a cheaper alternative by
}

// StorageConfig holds optional adapter settings
type StorageConfig struct {
	DatabaseURL    string
	ModelStorePath string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
}

// Default returns the safe defaults used when nothing is configured
func Default() *Config {
	return &Config{
		Training: TrainingConfig{
			Epochs:       100,
			BatchSize:    16,
			LearningRate: 0.01,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     300 * time.Second,
		},
		Inference: InferenceConfig{
			FallbackEnabled:         true,
			AnomalyThreshold:        0.95,
			ClassificationThreshold: 0.3,
			AdvisoryConfidence:      60,
			CostSavingMargin:        0.15,
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	d := Default()
	config := &Config{
		Training: TrainingConfig{
			Epochs:       getEnvIntOrDefault("TRAIN_EPOCHS", d.Training.Epochs),
			BatchSize:    getEnvIntOrDefault("TRAIN_BATCH_SIZE", d.Training.BatchSize),
			LearningRate: getEnvFloatOrDefault("TRAIN_LEARNING_RATE", d.Training.LearningRate),
		},
		Cache: CacheConfig{
			Enabled: getEnvBoolOrDefault("CACHE_ENABLED", d.Cache.Enabled),
			TTL:     time.Duration(getEnvIntOrDefault("CACHE_TTL_SECONDS", int(d.Cache.TTL/time.Second))) * time.Second,
		},
		Inference: InferenceConfig{
			FallbackEnabled:         getEnvBoolOrDefault("FALLBACK_ENABLED", d.Inference.FallbackEnabled),
			AnomalyThreshold:        getEnvFloatOrDefault("ANOMALY_THRESHOLD", d.Inference.AnomalyThreshold),
			ClassificationThreshold: getEnvFloatOrDefault("CLASSIFY_CONFIDENCE_THRESHOLD", d.Inference.ClassificationThreshold),
			AdvisoryConfidence:      getEnvFloatOrDefault("ADVISORY_CONFIDENCE", d.Inference.AdvisoryConfidence),
			CostSavingMargin:        getEnvFloatOrDefault("COST_SAVING_MARGIN", d.Inference.CostSavingMargin),
		},
		Storage: StorageConfig{
			DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
			ModelStorePath: getEnvOrDefault("MODEL_STORE_PATH", ""),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", d.Log.Level),
			Format: getEnvOrDefault("LOG_FORMAT", d.Log.Format),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate rejects values the trainers and models cannot work with
func (c *Config) Validate() error {
	if c.Training.Epochs <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("epochs must be positive, got %d", c.Training.Epochs))
	}
	if c.Training.BatchSize <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("batch size must be positive, got %d", c.Training.BatchSize))
	}
	if c.Training.LearningRate <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("learning rate must be positive, got %g", c.Training.LearningRate))
	}
	if c.Cache.TTL < 0 {
		return errors.ConfigInvalid("cache TTL cannot be negative")
	}
	if !inUnitInterval(c.Inference.AnomalyThreshold) {
		return errors.ConfigInvalid(fmt.Sprintf("anomaly threshold must be in (0,1], got %g", c.Inference.AnomalyThreshold))
	}
	if !inUnitInterval(c.Inference.ClassificationThreshold) {
		return errors.ConfigInvalid(fmt.Sprintf("classification threshold must be in (0,1], got %g", c.Inference.ClassificationThreshold))
	}
	if c.Inference.AdvisoryConfidence < 0 || c.Inference.AdvisoryConfidence > 100 {
		return errors.ConfigInvalid("advisory confidence must be a percentage")
	}
	if c.Inference.CostSavingMargin < 0 {
		return errors.ConfigInvalid("cost saving margin cannot be negative")
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
