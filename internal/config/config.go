package config

import (
	"os"
	"strconv"
	"time"

	"gopower/domain/power"
	"gopower/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Simulation SimulationConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Metrics    MetricsConfig
	Log        LogConfig
}

// SimulationConfig holds the defaults applied to requests that leave a
// field unset
type SimulationConfig struct {
	Alpha              float64       `validate:"gt=0,lt=1"`
	Repetitions        int           `validate:"gte=1"`
	Permutations       int           `validate:"gte=1"`
	Workers            int           `validate:"gte=0"`
	PermutationWorkers int           `validate:"gte=0"`
	MaxDuration        time.Duration `validate:"gte=0"`
	CurveConcurrency   int           `validate:"gte=1"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string `validate:"omitempty,startswith=/"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level   string `validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
	Console bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Simulation: *loadSimulationConfig(),
		Server:     *loadServerConfig(),
		Metrics:    *loadMetricsConfig(),
		Log:        *loadLogConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// ApplyDefaults fills request fields left at zero from the configured
// simulation defaults; explicit request values win.
func (c SimulationConfig) ApplyDefaults(req power.Request) power.Request {
	if req.Alpha == 0 {
		req.Alpha = c.Alpha
	}
	if req.Repetitions == 0 {
		req.Repetitions = c.Repetitions
	}
	if req.Strategy != power.StrategyAnalytic && req.Permutations == 0 {
		req.Permutations = c.Permutations
	}
	if req.Workers == 0 {
		req.Workers = c.Workers
	}
	if req.PermutationWorkers == 0 {
		req.PermutationWorkers = c.PermutationWorkers
	}
	if req.MaxDuration == 0 {
		req.MaxDuration = c.MaxDuration
	}
	return req
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Alpha:              getEnvFloatOrDefault("POWER_ALPHA", power.DefaultAlpha),
		Repetitions:        getEnvIntOrDefault("POWER_REPETITIONS", power.DefaultRepetitions),
		Permutations:       getEnvIntOrDefault("POWER_PERMUTATIONS", power.DefaultPermutations),
		Workers:            getEnvIntOrDefault("POWER_WORKERS", 0),
		PermutationWorkers: getEnvIntOrDefault("POWER_PERMUTATION_WORKERS", 1),
		MaxDuration:        getEnvDurationOrDefault("POWER_MAX_DURATION", 0),
		CurveConcurrency:   getEnvIntOrDefault("POWER_CURVE_CONCURRENCY", 2),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
		Path:    getEnvOrDefault("METRICS_PATH", "/metrics"),
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level:   getEnvOrDefault("LOG_LEVEL", "INFO"),
		Console: getEnvOrDefault("LOG_FORMAT", "json") == "console",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
