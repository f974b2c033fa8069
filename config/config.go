// Package config loads the user-admin service settings from the environment.
//
// Sources, lowest priority first:
//  1. Defaults below
//  2. .env file in the working directory (local development, via godotenv)
//  3. Process environment
//
// Usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	Service   ServiceConfig   // Port, name, version
	Tracing   TracingConfig   // OpenTelemetry export
	Profiling ProfilingConfig // Pyroscope
	Logging   LoggingConfig   // Zap
	Metrics   MetricsConfig   // Prometheus
	Upstream  UpstreamConfig  // Remote users REST API
	// ShutdownTimeout in seconds - from SHUTDOWN_TIMEOUT env (default: 10)
	ShutdownTimeout int
	// ReadinessDrainDelay in seconds between failing /ready and stopping the
	// HTTP server - from READINESS_DRAIN_DELAY env (default: 5s, max: 30s)
	ReadinessDrainDelay int
}

// ServiceConfig defines basic service configuration
type ServiceConfig struct {
	Name    string // from SERVICE_NAME env
	Port    string // from PORT env (default: "8080")
	Version string // from VERSION env
	Env     string // development/staging/production - from ENV env
}

// TracingConfig defines OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled            bool    // from TRACING_ENABLED env (default: true)
	Endpoint           string  // OTLP HTTP collector host:port - from OTEL_COLLECTOR_ENDPOINT env
	SampleRate         float64 // 0.0-1.0 - from OTEL_SAMPLE_RATE env
	ServiceName        string  // defaults to ServiceConfig.Name
	MaxExportBatchSize int     // from OTEL_BATCH_SIZE env (default: 512)
}

// ProfilingConfig defines Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled     bool   // from PROFILING_ENABLED env (default: true)
	Endpoint    string // from PYROSCOPE_ENDPOINT env
	ServiceName string // defaults to ServiceConfig.Name
}

// LoggingConfig defines structured logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error - from LOG_LEVEL env (default: "info")
	Format string // json, console - from LOG_FORMAT env (default: "json")
}

// MetricsConfig defines Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   // from METRICS_ENABLED env (default: true)
	Path    string // from METRICS_PATH env (default: "/metrics")
}

// UpstreamConfig points at the REST API that owns user records
type UpstreamConfig struct {
	BaseURL string        // from USERS_API_URL env (default: JSONPlaceholder)
	Timeout time.Duration // per-request client timeout - from USERS_API_TIMEOUT env (default: 5s)
}

// UsersURL returns the collection URL, e.g. https://host/users
func (u UpstreamConfig) UsersURL() string {
	return strings.TrimRight(u.BaseURL, "/") + "/users"
}

// Load reads configuration from environment variables with defaults.
// A .env file is applied first if present; real env vars win over it.
func Load() *Config {
	_ = godotenv.Load()

	serviceName := getEnv("SERVICE_NAME", "user-admin")

	return &Config{
		Service: ServiceConfig{
			Name:    serviceName,
			Port:    getEnv("PORT", "8080"),
			Version: getEnv("VERSION", "dev"),
			Env:     getEnv("ENV", "development"),
		},
		Tracing: TracingConfig{
			Enabled:            getEnvBool("TRACING_ENABLED", true),
			Endpoint:           getEnv("OTEL_COLLECTOR_ENDPOINT", "otel-collector-opentelemetry-collector.monitoring.svc.cluster.local:4318"),
			SampleRate:         getEnvFloat("OTEL_SAMPLE_RATE", 0.1),
			ServiceName:        serviceName,
			MaxExportBatchSize: getEnvInt("OTEL_BATCH_SIZE", 512),
		},
		Profiling: ProfilingConfig{
			Enabled:     getEnvBool("PROFILING_ENABLED", true),
			Endpoint:    getEnv("PYROSCOPE_ENDPOINT", "http://pyroscope.monitoring.svc.cluster.local:4040"),
			ServiceName: serviceName,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("USERS_API_URL", "https://jsonplaceholder.typicode.com"),
			Timeout: time.Duration(getEnvDurationSecondsWithMax("USERS_API_TIMEOUT", 5, 60)) * time.Second,
		},
		ShutdownTimeout:     getEnvDurationSecondsWithMax("SHUTDOWN_TIMEOUT", 10, 60),
		ReadinessDrainDelay: getEnvDurationSecondsWithMax("READINESS_DRAIN_DELAY", 5, 30),
	}
}

// Validate checks every field and reports all problems at once
func (c *Config) Validate() error {
	var errors []string

	if c.Service.Name == "" {
		errors = append(errors, "SERVICE_NAME must not be empty")
	}
	if _, err := strconv.Atoi(c.Service.Port); err != nil {
		errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %q", c.Service.Port))
	}
	validEnvs := []string{"development", "dev", "staging", "stage", "production", "prod"}
	if !contains(validEnvs, c.Service.Env) {
		errors = append(errors, fmt.Sprintf("ENV must be one of %v, got: %s", validEnvs, c.Service.Env))
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			errors = append(errors, "OTEL_COLLECTOR_ENDPOINT is required when tracing is enabled")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
			errors = append(errors, fmt.Sprintf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got: %.2f", c.Tracing.SampleRate))
		}
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		errors = append(errors, "PYROSCOPE_ENDPOINT is required when profiling is enabled")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logging.Level) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of %v, got: %s", validLogLevels, c.Logging.Level))
	}
	validLogFormats := []string{"json", "console"}
	if !contains(validLogFormats, c.Logging.Format) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of %v, got: %s", validLogFormats, c.Logging.Format))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errors = append(errors, fmt.Sprintf("METRICS_PATH must start with '/', got: %s", c.Metrics.Path))
	}

	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("USERS_API_URL must be an absolute http(s) URL, got: %q", c.Upstream.BaseURL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Service.Env)
	return env == "development" || env == "dev"
}

// GetShutdownTimeoutDuration returns shutdown timeout as time.Duration
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// GetReadinessDrainDelayDuration returns readiness drain delay as time.Duration.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.ReadinessDrainDelay) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool accepts "true", "1", "yes"; anything else set is false
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	intValue, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	floatValue, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvDurationSecondsWithMax parses a Go duration ("5s", "1m") and returns
// whole seconds. Unparseable, non-positive or too large values fall back to
// the default so a bad env var never blocks startup.
func getEnvDurationSecondsWithMax(key string, defaultValueSeconds int, maxSeconds int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValueSeconds
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValueSeconds
	}

	seconds := int(d.Seconds())
	if seconds <= 0 || seconds > maxSeconds {
		return defaultValueSeconds
	}

	return seconds
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
