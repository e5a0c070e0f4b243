// Package runnerconfig loads environment-driven configuration for a
// workflow runner entry point. cmd/workflowctl takes its settings from
// command-line flags and does not load this package. The
// interpreter core never depends on this package — workflow.Engine
// takes functional Options directly — this only feeds the outer
// process that wires an Engine together.
//
// Grounded on the pack's env-var config style
// (Dutt23-agentic-orchestrator's common/config.Load): typed getters
// with defaults, no external config library.
package runnerconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the settings a runner process needs to construct a
// workflow.Engine and its ambient collaborators.
type Config struct {
	Execution     ExecutionConfig
	Retry         RetryConfig
	Observability ObservabilityConfig
	Checkpoint    CheckpointConfig
}

// ExecutionConfig bounds a single run.
type ExecutionConfig struct {
	MaxSteps           int
	DefaultNodeTimeout time.Duration
}

// RetryConfig supplies defaults for Retry entries that omit MaxAttempts
// or MaxDelaySeconds.
type RetryConfig struct {
	DefaultMaxAttempts     int
	DefaultMaxDelaySeconds float64
}

// ObservabilityConfig controls logging/metrics/tracing wiring.
type ObservabilityConfig struct {
	LogFormat      string // "text" or "json"
	LogLevel       string
	OTelEndpoint   string
	EnableTracing  bool
	EnableMetrics  bool
	MetricsPort    int
}

// CheckpointConfig selects and configures a checkpointstore backend.
type CheckpointConfig struct {
	Backend string // "memory", "sqlite", or "mysql"
	DSN     string
}

// Load reads configuration from environment variables, applying
// defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Execution: ExecutionConfig{
			MaxSteps:           getEnvInt("WORKFLOW_MAX_STEPS", 10000),
			DefaultNodeTimeout: getEnvDuration("WORKFLOW_NODE_TIMEOUT", 30*time.Second),
		},
		Retry: RetryConfig{
			DefaultMaxAttempts:     getEnvInt("WORKFLOW_DEFAULT_MAX_ATTEMPTS", 3),
			DefaultMaxDelaySeconds: getEnvFloat("WORKFLOW_DEFAULT_MAX_DELAY_SECONDS", 300.0),
		},
		Observability: ObservabilityConfig{
			LogFormat:     getEnv("LOG_FORMAT", "text"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			OTelEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			EnableTracing: getEnvBool("ENABLE_TRACING", false),
			EnableMetrics: getEnvBool("ENABLE_METRICS", false),
			MetricsPort:   getEnvInt("METRICS_PORT", 9090),
		},
		Checkpoint: CheckpointConfig{
			Backend: getEnv("CHECKPOINT_BACKEND", "memory"),
			DSN:     getEnv("CHECKPOINT_DSN", ""),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects configuration combinations the runner can't act on.
func (c *Config) Validate() error {
	if c.Execution.MaxSteps < 1 {
		return fmt.Errorf("runnerconfig: WORKFLOW_MAX_STEPS must be >= 1, got %d", c.Execution.MaxSteps)
	}
	switch c.Checkpoint.Backend {
	case "memory":
	case "sqlite", "mysql":
		if c.Checkpoint.DSN == "" {
			return fmt.Errorf("runnerconfig: CHECKPOINT_DSN is required for backend %q", c.Checkpoint.Backend)
		}
	default:
		return fmt.Errorf("runnerconfig: unknown CHECKPOINT_BACKEND %q", c.Checkpoint.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
