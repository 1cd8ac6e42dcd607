// Package config loads engine settings from the environment. Library
// consumers usually configure the engine in code via functional options; this
// package serves the runnable examples and thin host wrappers.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven engine configuration.
type Config struct {
	// Provider selects the capability backend: mock, openai or anthropic.
	Provider string `env:"FEEDBACK_PROVIDER" envDefault:"mock"`
	// Model overrides the provider's default model id.
	Model string `env:"FEEDBACK_MODEL"`
	// CapabilityTimeout bounds each follow-up generation call.
	CapabilityTimeout time.Duration `env:"FEEDBACK_CAPABILITY_TIMEOUT" envDefault:"15s"`
	// SubmitEndpoint is the persistence API URL; empty disables submission.
	SubmitEndpoint string `env:"FEEDBACK_SUBMIT_ENDPOINT"`
	// SubmitAttempts bounds submission retries.
	SubmitAttempts uint `env:"FEEDBACK_SUBMIT_ATTEMPTS" envDefault:"3"`
	// LogFormat is json or text.
	LogFormat string `env:"FEEDBACK_LOG_FORMAT" envDefault:"json"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
