// Package config provides configuration types and utilities for the dispatcher core.
// This file implements YAML loading with environment variable expansion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// YAML LOADING
// ============================================================================

// loadConfig reads filePath, expands environment variables, and unmarshals
// the result into out, then applies defaults and validates.
func loadConfig(filePath string, out *Config) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return loadConfigFromString(string(raw), out)
}

// loadConfigFromString expands environment variables in yamlContent,
// unmarshals it into out, then applies defaults and validates.
func loadConfigFromString(yamlContent string, out *Config) error {
	if err := LoadEnvFiles(); err != nil {
		return fmt.Errorf("loading .env files: %w", err)
	}

	expanded := expandEnvVars(yamlContent)

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	out.SetDefaults()

	if err := out.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	return nil
}
