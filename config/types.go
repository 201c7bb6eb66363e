// Package config provides configuration types and utilities for the dispatcher core.
// This file contains the configuration types for individual components.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ============================================================================
// LLM PROVIDER CONFIGURATION
// ============================================================================

// LLMProviderConfig configures one LLM provider entry. Multiple entries form
// the provider fallback chain consumed by the llm package.
type LLMProviderConfig struct {
	Type        string  `yaml:"type"`        // "anthropic", "openai", "ollama"
	Model       string  `yaml:"model"`       // Model name
	APIKey      string  `yaml:"api_key"`     // API key (Anthropic/OpenAI)
	Host        string  `yaml:"host"`        // Host for ollama or custom endpoint
	Temperature float64 `yaml:"temperature"` // Temperature setting
	MaxTokens   int     `yaml:"max_tokens"`  // Max tokens
	Timeout     int     `yaml:"timeout"`     // Request timeout in seconds
}

// Validate implements ConfigInterface for LLMProviderConfig
func (c *LLMProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	switch c.Type {
	case "anthropic", "openai", "ollama":
	default:
		return fmt.Errorf("unsupported provider type: %s", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Type != "ollama" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for %s", c.Type)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// SetDefaults implements ConfigInterface for LLMProviderConfig
func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		switch c.Type {
		case "anthropic":
			c.Model = "claude-3-5-haiku-20241022"
		case "openai":
			c.Model = "gpt-4o-mini"
		default:
			c.Model = "qwen2.5:7b"
		}
	}
	if c.Host == "" && c.Type == "ollama" {
		c.Host = "http://localhost:11434"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// ============================================================================
// SPECIALIST AGENT CONFIGURATION
// ============================================================================

// AgentConfig configures one specialist agent (reception, sales, order,
// knowledge, styling). The five ids are fixed by the domain; this struct
// only carries the per-agent tuning knobs.
type AgentConfig struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	LLM          string   `yaml:"llm"`          // Name of an LLMs entry; required, but every specialist shares the adapter built from llm_fallback_order
	Capabilities []string `yaml:"capabilities"` // Advertised skills; defaulted only, not read by the analyzer, /stats or routing
}

// Validate implements ConfigInterface for AgentConfig
func (c *AgentConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.LLM == "" {
		return fmt.Errorf("llm is required")
	}
	return nil
}

// SetDefaults implements ConfigInterface for AgentConfig
func (c *AgentConfig) SetDefaults() {
	if len(c.Capabilities) == 0 {
		c.Capabilities = []string{"general"}
	}
}

// ============================================================================
// DISPATCHER CONFIGURATION
// ============================================================================

// DispatcherConfig carries the turn-level tunables read from the
// environment at startup (§6 of the spec).
type DispatcherConfig struct {
	SessionIdleHours    int `yaml:"session_idle_hours"`
	TurnTimeoutSeconds  int `yaml:"turn_timeout_seconds"`
	AgentTimeoutSeconds int `yaml:"agent_timeout_seconds"`
}

// Validate implements ConfigInterface for DispatcherConfig
func (c *DispatcherConfig) Validate() error {
	if c.SessionIdleHours <= 0 {
		return fmt.Errorf("session_idle_hours must be positive")
	}
	if c.TurnTimeoutSeconds <= 0 {
		return fmt.Errorf("turn_timeout_seconds must be positive")
	}
	if c.AgentTimeoutSeconds <= 0 {
		return fmt.Errorf("agent_timeout_seconds must be positive")
	}
	if c.AgentTimeoutSeconds > c.TurnTimeoutSeconds {
		return fmt.Errorf("agent_timeout_seconds must not exceed turn_timeout_seconds")
	}
	return nil
}

// SetDefaults implements ConfigInterface for DispatcherConfig
// Unset fields are taken from SESSION_IDLE_HOURS, TURN_TIMEOUT_SECONDS and
// AGENT_TIMEOUT_SECONDS when those hold a positive integer, else 24/60/30.
func (c *DispatcherConfig) SetDefaults() {
	fromEnv := func(name string, def int) int {
		if v, err := strconv.Atoi(os.Getenv(name)); err == nil && v > 0 {
			return v
		}
		return def
	}
	if c.SessionIdleHours == 0 {
		c.SessionIdleHours = fromEnv("SESSION_IDLE_HOURS", 24)
	}
	if c.TurnTimeoutSeconds == 0 {
		c.TurnTimeoutSeconds = fromEnv("TURN_TIMEOUT_SECONDS", 60)
	}
	if c.AgentTimeoutSeconds == 0 {
		c.AgentTimeoutSeconds = fromEnv("AGENT_TIMEOUT_SECONDS", 30)
	}
}

// SessionIdle returns the configured idle cutoff as a Duration.
func (c *DispatcherConfig) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleHours) * time.Hour
}

// TurnTimeout returns the configured per-turn timeout as a Duration.
func (c *DispatcherConfig) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSeconds) * time.Second
}

// AgentTimeout returns the configured per-invocation timeout as a Duration.
func (c *DispatcherConfig) AgentTimeout() time.Duration {
	return time.Duration(c.AgentTimeoutSeconds) * time.Second
}

// ============================================================================
// LOGGING CONFIGURATION
// ============================================================================

// LoggingConfig configures the slog-based logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, file
}

// Validate implements ConfigInterface for LoggingConfig
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output destination: %s", c.Output)
	}
	return nil
}

// SetDefaults implements ConfigInterface for LoggingConfig
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}
