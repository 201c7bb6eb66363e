// Package config provides configuration types and utilities for the dispatcher core.
// This file contains the main unified configuration entry point.
package config

import (
	"fmt"
)

// ============================================================================
// MAIN UNIFIED CONFIGURATION
// ============================================================================

// Config represents the complete configuration for the dispatcher core.
type Config struct {
	// Version and metadata
	Version     string            `yaml:"version,omitempty"`
	Name        string            `yaml:"name,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`

	// Global settings
	Global GlobalSettings `yaml:"global,omitempty"`

	// LLM provider fallback chain: tried in list order by the llm adapter.
	LLMFallbackOrder []string `yaml:"llm_fallback_order,omitempty"`

	// LLM provider entries, keyed by name (referenced by Agents[x].LLM and
	// by LLMFallbackOrder).
	LLMs map[string]LLMProviderConfig `yaml:"llms,omitempty"`

	// Specialist agent definitions, keyed by agent id
	// (reception_agent, sales_agent, order_agent, knowledge_agent,
	// styling_agent).
	Agents map[string]AgentConfig `yaml:"agents,omitempty"`
}

// Validate implements ConfigInterface for Config
func (c *Config) Validate() error {
	if err := c.Global.Validate(); err != nil {
		return fmt.Errorf("global settings validation failed: %w", err)
	}

	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("LLM '%s' validation failed: %w", name, err)
		}
	}

	for name, agent := range c.Agents {
		if err := agent.Validate(); err != nil {
			return fmt.Errorf("agent '%s' validation failed: %w", name, err)
		}
	}

	for _, name := range c.LLMFallbackOrder {
		if _, ok := c.LLMs[name]; !ok {
			return fmt.Errorf("llm_fallback_order references unknown LLM '%s'", name)
		}
	}

	return nil
}

// SetDefaults implements ConfigInterface for Config
func (c *Config) SetDefaults() {
	c.Global.SetDefaults()

	if c.LLMs == nil {
		c.LLMs = make(map[string]LLMProviderConfig)
	}
	if c.Agents == nil {
		c.Agents = make(map[string]AgentConfig)
	}

	// Zero-config: a single local provider if none exist.
	if len(c.LLMs) == 0 {
		c.LLMs["default-llm"] = LLMProviderConfig{}
	}

	for name := range c.LLMs {
		llm := c.LLMs[name]
		llm.SetDefaults()
		c.LLMs[name] = llm
	}

	if len(c.LLMFallbackOrder) == 0 {
		for name := range c.LLMs {
			c.LLMFallbackOrder = append(c.LLMFallbackOrder, name)
		}
	}

	// Zero-config: seed the five fixed specialist agents if none are
	// configured, all pointed at the first configured LLM.
	if len(c.Agents) == 0 && len(c.LLMFallbackOrder) > 0 {
		defaultLLM := c.LLMFallbackOrder[0]
		for _, id := range []string{
			"reception_agent", "sales_agent", "order_agent",
			"knowledge_agent", "styling_agent",
		} {
			c.Agents[id] = AgentConfig{Name: id, LLM: defaultLLM}
		}
	}

	for name := range c.Agents {
		agent := c.Agents[name]
		agent.SetDefaults()
		c.Agents[name] = agent
	}
}

// ============================================================================
// GLOBAL SETTINGS
// ============================================================================

// GlobalSettings contains global configuration settings.
type GlobalSettings struct {
	Logging    LoggingConfig     `yaml:"logging,omitempty"`
	Dispatcher DispatcherConfig  `yaml:"dispatcher,omitempty"`
	Stats      StatsServerConfig `yaml:"stats,omitempty"`
}

// Validate implements ConfigInterface for GlobalSettings
func (c *GlobalSettings) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Dispatcher.Validate(); err != nil {
		return fmt.Errorf("dispatcher config validation failed: %w", err)
	}
	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("stats config validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements ConfigInterface for GlobalSettings
func (c *GlobalSettings) SetDefaults() {
	c.Logging.SetDefaults()
	c.Dispatcher.SetDefaults()
	c.Stats.SetDefaults()
}

// ============================================================================
// STATS SERVER CONFIGURATION
// ============================================================================

// StatsServerConfig configures the optional GET /stats reader endpoint.
// The endpoint is ambient observability, not part of the core's contract
// (§6): the dispatcher runs identically whether or not it is enabled.
type StatsServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Validate validates the stats server configuration
func (c *StatsServerConfig) Validate() error {
	if c.Enabled && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// SetDefaults sets default values for the stats server configuration
func (c *StatsServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
}

// ============================================================================
// CONFIGURATION LOADING
// ============================================================================

// LoadConfig loads the complete configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	var cfg Config
	if err := loadConfig(filePath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadConfigFromString loads configuration from a YAML string.
func LoadConfigFromString(yamlContent string) (*Config, error) {
	var cfg Config
	if err := loadConfigFromString(yamlContent, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from string: %w", err)
	}
	return &cfg, nil
}

// ============================================================================
// HELPER METHODS
// ============================================================================

// GetAgent returns an agent configuration by id.
func (c *Config) GetAgent(id string) (*AgentConfig, bool) {
	agent, exists := c.Agents[id]
	return &agent, exists
}

// ListAgents returns the configured specialist agent ids.
func (c *Config) ListAgents() []string {
	agents := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		agents = append(agents, name)
	}
	return agents
}
