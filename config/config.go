// Package config provides configuration loading and management for semlink.
package config

import (
	"fmt"
	"time"

	"github.com/c360studio/semlink/model"
)

// Config represents the complete semlink configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Wikidata WikidataConfig `yaml:"wikidata"`
	Linker   LinkerConfig   `yaml:"linker"`
	NATS     NATSConfig     `yaml:"nats"`
	Scan     ScanConfig     `yaml:"scan"`
}

// ModelConfig configures the LLM capabilities and endpoints.
type ModelConfig struct {
	// Default is the default model name (e.g. "gpt-4o-mini").
	Default string `yaml:"default"`
	// Provider selects the API adapter: openai, ollama, or anthropic.
	Provider string `yaml:"provider"`
	// Endpoint is the API base URL (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses.
	Timeout time.Duration `yaml:"timeout"`
	// Capabilities optionally overrides the per-capability model routing.
	Capabilities map[string]model.CapabilityConfig `yaml:"capabilities"`
	// Endpoints optionally defines named endpoints for capability routing.
	Endpoints map[string]model.EndpointConfig `yaml:"endpoints"`
}

// WikidataConfig configures the knowledge-base search client.
type WikidataConfig struct {
	// BaseURL is the MediaWiki API endpoint.
	BaseURL string `yaml:"base_url"`
	// Language is the search language.
	Language string `yaml:"language"`
	// Limit caps hits per search (max 50).
	Limit int `yaml:"limit"`
	// Timeout bounds a single search request.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent identifies this tool to the API.
	UserAgent string `yaml:"user_agent"`
}

// LinkerConfig configures the linking loop.
type LinkerConfig struct {
	// MaxIterations bounds refine rounds per run.
	MaxIterations int `yaml:"max_iterations"`
	// Heuristic disables the generative proposer in favor of seed queries.
	Heuristic bool `yaml:"heuristic"`
}

// NATSConfig configures graph publishing.
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled).
	URL string `yaml:"url"`
}

// ScanConfig configures repository traversal.
type ScanConfig struct {
	// Excludes are doublestar globs, relative to the scan root.
	Excludes []string `yaml:"excludes"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Default:     "gpt-4o-mini",
			Provider:    "openai",
			Temperature: 0.1,
			Timeout:     20 * time.Second,
		},
		Wikidata: WikidataConfig{
			BaseURL:  "https://www.wikidata.org/w/api.php",
			Language: "en",
			Limit:    50,
			Timeout:  10 * time.Second,
		},
		Linker: LinkerConfig{
			MaxIterations: 3,
		},
		NATS: NATSConfig{
			URL: "",
		},
		Scan: ScanConfig{
			Excludes: []string{"**/.git/**", "**/node_modules/**"},
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Model.Default == "" {
		return fmt.Errorf("model.default is required")
	}
	switch c.Model.Provider {
	case "openai", "ollama", "anthropic":
	default:
		return fmt.Errorf("model.provider must be openai, ollama, or anthropic")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Wikidata.BaseURL == "" {
		return fmt.Errorf("wikidata.base_url is required")
	}
	if c.Wikidata.Limit < 1 || c.Wikidata.Limit > 50 {
		return fmt.Errorf("wikidata.limit must be between 1 and 50")
	}
	if c.Linker.MaxIterations < 1 {
		return fmt.Errorf("linker.max_iterations must be at least 1")
	}
	return nil
}

// Merge merges another config into this one; non-zero values in other take
// precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Model.Default != "" {
		c.Model.Default = other.Model.Default
	}
	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}
	if len(other.Model.Capabilities) > 0 {
		c.Model.Capabilities = other.Model.Capabilities
	}
	if len(other.Model.Endpoints) > 0 {
		c.Model.Endpoints = other.Model.Endpoints
	}

	if other.Wikidata.BaseURL != "" {
		c.Wikidata.BaseURL = other.Wikidata.BaseURL
	}
	if other.Wikidata.Language != "" {
		c.Wikidata.Language = other.Wikidata.Language
	}
	if other.Wikidata.Limit != 0 {
		c.Wikidata.Limit = other.Wikidata.Limit
	}
	if other.Wikidata.Timeout != 0 {
		c.Wikidata.Timeout = other.Wikidata.Timeout
	}
	if other.Wikidata.UserAgent != "" {
		c.Wikidata.UserAgent = other.Wikidata.UserAgent
	}

	if other.Linker.MaxIterations != 0 {
		c.Linker.MaxIterations = other.Linker.MaxIterations
	}
	if other.Linker.Heuristic {
		c.Linker.Heuristic = true
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	if len(other.Scan.Excludes) > 0 {
		c.Scan.Excludes = other.Scan.Excludes
	}
}

// Registry builds a model registry from the configured capabilities and
// endpoints, falling back to a single-endpoint registry around the default
// model.
func (c *Config) Registry() *model.Registry {
	reg := model.NewRegistry(nil, nil)
	reg.SetDefault(c.Model.Default)

	if len(c.Model.Endpoints) > 0 {
		for name, ep := range c.Model.Endpoints {
			epCopy := ep
			reg.SetEndpoint(name, &epCopy)
		}
		for capName, capCfg := range c.Model.Capabilities {
			capability := model.ParseCapability(capName)
			if capability == "" {
				continue
			}
			cfgCopy := capCfg
			reg.SetCapability(capability, &cfgCopy)
		}
		return reg
	}

	reg.SetEndpoint(c.Model.Default, &model.EndpointConfig{
		Provider: c.Model.Provider,
		URL:      c.Model.Endpoint,
		Model:    c.Model.Default,
	})
	for _, capability := range []model.Capability{
		model.CapabilityPropose,
		model.CapabilityEvaluate,
		model.CapabilityFast,
	} {
		reg.SetCapability(capability, &model.CapabilityConfig{
			Preferred: []string{c.Model.Default},
		})
	}
	return reg
}
