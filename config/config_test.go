package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlink/model"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gpt-4o-mini", cfg.Model.Default)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 3, cfg.Linker.MaxIterations)
	assert.Equal(t, 50, cfg.Wikidata.Limit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing default model", func(c *Config) { c.Model.Default = "" }},
		{"unknown provider", func(c *Config) { c.Model.Provider = "bedrock" }},
		{"temperature out of range", func(c *Config) { c.Model.Temperature = 1.5 }},
		{"missing wikidata url", func(c *Config) { c.Wikidata.BaseURL = "" }},
		{"limit too large", func(c *Config) { c.Wikidata.Limit = 100 }},
		{"zero iterations", func(c *Config) { c.Linker.MaxIterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Model:    ModelConfig{Default: "qwen2.5:14b", Provider: "ollama", Endpoint: "http://localhost:11434/v1"},
		Wikidata: WikidataConfig{Language: "de"},
		Linker:   LinkerConfig{MaxIterations: 5, Heuristic: true},
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
	})

	assert.Equal(t, "qwen2.5:14b", base.Model.Default)
	assert.Equal(t, "ollama", base.Model.Provider)
	assert.Equal(t, "de", base.Wikidata.Language)
	assert.Equal(t, 5, base.Linker.MaxIterations)
	assert.True(t, base.Linker.Heuristic)
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)

	// Untouched fields keep defaults.
	assert.Equal(t, "https://www.wikidata.org/w/api.php", base.Wikidata.BaseURL)
	assert.Equal(t, 50, base.Wikidata.Limit)

	base.Merge(nil)
	assert.Equal(t, "qwen2.5:14b", base.Model.Default)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_NATS_URL", "nats://broker:4222")

	path := filepath.Join(t.TempDir(), "semlink.yaml")
	content := `
model:
  default: qwen2.5:14b
  provider: ollama
  timeout: 30s
nats:
  url: ${TEST_NATS_URL}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:14b", cfg.Model.Default)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	// Defaults survive for unset sections.
	assert.Equal(t, "en", cfg.Wikidata.Language)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Default)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SEMLINK_TEST_KEY=abc\n"), 0644))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "abc", os.Getenv("SEMLINK_TEST_KEY"))
	t.Cleanup(func() { _ = os.Unsetenv("SEMLINK_TEST_KEY") })

	// Missing file is not an error.
	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "semlink.yaml")

	cfg := DefaultConfig()
	cfg.Model.Default = "claude-haiku"
	cfg.Model.Provider = "anthropic"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku", loaded.Model.Default)
	assert.Equal(t, "anthropic", loaded.Model.Provider)
}

func TestRegistry_SingleEndpointFallback(t *testing.T) {
	cfg := DefaultConfig()
	reg := cfg.Registry()

	for _, capability := range []model.Capability{
		model.CapabilityPropose,
		model.CapabilityEvaluate,
		model.CapabilityFast,
	} {
		assert.Equal(t, "gpt-4o-mini", reg.Resolve(capability))
	}

	ep := reg.GetEndpoint("gpt-4o-mini")
	require.NotNil(t, ep)
	assert.Equal(t, "openai", ep.Provider)
}

func TestRegistry_ExplicitEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.Endpoints = map[string]model.EndpointConfig{
		"local": {Provider: "ollama", URL: "http://localhost:11434/v1", Model: "qwen2.5:14b"},
	}
	cfg.Model.Capabilities = map[string]model.CapabilityConfig{
		"propose":  {Preferred: []string{"local"}},
		"nonsense": {Preferred: []string{"local"}},
	}

	reg := cfg.Registry()
	assert.Equal(t, "local", reg.Resolve(model.CapabilityPropose))
	// Unknown capability names are skipped; evaluate falls back to the default.
	assert.Equal(t, "gpt-4o-mini", reg.Resolve(model.CapabilityEvaluate))

	ep := reg.GetEndpoint("local")
	require.NotNil(t, ep)
	assert.Equal(t, "qwen2.5:14b", ep.Model)
}
