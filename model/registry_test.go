package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapability(t *testing.T) {
	assert.Equal(t, CapabilityPropose, ParseCapability("propose"))
	assert.Equal(t, CapabilityEvaluate, ParseCapability("evaluate"))
	assert.Equal(t, CapabilityFast, ParseCapability("fast"))
	assert.Equal(t, Capability(""), ParseCapability("summarize"))
	assert.Equal(t, Capability(""), ParseCapability(""))
}

func TestDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry()

	assert.Equal(t, "gpt-4o-mini", reg.Resolve(CapabilityPropose))
	assert.Equal(t, "gpt-4o-mini", reg.Resolve(CapabilityEvaluate))

	chain := reg.GetFallbackChain(CapabilityPropose)
	assert.Equal(t, []string{"gpt-4o-mini", "qwen"}, chain)

	ep := reg.GetEndpoint("qwen")
	require.NotNil(t, ep)
	assert.Equal(t, "ollama", ep.Provider)
	assert.Equal(t, "qwen2.5:14b", ep.Model)

	assert.Nil(t, reg.GetEndpoint("unknown"))
}

func TestResolve_UnknownCapabilityUsesDefault(t *testing.T) {
	reg := NewRegistry(nil, nil)
	reg.SetDefault("fallback-model")

	assert.Equal(t, "fallback-model", reg.Resolve(CapabilityPropose))
	assert.Equal(t, []string{"fallback-model"}, reg.GetFallbackChain(CapabilityPropose))
}

func TestSetCapabilityAndEndpoint(t *testing.T) {
	reg := NewRegistry(nil, nil)
	reg.SetEndpoint("local", &EndpointConfig{Provider: "ollama", Model: "qwen2.5:14b"})
	reg.SetCapability(CapabilityEvaluate, &CapabilityConfig{
		Preferred: []string{"local"},
		Fallback:  []string{"remote"},
	})

	assert.Equal(t, "local", reg.Resolve(CapabilityEvaluate))
	assert.Equal(t, []string{"local", "remote"}, reg.GetFallbackChain(CapabilityEvaluate))
	assert.Contains(t, reg.ListEndpoints(), "local")
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	reg := NewRegistry(nil, nil)

	assert.True(t, reg.IsEndpointAvailable("ep"), "untracked endpoints are available")

	reg.MarkEndpointFailure("ep")
	reg.MarkEndpointFailure("ep")
	assert.True(t, reg.IsEndpointAvailable("ep"), "below threshold")

	reg.MarkEndpointFailure("ep")
	assert.False(t, reg.IsEndpointAvailable("ep"), "circuit open at threshold")

	health := reg.GetEndpointHealth("ep")
	require.NotNil(t, health)
	assert.True(t, health.CircuitOpen)
	assert.Equal(t, 3, health.FailureCount)
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	reg := NewRegistry(nil, nil)
	for i := 0; i < 3; i++ {
		reg.MarkEndpointFailure("ep")
	}
	require.False(t, reg.IsEndpointAvailable("ep"))

	reg.MarkEndpointSuccess("ep")
	assert.True(t, reg.IsEndpointAvailable("ep"))

	health := reg.GetEndpointHealth("ep")
	require.NotNil(t, health)
	assert.False(t, health.CircuitOpen)
	assert.Equal(t, 0, health.FailureCount)
}

func TestCircuitBreaker_HalfOpenAfterRecoveryTimeout(t *testing.T) {
	reg := NewRegistry(nil, nil)
	reg.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	reg.MarkEndpointFailure("ep")
	require.False(t, reg.IsEndpointAvailable("ep"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, reg.IsEndpointAvailable("ep"), "half-open after recovery timeout")
}

func TestGetAvailableFallbackChain(t *testing.T) {
	reg := NewRegistry(nil, nil)
	reg.SetCapability(CapabilityPropose, &CapabilityConfig{
		Preferred: []string{"a"},
		Fallback:  []string{"b"},
	})

	assert.Equal(t, []string{"a", "b"}, reg.GetAvailableFallbackChain(CapabilityPropose))

	for i := 0; i < 3; i++ {
		reg.MarkEndpointFailure("a")
	}
	assert.Equal(t, []string{"b"}, reg.GetAvailableFallbackChain(CapabilityPropose))

	// With every endpoint down the full chain comes back.
	for i := 0; i < 3; i++ {
		reg.MarkEndpointFailure("b")
	}
	assert.Equal(t, []string{"a", "b"}, reg.GetAvailableFallbackChain(CapabilityPropose))
}
