// Package model provides capability-based model selection for the linker.
// Loop components specify capabilities (propose, evaluate) rather than model
// names; the registry resolves them to configured endpoints with fallback
// chains and per-endpoint health tracking.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityPropose is for generating short search queries from context.
	CapabilityPropose Capability = "propose"

	// CapabilityEvaluate is for judging search hits against the target concept.
	CapabilityEvaluate Capability = "evaluate"

	// CapabilityFast is for quick auxiliary tasks.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityPropose, CapabilityEvaluate, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// invalid values.
func ParseCapability(s string) Capability {
	c := Capability(s)
	if c.IsValid() {
		return c
	}
	return ""
}
