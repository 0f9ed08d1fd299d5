// Package model provides capability-based model selection for the analysis
// pipeline. Pipeline stages specify capabilities (structuring, analysis,
// revision) instead of hardcoded model names, and the registry resolves them
// to configured endpoints with fallback chains and health tracking.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityStructuring is for turning raw screenplay text into
	// structured scene data during extraction.
	CapabilityStructuring Capability = "structuring"

	// CapabilityAnalysis is for per-scene narrative and production analysis.
	CapabilityAnalysis Capability = "analysis"

	// CapabilityRevision is for feedback-guided regeneration of flagged
	// sections during review cycles.
	CapabilityRevision Capability = "revision"

	// CapabilityFast is for quick, low-stakes requests.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityStructuring, CapabilityAnalysis, CapabilityRevision, CapabilityFast:
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
