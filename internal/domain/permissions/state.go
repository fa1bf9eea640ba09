// Package permissions defines domain value objects for capability
// authorization: the capability kinds a sandboxed workload can hold, the
// descriptors callers use to name them, and the states the authority can
// report for them.
package permissions

import "fmt"

// State represents the authorization state of a capability as reported by
// the authority.
type State string

const (
	// StateGranted indicates the capability is currently authorized.
	StateGranted State = "granted"
	// StateDenied indicates the capability is currently refused.
	StateDenied State = "denied"
	// StatePrompt indicates the capability requires user confirmation
	// before it can be used.
	StatePrompt State = "prompt"
)

// Validate returns an error if the state value is invalid.
func (s State) Validate() error {
	switch s {
	case StateGranted, StateDenied, StatePrompt:
		return nil
	default:
		return fmt.Errorf("invalid permission state: %q", string(s))
	}
}

// IsGranted returns true if the state authorizes use of the capability.
func (s State) IsGranted() bool {
	return s == StateGranted
}

// String returns the string representation.
func (s State) String() string {
	return string(s)
}
