// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// AuthorityError indicates the external authority failed to produce a state
// for a descriptor. The core never masks or retries these: a silently
// defaulted permission decision would hide an authority outage.
type AuthorityError struct {
	Cause      error
	Operation  string // query, request, revoke
	Descriptor permissions.Descriptor
}

func (e *AuthorityError) Error() string {
	return fmt.Sprintf("authority %s failed for %s: %v", e.Operation, e.Descriptor.String(), e.Cause)
}

func (e *AuthorityError) Unwrap() error {
	return e.Cause
}

// NewAuthorityError creates a new authority error.
func NewAuthorityError(operation string, d permissions.Descriptor, cause error) *AuthorityError {
	return &AuthorityError{
		Operation:  operation,
		Descriptor: d,
		Cause:      cause,
	}
}

// PolicyError indicates a policy rule could not be evaluated (bad scope
// pattern, condition compile or evaluation failure).
type PolicyError struct {
	Cause   error
	Rule    string
	Message string
}

func (e *PolicyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("policy error in rule %q: %s: %v", e.Rule, e.Message, e.Cause)
	}
	return fmt.Sprintf("policy error in rule %q: %s", e.Rule, e.Message)
}

func (e *PolicyError) Unwrap() error {
	return e.Cause
}

// NewPolicyError creates a new policy error.
func NewPolicyError(rule, message string, cause error) *PolicyError {
	return &PolicyError{
		Rule:    rule,
		Message: message,
		Cause:   cause,
	}
}

// DeniedError indicates a capability required by a call site is not
// currently granted.
type DeniedError struct {
	Descriptor permissions.Descriptor
	State      permissions.State
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission %s is %s, run again with the capability granted", e.Descriptor.String(), e.State)
}

// NewDeniedError creates a new denial error.
func NewDeniedError(d permissions.Descriptor, state permissions.State) *DeniedError {
	return &DeniedError{Descriptor: d, State: state}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}
