// Package ports defines the interfaces between the permission core and its
// infrastructure collaborators.
package ports

import (
	"context"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// Authority is the external decision maker for capability authorization.
// The core treats it as an opaque oracle: it trusts returned states
// completely and propagates its errors unmodified. All three calls are
// synchronous and take an already validated descriptor.
type Authority interface {
	// QueryState observes the current authorized state without changing it.
	QueryState(ctx context.Context, d permissions.Descriptor) (permissions.State, error)

	// RequestState may prompt for or escalate authorization and returns the
	// resulting state.
	RequestState(ctx context.Context, d permissions.Descriptor) (permissions.State, error)

	// RevokeState downgrades authorization and returns the resulting state,
	// typically denied.
	RevokeState(ctx context.Context, d permissions.Descriptor) (permissions.State, error)
}

// GrantStore provides persistence for remembered capability grants.
type GrantStore interface {
	// Load retrieves all remembered grants. Returns an empty slice (not an
	// error) if no grants have been persisted yet.
	Load() ([]permissions.Descriptor, error)

	// Save persists the remembered grants.
	Save(grants []permissions.Descriptor) error

	// ConfigPath returns the path to the backing store (for user messaging).
	ConfigPath() string
}

// Prompter asks the user whether a capability in the prompt state should be
// escalated to granted.
type Prompter interface {
	// IsInteractive reports whether prompting is possible at all.
	IsInteractive() bool

	// PromptForDescriptor asks the user to allow a capability. The always
	// result indicates the decision should be persisted.
	PromptForDescriptor(d permissions.Descriptor) (granted bool, always bool, err error)
}
