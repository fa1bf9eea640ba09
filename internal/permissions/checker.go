package permissions

import (
	"context"

	apperrors "github.com/veilbox-dev/veilbox/internal/application/errors"
	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// Checker is the assertion surface host operations use at their call sites:
// it answers "may I do this right now" with nil or a typed denial, rather
// than exposing the observable status object.
type Checker struct {
	service *Service
}

// NewChecker creates a checker over the given service.
func NewChecker(service *Service) *Checker {
	return &Checker{service: service}
}

// Require returns nil iff the capability named by the descriptor is
// currently granted. A prompt state counts as a denial here: call sites
// must not trigger interactive escalation mid-operation.
func (c *Checker) Require(ctx context.Context, d permissions.Descriptor) error {
	status, err := c.service.Query(ctx, d)
	if err != nil {
		return err
	}
	if state := status.State(); !state.IsGranted() {
		return apperrors.NewDeniedError(d, state)
	}
	return nil
}

// RequireRead asserts read access to a path.
func (c *Checker) RequireRead(ctx context.Context, path string) error {
	return c.Require(ctx, permissions.Descriptor{Kind: permissions.KindRead, Path: path})
}

// RequireWrite asserts write access to a path.
func (c *Checker) RequireWrite(ctx context.Context, path string) error {
	return c.Require(ctx, permissions.Descriptor{Kind: permissions.KindWrite, Path: path})
}

// RequireNet asserts network access to a host.
func (c *Checker) RequireNet(ctx context.Context, host string) error {
	return c.Require(ctx, permissions.Descriptor{Kind: permissions.KindNet, Host: host})
}

// staticAuthority reports a fixed state for every descriptor.
type staticAuthority struct {
	state permissions.State
}

func (a staticAuthority) QueryState(_ context.Context, _ permissions.Descriptor) (permissions.State, error) {
	return a.state, nil
}

func (a staticAuthority) RequestState(_ context.Context, _ permissions.Descriptor) (permissions.State, error) {
	return a.state, nil
}

func (a staticAuthority) RevokeState(_ context.Context, _ permissions.Descriptor) (permissions.State, error) {
	return permissions.StateDenied, nil
}

// NewAllowAllChecker returns a checker whose authority grants everything.
// Useful for tests and for embedding contexts that run fully trusted.
func NewAllowAllChecker() *Checker {
	return NewChecker(NewService(staticAuthority{state: permissions.StateGranted}))
}
