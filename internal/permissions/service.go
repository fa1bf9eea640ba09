package permissions

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/veilbox-dev/veilbox/internal/application/errors"
	"github.com/veilbox-dev/veilbox/internal/application/ports"
	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// Service is the sole entry point for capability authorization queries. It
// validates descriptors, consults the authority, and interns the result in
// the status cache.
//
// A process creates exactly one Service at startup and passes it to whatever
// needs a view of capability state; the cache it owns is what makes repeated
// checks for the same key resolve to the same Status.
type Service struct {
	authority ports.Authority
	cache     *statusCache
}

// NewService creates the permission service over the given authority.
func NewService(authority ports.Authority) *Service {
	return &Service{
		authority: authority,
		cache:     newStatusCache(),
	}
}

// Query observes the current state of a capability without changing it.
func (s *Service) Query(ctx context.Context, d permissions.Descriptor) (*Status, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	state, err := s.authority.QueryState(ctx, d)
	if err != nil {
		return nil, apperrors.NewAuthorityError("query", d, err)
	}

	return s.cache.resolve(d, state), nil
}

// Request asks the authority to escalate a capability, prompting the user
// if the authority supports it, and returns the resulting status.
func (s *Service) Request(ctx context.Context, d permissions.Descriptor) (*Status, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	state, err := s.authority.RequestState(ctx, d)
	if err != nil {
		return nil, apperrors.NewAuthorityError("request", d, err)
	}

	slog.Debug("permission requested", "descriptor", d.String(), "state", state.String())
	return s.cache.resolve(d, state), nil
}

// Revoke downgrades a capability and returns the resulting status.
func (s *Service) Revoke(ctx context.Context, d permissions.Descriptor) (*Status, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	state, err := s.authority.RevokeState(ctx, d)
	if err != nil {
		return nil, apperrors.NewAuthorityError("revoke", d, err)
	}

	slog.Debug("permission revoked", "descriptor", d.String(), "state", state.String())
	return s.cache.resolve(d, state), nil
}

// Preload queries a set of descriptors in parallel to warm the cache, for
// example at workload startup from a manifest. Descriptors are validated
// up front so a malformed entry fails before any authority call.
func (s *Service) Preload(ctx context.Context, descriptors []permissions.Descriptor) error {
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, d := range descriptors {
		d := d
		g.Go(func() error {
			_, err := s.Query(ctx, d)
			return err
		})
	}
	return g.Wait()
}

// CachedKeys returns the number of capability keys interned so far.
func (s *Service) CachedKeys() int {
	return s.cache.size()
}
