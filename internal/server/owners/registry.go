// Package owners resolves polymorphic owner references against the host
// application. Owner types are registered once at startup with a lookup and
// an authorization callback; runtime type inspection is never used.
package owners

import (
	"context"
	"fmt"

	"github.com/A1iAshoor/s3-relay/internal/common"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
)

// Ingestible is the optional capability an owning entity implements to be
// notified when a queue entry is created for it.
type Ingestible interface {
	ImportUpload(ctx context.Context, queueEntryID string) error
}

// LookupFunc fetches an owning entity by id.
type LookupFunc func(ctx context.Context, id string) (any, error)

// AuthorizeFunc decides whether the acting principal may attach uploads to
// the referenced owner.
type AuthorizeFunc func(ctx context.Context, actorID string, ref models.OwnerRef) error

// Registration wires one owner type into the registry. A nil Authorize
// means any authenticated actor may attach uploads to owners of this type.
type Registration struct {
	Lookup    LookupFunc
	Authorize AuthorizeFunc
}

// Registry maps owner-type names to their registrations. Register all types
// during startup; the registry is read-only afterwards and needs no locking.
type Registry struct {
	types map[string]Registration
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Registration)}
}

func (r *Registry) Register(typeName string, reg Registration) {
	r.types[typeName] = reg
}

// Resolve returns the owning entity referenced by ref.
func (r *Registry) Resolve(ctx context.Context, ref models.OwnerRef) (any, error) {
	reg, ok := r.types[ref.Type]
	if !ok || reg.Lookup == nil {
		return nil, fmt.Errorf("%w: owner type %q is not registered", common.ErrNotFound, ref.Type)
	}
	owner, err := reg.Lookup(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("owner lookup failed: %w", err)
	}
	return owner, nil
}

// Authorize checks the capability context for attaching an upload to ref.
// An empty reference is always permitted (the entry is simply unattached);
// an unregistered owner type is rejected because nobody can vouch for it.
func (r *Registry) Authorize(ctx context.Context, actorID string, ref models.OwnerRef) error {
	if ref.Zero() {
		return nil
	}
	reg, ok := r.types[ref.Type]
	if !ok {
		return fmt.Errorf("%w: owner type %q is not registered", common.ErrOwnerUnauthorized, ref.Type)
	}
	if reg.Authorize == nil {
		return nil
	}
	if err := reg.Authorize(ctx, actorID, ref); err != nil {
		return fmt.Errorf("%w: %v", common.ErrOwnerUnauthorized, err)
	}
	return nil
}
