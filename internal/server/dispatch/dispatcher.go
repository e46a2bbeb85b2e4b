// Package dispatch notifies the owning application when a queue entry is
// created. Dispatch failures are never fatal: the entry is already durably
// committed when a dispatcher runs, and a pending entry is always drainable
// later through the queue service.
package dispatch

import (
	"context"

	"github.com/A1iAshoor/s3-relay/internal/logging"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
	"github.com/A1iAshoor/s3-relay/internal/server/owners"
)

// Dispatcher delivers creation notifications to the owning application.
type Dispatcher interface {
	NotifyCreated(ctx context.Context, owner models.OwnerRef, queueEntryID string) error
}

// RegistryDispatcher resolves the owner in-process and, when it opts into
// the Ingestible capability, invokes its import hook synchronously.
type RegistryDispatcher struct {
	registry *owners.Registry
	logger   logging.Logger
}

func NewRegistryDispatcher(r *owners.Registry, l logging.Logger) *RegistryDispatcher {
	return &RegistryDispatcher{registry: r, logger: l.With("module", "dispatch")}
}

func (d *RegistryDispatcher) NotifyCreated(ctx context.Context, owner models.OwnerRef, queueEntryID string) error {
	if owner.Zero() {
		return nil
	}

	o, err := d.registry.Resolve(ctx, owner)
	if err != nil {
		return err
	}

	ingestible, ok := o.(owners.Ingestible)
	if !ok {
		d.logger.Info(ctx, "owner does not ingest uploads", "owner_type", owner.Type)
		return nil
	}

	return ingestible.ImportUpload(ctx, queueEntryID)
}
