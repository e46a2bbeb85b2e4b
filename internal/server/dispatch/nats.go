package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/A1iAshoor/s3-relay/internal/logging"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
)

// INatsConn is the slice of a NATS connection the dispatcher needs.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// CreatedEvent is the message published when a queue entry is created.
type CreatedEvent struct {
	QueueEntryID string `json:"queue_entry_id"`
	OwnerType    string `json:"owner_type,omitempty"`
	OwnerID      string `json:"owner_id,omitempty"`
	OwnerSlot    string `json:"owner_slot,omitempty"`
}

// NATSDispatcher publishes creation events for owning applications running
// out of process.
type NATSDispatcher struct {
	conn    INatsConn
	subject string
	logger  logging.Logger
}

func NewNATSDispatcher(conn INatsConn, subject string, l logging.Logger) *NATSDispatcher {
	return &NATSDispatcher{
		conn:    conn,
		subject: subject,
		logger:  l.With("module", "dispatch_nats"),
	}
}

func (d *NATSDispatcher) NotifyCreated(ctx context.Context, owner models.OwnerRef, queueEntryID string) error {
	if !d.conn.IsConnected() {
		return errors.New("nats connection is down")
	}

	event := CreatedEvent{
		QueueEntryID: queueEntryID,
		OwnerType:    owner.Type,
		OwnerID:      owner.ID,
		OwnerSlot:    owner.Slot,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal created event: %w", err)
	}

	subject := d.subject + ".created"
	if err := d.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	d.logger.Info(ctx, "published created event", "subject", subject, "queue_entry_id", queueEntryID)
	return nil
}
