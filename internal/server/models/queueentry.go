// Package models defines server-side data models persisted in the database
// and the ephemeral upload-ticket types handed to clients.
package models

import "time"

// Queue entry states. Transitions are one-way: pending -> imported.
const (
	StatePending  = "pending"
	StateImported = "imported"
)

// QueueEntry is the durable record of a completed direct upload awaiting
// ingestion by the owning application.
type QueueEntry struct {
	// ID is the server-assigned identifier of the record.
	ID string
	// UUID matches the upload ticket the client used. Globally unique,
	// immutable, and the replay-protection anchor for completion reports.
	UUID string
	// Owner weakly references the business entity the upload belongs to.
	Owner OwnerRef
	// Filename is the client-reported original file name.
	Filename string
	// ContentType is the client-reported MIME type.
	ContentType string
	// PublicURL is the storage location the client uploaded to.
	PublicURL string
	// PrivateURL is the authenticated retrieval location the owning app uses
	// for ingestion. Set once at creation, never recomputed.
	PrivateURL string
	// State is pending until the owning app marks the entry imported.
	State string

	CreatedAt  time.Time
	ImportedAt *time.Time
}

// OwnerRef is a tagged, weak reference to a parent business entity plus an
// optional named-attribute slot distinguishing multiple upload attachments.
type OwnerRef struct {
	Type string
	ID   string
	Slot string
}

// Zero reports whether the reference is empty (entry not attached to any owner).
func (r OwnerRef) Zero() bool {
	return r.Type == "" && r.ID == ""
}
