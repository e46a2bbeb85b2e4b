package models

import "time"

// SignedPolicy is the form-field bundle a browser submits to the storage
// backend's POST endpoint. Fields always include the exact object key, the
// server-side-encryption directive, the ACL, and the signature material.
type SignedPolicy struct {
	// URL is the backend endpoint the form must be posted to.
	URL string
	// Fields are the form fields, submitted verbatim before the file part.
	Fields map[string]string
}

// UploadTicket is an ephemeral authorization to upload one object. It is
// never persisted: a ticket that is never used leaves no trace.
type UploadTicket struct {
	// UUID is the ticket identifier; the completion report must echo it.
	UUID string
	// Key is the exact object key the policy is scoped to.
	Key string
	// Policy is the signed form-field bundle.
	Policy *SignedPolicy
	// ExpiresAt is when the policy stops being accepted by the backend.
	ExpiresAt time.Time
}
