// Package common defines shared constants and sentinel errors used across
// the relay service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Signer errors (missing or malformed storage credentials).
	ErrSigning = errors.New("signing error")

	// Completion-report errors, recoverable by the client with a fresh ticket.
	ErrDuplicateUpload   = errors.New("upload already recorded")
	ErrURLMismatch       = errors.New("public url does not match provisioned key")
	ErrOwnerUnauthorized = errors.New("owner unauthorized")

	// Malformed client input (bad uuid, missing fields).
	ErrInvalidRequest = errors.New("invalid request")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
