// Package common defines shared constants and sentinel errors used across
// the sync engine layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Remote fetch errors. The reconciler prunes a path from the master
	// index only on ErrNotFound or ErrCorrupt, never on other failures.
	ErrNotFound     = errors.New("not found")
	ErrCorrupt      = errors.New("corrupt object")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLegacyFormat marks an old-format record the caller must skip.
	ErrLegacyFormat = errors.New("legacy record format")

	// Session errors.
	ErrSessionNotReady = errors.New("session not ready")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidToken    = errors.New("invalid token")

	// Local store errors.
	ErrStoreClosed = errors.New("store closed")

	ErrInternal = errors.New("internal error")
)
