package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgUnknownEventType = "unknown event type"
	ErrMsgTransport        = "transport failure"
	ErrMsgRejected         = "rejected by remote service"
	ErrMsgStoreUnavailable = "local store unavailable"
	ErrMsgNotInitialized   = "engine not initialized"
	ErrMsgInvalidInput     = "invalid input"
)

// Common domain errors
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for context;
// callers branch with errors.Is.
var (
	// ErrUnknownEventType is a programmer error: the event type is not a
	// member of the closed set. It is never queued.
	ErrUnknownEventType = errors.New(ErrMsgUnknownEventType)

	// ErrTransport marks a recoverable delivery failure (no connectivity,
	// DNS, timeout). The caller should queue the event.
	ErrTransport = errors.New(ErrMsgTransport)

	// ErrRejected marks an authoritative rejection. Retrying would loop
	// forever, so the caller must not requeue.
	ErrRejected = errors.New(ErrMsgRejected)

	ErrStoreUnavailable = errors.New(ErrMsgStoreUnavailable)
	ErrNotInitialized   = errors.New(ErrMsgNotInitialized)
	ErrInvalidInput     = errors.New(ErrMsgInvalidInput)
)
