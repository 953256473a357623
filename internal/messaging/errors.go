package messaging

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to callers. Handlers and CLI commands branch on
// these with errors.Is; everything else is wrapped detail.
var (
	// ErrValidation marks bad or missing input. Not retryable.
	ErrValidation = errors.New("messaging: validation failed")

	// ErrAuthentication marks a missing sender identity.
	ErrAuthentication = errors.New("messaging: authentication required")

	// ErrPersistence marks a storage-layer failure. The caller may retry
	// with backoff; nothing here retries internally.
	ErrPersistence = errors.New("messaging: persistence failure")

	// ErrNotFound marks a lookup miss for an explicit identifier.
	ErrNotFound = errors.New("messaging: not found")
)

// ErrInvalidMessage is a specialization of ErrValidation: a message body may
// be empty only when at least one attachment URL is present.
var ErrInvalidMessage = fmt.Errorf("%w: message needs content or an attachment", ErrValidation)
