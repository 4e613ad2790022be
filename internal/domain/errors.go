package domain

import "errors"

var (
	// ErrNotFound reports a missing row or key. Callers that treat absence
	// as a normal negative answer (like status, bookmarks) never see it.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable reports that profile storage could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageCorrupt reports a stored value that cannot be decoded.
	// Engagement code recovers from it by resetting to an empty default.
	ErrStorageCorrupt = errors.New("storage corrupt")

	// ErrRemoteTransport reports a failed read or write against the remote store.
	ErrRemoteTransport = errors.New("remote transport error")

	// ErrInvalidInput reports a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
