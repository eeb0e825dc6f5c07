package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable. The feedback stage degrades to
	// pass-through without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the finding store cannot be reached
	// at all. Local filter stages still run without it.
	ErrStoreUnavailable = errors.New("finding store unavailable")

	// ErrNotPublished indicates an operation that requires an external
	// comment was attempted on an unpublished finding.
	ErrNotPublished = errors.New("finding not published")
)
