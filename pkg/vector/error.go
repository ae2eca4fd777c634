package vector

import "errors"

var (
	// ErrNotFound is returned when an entry is not found in the vector store.
	ErrNotFound = errors.New("entry not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrInvalidArgument is returned for caller mistakes such as a
	// non-positive topK. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch is returned when an embedding's dimension does
	// not match the index configuration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorruption marks an index that has drifted from the chunk
	// store. Repair is scoped to the affected document.
	ErrIndexCorruption = errors.New("index out of sync with chunk store")
)
