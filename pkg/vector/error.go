package vector

import "errors"

var (
	// ErrNotFound is returned when the store holds no document with the
	// requested id.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding is returned when a query or document cannot be embedded.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the store itself is unreachable or
	// rejects the connection.
	ErrConnection = errors.New("vector store connection failed")
)
