// Package embeddings turns text into vectors for semantic product search.
package embeddings

import "context"

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	// Embed returns the vector representation of text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
