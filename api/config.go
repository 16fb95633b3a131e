// Package api provides the HTTP API server for the shopbot assistant:
// chat turns, session transcripts, and product search.
package api

import (
	"github.com/anycompanyretail/shopbot/pkg/embeddings"
	"github.com/anycompanyretail/shopbot/pkg/eventstream"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// VectorDriver and Embedder enable the product search endpoint and the
	// MCP search tool. Search returns 503 when either is nil.
	VectorDriver vector.Driver
	Embedder     embeddings.Embedder

	// Publisher receives an event per completed exchange. Nil disables
	// publishing.
	Publisher eventstream.Publisher

	// Provider, Model and Mode annotate published exchange events.
	Provider string
	Model    string
	Mode     string

	// Greeting is the seed restored by the clear endpoint when the request
	// does not carry its own.
	Greeting string
}
