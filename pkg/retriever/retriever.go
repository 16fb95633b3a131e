// Package retriever turns a natural-language question into ranked documents
// by embedding the question and querying the vector store.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anycompanyretail/shopbot/pkg/embeddings"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

// ErrRetrieval is returned when the retrieval pipeline fails.
var ErrRetrieval = errors.New("document retrieval failed")

const defaultTopK = 7

// Retriever embeds queries and fetches the most similar documents.
type Retriever struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	topK     int
	logger   *slog.Logger
}

// Config holds configuration for the retriever.
type Config struct {
	// TopK is the number of documents returned per query.
	// Defaults to 7 if zero.
	TopK int
}

// New creates a retriever over the given embedder and vector driver.
func New(embedder embeddings.Embedder, driver vector.Driver, cfg Config, logger *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retriever requires an embedder")
	}
	if driver == nil {
		return nil, errors.New("retriever requires a vector driver")
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	return &Retriever{
		embedder: embedder,
		driver:   driver,
		topK:     topK,
		logger:   logger,
	}, nil
}

// TopK returns the configured number of documents per query.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns the topK documents most similar to the query, ordered by
// descending similarity. Failures in embedding or the store are wrapped in
// ErrRetrieval.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vector.Document, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRetrieval, err)
	}

	results, err := r.driver.Query(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: querying store: %v", ErrRetrieval, err)
	}

	docs := make([]vector.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, res.Document)
	}

	r.logger.Debug("retrieved documents", "query_len", len(query), "count", len(docs))

	return docs, nil
}
