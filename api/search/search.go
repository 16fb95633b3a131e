// Package search provides shared types and logic for semantic product
// search over the catalog. It is used by both the REST API endpoint and the
// MCP server tool.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anycompanyretail/shopbot/pkg/embeddings"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

// DefaultTopK is the result count when a request does not specify one.
const DefaultTopK = 5

// Input represents the arguments for a search request.
type Input struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Result represents a single matching product document.
type Result struct {
	ID       string            `json:"id"`
	Score    float32           `json:"score"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Output represents the output of a search operation.
type Output struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}

// Search embeds the query text and returns the most similar catalog
// documents.
func Search(
	ctx context.Context,
	query string,
	topK int,
	embedder embeddings.Embedder,
	driver vector.Driver,
	logger *slog.Logger,
) (*Output, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	logger.Debug("search request", "query", query, "top_k", topK)

	queryEmbedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := driver.Query(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	searchResults := make([]Result, 0, len(results))
	for _, result := range results {
		searchResults = append(searchResults, Result{
			ID:       result.Document.ID,
			Score:    result.Score,
			Text:     result.Document.Text,
			Metadata: result.Document.Metadata,
		})
	}

	return &Output{
		Query:   query,
		Results: searchResults,
		Count:   len(searchResults),
	}, nil
}
