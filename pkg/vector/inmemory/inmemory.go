// Package inmemory provides a process-local vector driver using brute-force
// cosine similarity. Intended for development and small catalogs.
package inmemory

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/anycompanyretail/shopbot/pkg/vector"
)

// Driver implements vector.Driver with an in-process map.
type Driver struct {
	mu     sync.RWMutex
	docs   map[string]vector.Document
	logger *slog.Logger
}

// NewDriver creates a new in-memory vector driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{
		docs:   make(map[string]vector.Document),
		logger: logger,
	}
}

// Add stores documents with their embeddings, replacing any existing
// documents with the same ID.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, doc := range docs {
		d.docs[doc.ID] = doc
	}

	d.logger.Debug("added documents to in-memory store", "count", len(docs))
	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.docs))
	for _, doc := range d.docs {
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		doc, ok := d.docs[id]
		if !ok {
			return nil, vector.ErrNotFound
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes documents by their IDs. Missing IDs are ignored.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		delete(d.docs, id)
	}

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vector.Driver = (*Driver)(nil)
