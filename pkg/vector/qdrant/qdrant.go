// Package qdrant provides a Qdrant-backed vector driver over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/anycompanyretail/shopbot/pkg/vector"
)

const (
	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "products"

	defaultHost = "localhost"
	defaultPort = 6334
)

// Driver implements vector.Driver against a Qdrant instance.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant gRPC address as "host:port".
	// Defaults to localhost:6334.
	Target string

	// Collection is the collection name. Defaults to DefaultCollection.
	Collection string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new Qdrant vector driver, creating the collection
// if it does not exist yet.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: creating collection: %v", vector.ErrConnection, err)
		}
	}

	logger.Info("qdrant vector driver initialized",
		"host", host,
		"port", port,
		"collection", collection,
		"dimensions", c.Dimensions,
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

func splitTarget(target string) (string, int, error) {
	if target == "" {
		return defaultHost, defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// Bare hostname, default port
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	return host, port, nil
}

// pointID derives a deterministic UUID point id from a document id.
// Qdrant only accepts UUID or integer ids, so string document ids are
// hashed into the UUID namespace and the original kept in the payload.
func pointID(docID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID)).String())
}

// Add stores documents with their embeddings.
// Upsert semantics: existing points with the same ID are replaced.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		payload := map[string]any{
			"doc_id": doc.ID,
			"text":   doc.Text,
		}
		for k, v := range doc.Metadata {
			payload["meta_"+k] = v
		}

		points = append(points, &qdrant.PointStruct{
			Id:      pointID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting points: %v", vector.ErrConnection, err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	limit := uint64(topK)
	scored, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying points: %v", vector.ErrConnection, err)
	}

	results := make([]vector.QueryResult, 0, len(scored))
	for _, point := range scored {
		results = append(results, vector.QueryResult{
			Document: documentFromPayload(point.GetPayload()),
			Score:    point.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, pointID(id))
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: getting points: %v", vector.ErrConnection, err)
	}

	if len(points) < len(ids) {
		return nil, vector.ErrNotFound
	}

	docs := make([]vector.Document, 0, len(points))
	for _, point := range points {
		doc := documentFromPayload(point.GetPayload())
		if vectors := point.GetVectors(); vectors != nil {
			if v := vectors.GetVector(); v != nil {
				doc.Embedding = v.GetData()
			}
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, pointID(id))
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelectorIDs(pointIDs),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting points: %v", vector.ErrConnection, err)
	}

	d.logger.Debug("deleted documents from qdrant", "count", len(ids))

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.client.Close()
}

func documentFromPayload(payload map[string]*qdrant.Value) vector.Document {
	doc := vector.Document{}

	var metadata map[string]string
	for k, v := range payload {
		switch {
		case k == "doc_id":
			doc.ID = v.GetStringValue()
		case k == "text":
			doc.Text = v.GetStringValue()
		case len(k) > 5 && k[:5] == "meta_":
			if metadata == nil {
				metadata = make(map[string]string)
			}
			metadata[k[5:]] = v.GetStringValue()
		}
	}
	doc.Metadata = metadata

	return doc
}

var _ vector.Driver = (*Driver)(nil)
