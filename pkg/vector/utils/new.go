// Package vectorutils is the vector store utility package
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anycompanyretail/shopbot/pkg/vector"
	"github.com/anycompanyretail/shopbot/pkg/vector/inmemory"
	"github.com/anycompanyretail/shopbot/pkg/vector/qdrant"
	"github.com/anycompanyretail/shopbot/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Target       string
	Collection   string
	Dimensions   uint
	Logger       *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "memory":
		return inmemory.NewDriver(o.Logger), nil
	case "sqlite":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:     o.Target,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
