// Package orderutils is the order store utility package
package orderutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anycompanyretail/shopbot/pkg/orders"
	"github.com/anycompanyretail/shopbot/pkg/orders/fixture"
	"github.com/anycompanyretail/shopbot/pkg/orders/postgres"
	"github.com/anycompanyretail/shopbot/pkg/orders/sqlite"
)

type NewStoreOpts struct {
	ProviderType string
	Target       string
	Logger       *slog.Logger
}

func NewStore(ctx context.Context, o *NewStoreOpts) (orders.Store, error) {
	switch o.ProviderType {
	case "fixture":
		return fixture.NewStore(), nil
	case "sqlite":
		return sqlite.NewStore(sqlite.Config{DBPath: o.Target}, o.Logger)
	case "postgres":
		return postgres.NewStore(ctx, postgres.Config{DSN: o.Target}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported orders provider: %s", o.ProviderType)
	}
}
