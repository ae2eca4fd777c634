// Package storageutils constructs storage drivers from configuration.
package storageutils

import (
	"context"
	"fmt"

	"github.com/atmoslabs/atmos/pkg/storage"
	"github.com/atmoslabs/atmos/pkg/storage/inmemory"
	"github.com/atmoslabs/atmos/pkg/storage/postgres"
	"github.com/atmoslabs/atmos/pkg/storage/sqlite"
)

type NewStorageDriverOpts struct {
	ProviderType string
	DBPath       string
	ConnString   string
}

// NewStorageDriver builds a document store from the closed set of supported
// providers.
func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case "memory":
		return inmemory.NewDriver(), nil
	case "sqlite":
		return sqlite.NewDriver(o.DBPath)
	case "postgres":
		return postgres.NewDriver(ctx, o.ConnString)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
