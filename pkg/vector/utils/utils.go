// Package vectorutils constructs vector drivers from configuration.
package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/vector"
	"github.com/atmoslabs/atmos/pkg/vector/memory"
	"github.com/atmoslabs/atmos/pkg/vector/qdrantvec"
	"github.com/atmoslabs/atmos/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	DBPath       string
	Host         string
	Port         int
	Collection   string
	Dimensions   uint
	Logger       *zap.Logger
}

// NewVectorDriver builds a vector driver from the closed set of supported
// providers. Provider selection happens here, through configuration, not
// by runtime plug-in lookup.
func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "memory":
		return memory.NewDriver(o.Logger), nil
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		return qdrantvec.NewDriver(ctx, qdrantvec.Config{
			Host:       o.Host,
			Port:       o.Port,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
