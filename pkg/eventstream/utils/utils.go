// Package eventstreamutils constructs eventstream publishers from
// configuration.
package eventstreamutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/eventstream"
	"github.com/atmoslabs/atmos/pkg/eventstream/kafka"
	"github.com/atmoslabs/atmos/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *zap.Logger
}

// NewPublisher builds a publisher from the closed set of supported
// providers. An empty provider disables event publishing.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", o.ProviderType)
	}
}
