package eventstream

import "context"

// Publisher publishes ingestion and answer events to an event stream
// backend.
type Publisher interface {
	PublishDocumentIngested(ctx context.Context, event *DocumentIngestedEvent) error
	PublishDocumentDeleted(ctx context.Context, event *DocumentDeletedEvent) error
	PublishAnswerComposed(ctx context.Context, event *AnswerComposedEvent) error
	Close() error
}
