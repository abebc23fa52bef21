package eventstream

import "context"

// Publisher publishes sitting-ingest events to an event stream backend.
type Publisher interface {
	PublishSittingIngested(ctx context.Context, event *SittingIngestedEvent) error
	Close() error
}
