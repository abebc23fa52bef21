// Package nop provides a no-op eventstream publisher used for tests and
// when no event backend is configured.
package nop

import (
	"context"

	"github.com/openhemicycle/hemicycle/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSittingIngested validates input and otherwise does nothing.
func (p *Publisher) PublishSittingIngested(_ context.Context, event *eventstream.SittingIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
