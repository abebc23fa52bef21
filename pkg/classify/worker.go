package classify

import (
	"context"
	"sync"
)

// ClassifyAll classifies every distinct topic with bounded concurrency: at
// most batchSize requests are in flight at once. Per-topic failures are
// isolated into their Outcome and never abort the batch. On context
// cancellation in-flight requests drain; topics never started are skipped.
// Outcomes preserve input order.
func (c *Classifier) ClassifyAll(ctx context.Context, topics []string) []Outcome {
	outcomes := make([]Outcome, len(topics))
	sem := make(chan struct{}, c.batchSize)
	var wg sync.WaitGroup

	for i, topic := range topics {
		if ctx.Err() != nil {
			outcomes[i] = Outcome{TopicText: topic, Err: ctx.Err()}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[idx] = c.ClassifyTopic(ctx, t)
		}(i, topic)
	}

	wg.Wait()
	return outcomes
}
