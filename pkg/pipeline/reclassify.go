package pipeline

import (
	"context"
	"fmt"
)

// ReclassifyResult summarizes one reclassification sweep.
type ReclassifyResult struct {
	Topics     int     `json:"topics_count"`
	Classified int     `json:"classified_count"`
	Failed     int     `json:"failed_count"`
	Cost       float64 `json:"classification_cost"`
	DryRun     bool    `json:"dry_run"`
}

// Reclassify re-runs classification over distinct topics already present in
// the store, optionally restricted to one sitting date and capped at limit.
// Used after controlled-vocabulary upgrades. With dryRun set, the topics are
// enumerated but no model call or write happens.
func (r *Runner) Reclassify(ctx context.Context, date string, limit int, dryRun bool) (*ReclassifyResult, error) {
	counts, err := r.store.DistinctTopics(ctx, date, limit)
	if err != nil {
		return nil, fmt.Errorf("load distinct topics: %w", err)
	}

	topics := make([]string, len(counts))
	for i, tc := range counts {
		topics[i] = tc.Topic
	}
	result := &ReclassifyResult{Topics: len(topics), DryRun: dryRun}
	if dryRun || len(topics) == 0 {
		return result, nil
	}

	outcomes := r.classifier.ClassifyAll(ctx, topics)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.Failed++
			r.logger.Warn("topic reclassification failed", "topic", outcome.TopicText, "error", outcome.Err)
			continue
		}
		c := *outcome.Classification
		if err := r.store.UpsertTopicClassification(ctx, c); err != nil {
			return nil, fmt.Errorf("upsert classification %q: %w", c.TopicText, err)
		}
		if err := r.store.ApplyClassificationToSpeeches(ctx, c); err != nil {
			return nil, fmt.Errorf("apply classification %q: %w", c.TopicText, err)
		}
		result.Classified++
		result.Cost += c.Cost
	}
	return result, nil
}
