package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

const upsertClassificationSQL = `
	INSERT INTO topic_classifications (
		topic_text, main_topic, specific_focus, confidence,
		classified_by, classified_at, cost
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(topic_text) DO UPDATE SET
		main_topic = excluded.main_topic,
		specific_focus = excluded.specific_focus,
		confidence = excluded.confidence,
		classified_by = excluded.classified_by,
		classified_at = excluded.classified_at,
		cost = topic_classifications.cost + excluded.cost`

func upsertClassificationArgs(c *plenary.TopicClassification) []any {
	return []any{
		strings.TrimSpace(c.TopicText),
		c.MainTopic,
		nullString(c.SpecificFocus),
		c.Confidence,
		c.ClassifiedBy,
		c.ClassifiedAt,
		c.Cost,
	}
}

// UpsertTopicClassification inserts or replaces the classification row for
// one distinct trimmed topic. Cost accumulates across reclassifications.
func (s *Store) UpsertTopicClassification(ctx context.Context, c plenary.TopicClassification) error {
	return s.execWithRetry(ctx, upsertClassificationSQL, upsertClassificationArgs(&c)...)
}

// GetTopicClassification loads the classification row for a trimmed topic.
func (s *Store) GetTopicClassification(ctx context.Context, topicText string) (*plenary.TopicClassification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT topic_text, main_topic, COALESCE(specific_focus, ''), confidence,
			COALESCE(classified_by, ''), classified_at, cost
		FROM topic_classifications
		WHERE topic_text = ?`, strings.TrimSpace(topicText))

	var c plenary.TopicClassification
	err := row.Scan(&c.TopicText, &c.MainTopic, &c.SpecificFocus, &c.Confidence,
		&c.ClassifiedBy, &c.ClassifiedAt, &c.Cost)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan topic classification: %w", err)
	}
	return &c, nil
}

const applyClassificationSQL = `
	UPDATE speeches SET
		macro_topic = ?,
		macro_specific_focus = ?,
		macro_confidence = ?,
		macro_classified_by = ?,
		macro_classified_at = ?,
		macro_classification_cost = ?
	WHERE TRIM(topic) = ?`

// ApplyClassificationToSpeeches copies a topic classification onto every
// speech whose trimmed topic equals the classification's topic text.
func (s *Store) ApplyClassificationToSpeeches(ctx context.Context, c plenary.TopicClassification) error {
	return s.execWithRetry(ctx, applyClassificationSQL,
		c.MainTopic,
		nullString(c.SpecificFocus),
		c.Confidence,
		c.ClassifiedBy,
		c.ClassifiedAt,
		c.Cost,
		strings.TrimSpace(c.TopicText),
	)
}
