package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

// IngestSitting persists one sitting in a single transactional burst: the
// sitting row, its speeches (replacing any previous ingest of the same
// date), every successful topic classification, the classification columns
// on the matching speeches, and the MEP links. Either everything lands or
// nothing does.
func (s *Store) IngestSitting(
	ctx context.Context,
	sitting plenary.Sitting,
	speeches []plenary.Speech,
	classifications []plenary.TopicClassification,
	links map[string]string,
) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sittings (id, activity_date, label, raw_document, ingested_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				activity_date = excluded.activity_date,
				label = excluded.label,
				raw_document = excluded.raw_document,
				ingested_at = excluded.ingested_at`,
			sitting.ID,
			sitting.ActivityDate.Format(plenary.DateLayout),
			sitting.Label,
			nullString(sitting.RawDocument),
			sitting.IngestedAt,
		); err != nil {
			return fmt.Errorf("upsert sitting: %w", err)
		}

		// Re-ingest replaces the previous speech rows wholesale so
		// speech_order stays a contiguous 0..N-1 sequence.
		if _, err := tx.ExecContext(ctx, `DELETE FROM speeches WHERE sitting_id = ?`, sitting.ID); err != nil {
			return fmt.Errorf("clear speeches: %w", err)
		}
		if err := insertSpeechesTx(ctx, tx, speeches); err != nil {
			return err
		}

		for i := range classifications {
			c := &classifications[i]
			if _, err := tx.ExecContext(ctx, upsertClassificationSQL, upsertClassificationArgs(c)...); err != nil {
				return fmt.Errorf("upsert classification %q: %w", c.TopicText, err)
			}
			if _, err := tx.ExecContext(ctx, applyClassificationSQL,
				c.MainTopic,
				nullString(c.SpecificFocus),
				c.Confidence,
				c.ClassifiedBy,
				c.ClassifiedAt,
				c.Cost,
				strings.TrimSpace(c.TopicText),
			); err != nil {
				return fmt.Errorf("apply classification %q: %w", c.TopicText, err)
			}
		}

		for speechID, mepID := range links {
			if _, err := tx.ExecContext(ctx, `UPDATE speeches SET mep_id = ? WHERE id = ?`, mepID, speechID); err != nil {
				return fmt.Errorf("link mep %s: %w", mepID, err)
			}
		}
		return nil
	})
}
