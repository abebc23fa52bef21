package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

// UpsertSitting inserts or replaces a sitting by id. An explicit ON CONFLICT
// update is used instead of INSERT OR REPLACE so the row identity survives
// and cascade deletes do not fire on re-ingest.
func (s *Store) UpsertSitting(ctx context.Context, sitting plenary.Sitting) error {
	return s.execWithRetry(ctx, `
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
	)
}

// GetSitting loads a sitting by id. Returns ErrNotFound when absent.
func (s *Store) GetSitting(ctx context.Context, id string) (*plenary.Sitting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, activity_date, label, COALESCE(raw_document, ''), ingested_at
		FROM sittings WHERE id = ?`, id)

	var sitting plenary.Sitting
	var date string
	if err := row.Scan(&sitting.ID, &date, &sitting.Label, &sitting.RawDocument, &sitting.IngestedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan sitting: %w", err)
	}
	parsed, err := time.Parse(plenary.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse activity date %q: %w", date, err)
	}
	sitting.ActivityDate = parsed
	return &sitting, nil
}

// KnownSittingDates returns the set of activity dates already ingested,
// keyed by their YYYY-MM-DD form.
func (s *Store) KnownSittingDates(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT activity_date FROM sittings`)
	if err != nil {
		return nil, fmt.Errorf("query sitting dates: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan sitting date: %w", err)
		}
		known[date] = struct{}{}
	}
	return known, rows.Err()
}

// PruneRawDocument drops the stored raw document for a sitting. The parsed
// rows remain authoritative; the raw markup is only kept for reprocessing.
func (s *Store) PruneRawDocument(ctx context.Context, sittingID string) error {
	return s.execWithRetry(ctx, `UPDATE sittings SET raw_document = NULL WHERE id = ?`, sittingID)
}
