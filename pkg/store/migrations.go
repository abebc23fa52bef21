package store

import (
	"context"
	"fmt"
	"strings"
)

// baseSchema creates the core tables. CREATE TABLE IF NOT EXISTS keeps the
// statements idempotent across runs.
const baseSchema = `
CREATE TABLE IF NOT EXISTS sittings (
	id TEXT PRIMARY KEY,
	activity_date TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL DEFAULT '',
	raw_document TEXT,
	ingested_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS speeches (
	id TEXT PRIMARY KEY,
	sitting_id TEXT NOT NULL REFERENCES sittings(id) ON DELETE CASCADE,
	speech_order INTEGER NOT NULL,
	speaker_name TEXT,
	political_group_raw TEXT,
	political_group_std TEXT,
	political_group_kind TEXT,
	language TEXT,
	topic TEXT,
	speech_content TEXT,
	mep_id TEXT,
	UNIQUE (sitting_id, speech_order)
);

CREATE INDEX IF NOT EXISTS idx_speeches_sitting ON speeches(sitting_id);
CREATE INDEX IF NOT EXISTS idx_speeches_topic ON speeches(topic);

CREATE TABLE IF NOT EXISTS topic_classifications (
	topic_text TEXT PRIMARY KEY,
	main_topic TEXT NOT NULL,
	specific_focus TEXT,
	confidence REAL NOT NULL DEFAULT 0,
	classified_by TEXT,
	classified_at INTEGER NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS meps (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	political_group TEXT
);

CREATE INDEX IF NOT EXISTS idx_meps_normalized ON meps(normalized_name);

CREATE TABLE IF NOT EXISTS mep_terms (
	mep_id TEXT NOT NULL REFERENCES meps(id) ON DELETE CASCADE,
	term_start TEXT NOT NULL,
	term_end TEXT
);
`

// columnMigrations are the ADD COLUMN evolutions applied after the base
// schema. Duplicate-column failures are ignored so repeated runs are no-ops;
// ADD COLUMN is the only permitted schema evolution.
var columnMigrations = []string{
	"ALTER TABLE speeches ADD COLUMN macro_topic TEXT",
	"ALTER TABLE speeches ADD COLUMN macro_specific_focus TEXT",
	"ALTER TABLE speeches ADD COLUMN macro_confidence REAL",
	"ALTER TABLE speeches ADD COLUMN macro_classified_by TEXT",
	"ALTER TABLE speeches ADD COLUMN macro_classified_at INTEGER",
	"ALTER TABLE speeches ADD COLUMN macro_classification_cost REAL",
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, baseSchema); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}
	for _, stmt := range columnMigrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return fmt.Errorf("apply migration %q: %w", stmt, err)
		}
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
