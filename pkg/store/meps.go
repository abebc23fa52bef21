package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

// UpsertMEP inserts or replaces an MEP record together with its term ranges.
func (s *Store) UpsertMEP(ctx context.Context, mep plenary.MEP) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meps (id, label, normalized_name, political_group)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				label = excluded.label,
				normalized_name = excluded.normalized_name,
				political_group = excluded.political_group`,
			mep.ID, mep.Label, mep.NormalizedName, nullString(mep.PoliticalGroup),
		); err != nil {
			return fmt.Errorf("upsert mep: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM mep_terms WHERE mep_id = ?`, mep.ID); err != nil {
			return fmt.Errorf("clear mep terms: %w", err)
		}
		for _, term := range mep.Terms {
			var end any
			if !term.End.IsZero() {
				end = term.End.Format(plenary.DateLayout)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO mep_terms (mep_id, term_start, term_end) VALUES (?, ?, ?)`,
				mep.ID, term.Start.Format(plenary.DateLayout), end,
			); err != nil {
				return fmt.Errorf("insert mep term: %w", err)
			}
		}
		return nil
	})
}

const mepCandidateSQL = `
	SELECT DISTINCT m.id, m.label, m.normalized_name, COALESCE(m.political_group, '')
	FROM meps m
	JOIN mep_terms t ON t.mep_id = m.id
	WHERE %s
		AND t.term_start <= ?
		AND (t.term_end IS NULL OR t.term_end >= ?)
	ORDER BY m.id`

func (s *Store) mepCandidates(ctx context.Context, where string, date time.Time, args ...any) ([]plenary.MEP, error) {
	day := date.Format(plenary.DateLayout)
	args = append(args, day, day)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(mepCandidateSQL, where), args...)
	if err != nil {
		return nil, fmt.Errorf("query mep candidates: %w", err)
	}
	defer rows.Close()

	var meps []plenary.MEP
	for rows.Next() {
		var m plenary.MEP
		if err := rows.Scan(&m.ID, &m.Label, &m.NormalizedName, &m.PoliticalGroup); err != nil {
			return nil, fmt.Errorf("scan mep: %w", err)
		}
		meps = append(meps, m)
	}
	return meps, rows.Err()
}

// MEPCandidatesByName returns MEPs whose normalized name matches exactly and
// whose mandate covers the given date.
func (s *Store) MEPCandidatesByName(ctx context.Context, normalized string, date time.Time) ([]plenary.MEP, error) {
	return s.mepCandidates(ctx, "m.normalized_name = ?", date, normalized)
}

// MEPCandidatesBySurname returns MEPs whose normalized name ends with the
// given surname (on a word boundary) and whose mandate covers the date.
// Used by the surname-only fallback policy.
func (s *Store) MEPCandidatesBySurname(ctx context.Context, surname string, date time.Time) ([]plenary.MEP, error) {
	return s.mepCandidates(ctx, "(m.normalized_name = ? OR m.normalized_name LIKE '% ' || ?)", date, surname, surname)
}
