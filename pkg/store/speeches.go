package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

const insertSpeechSQL = `
	INSERT INTO speeches (
		id, sitting_id, speech_order, speaker_name,
		political_group_raw, political_group_std, political_group_kind,
		language, topic, speech_content, mep_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertSpeechArgs(sp *plenary.Speech) []any {
	return []any{
		sp.ID,
		sp.SittingID,
		sp.Order,
		nullString(sp.SpeakerName),
		nullString(sp.PoliticalGroupRaw),
		nullString(sp.PoliticalGroupStd),
		nullString(sp.PoliticalGroupKind),
		nullString(sp.Language),
		sp.Topic,
		sp.Content,
		nullString(sp.MEPID),
	}
}

// InsertSpeeches atomically inserts all speeches in parser order.
func (s *Store) InsertSpeeches(ctx context.Context, speeches []plenary.Speech) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertSpeechesTx(ctx, tx, speeches)
	})
}

func insertSpeechesTx(ctx context.Context, tx *sql.Tx, speeches []plenary.Speech) error {
	stmt, err := tx.PrepareContext(ctx, insertSpeechSQL)
	if err != nil {
		return fmt.Errorf("prepare speech insert: %w", err)
	}
	defer stmt.Close()

	for i := range speeches {
		if _, err := stmt.ExecContext(ctx, insertSpeechArgs(&speeches[i])...); err != nil {
			return fmt.Errorf("insert speech %d: %w", speeches[i].Order, err)
		}
	}
	return nil
}

// SpeechesForSitting returns the speeches of one sitting in speech order.
func (s *Store) SpeechesForSitting(ctx context.Context, sittingID string) ([]plenary.Speech, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sitting_id, speech_order,
			COALESCE(speaker_name, ''), COALESCE(political_group_raw, ''),
			COALESCE(political_group_std, ''), COALESCE(political_group_kind, ''),
			COALESCE(language, ''), topic, speech_content, COALESCE(mep_id, '')
		FROM speeches
		WHERE sitting_id = ?
		ORDER BY speech_order`, sittingID)
	if err != nil {
		return nil, fmt.Errorf("query speeches: %w", err)
	}
	defer rows.Close()

	var speeches []plenary.Speech
	for rows.Next() {
		var sp plenary.Speech
		if err := rows.Scan(
			&sp.ID, &sp.SittingID, &sp.Order,
			&sp.SpeakerName, &sp.PoliticalGroupRaw,
			&sp.PoliticalGroupStd, &sp.PoliticalGroupKind,
			&sp.Language, &sp.Topic, &sp.Content, &sp.MEPID,
		); err != nil {
			return nil, fmt.Errorf("scan speech: %w", err)
		}
		speeches = append(speeches, sp)
	}
	return speeches, rows.Err()
}

// SpeechClassification is the macro_* projection of one speech row.
type SpeechClassification struct {
	SpeechID   string
	MacroTopic string
	Focus      string
	Confidence float64
	By         string
}

// SpeechClassifications returns the applied classification columns for a
// sitting, null macro_topic rows included.
func (s *Store) SpeechClassifications(ctx context.Context, sittingID string) ([]SpeechClassification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(macro_topic, ''), COALESCE(macro_specific_focus, ''),
			COALESCE(macro_confidence, 0), COALESCE(macro_classified_by, '')
		FROM speeches
		WHERE sitting_id = ?
		ORDER BY speech_order`, sittingID)
	if err != nil {
		return nil, fmt.Errorf("query speech classifications: %w", err)
	}
	defer rows.Close()

	var out []SpeechClassification
	for rows.Next() {
		var sc SpeechClassification
		if err := rows.Scan(&sc.SpeechID, &sc.MacroTopic, &sc.Focus, &sc.Confidence, &sc.By); err != nil {
			return nil, fmt.Errorf("scan speech classification: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// LinkMEP sets the MEP reference on a single speech.
func (s *Store) LinkMEP(ctx context.Context, speechID, mepID string) error {
	return s.execWithRetry(ctx, `UPDATE speeches SET mep_id = ? WHERE id = ?`, mepID, speechID)
}

// TopicCount is one distinct trimmed topic with its speech count.
type TopicCount struct {
	Topic string
	Count int
}

// DistinctTopics returns distinct trimmed topic strings with speech counts,
// most frequent first, optionally restricted to one sitting date
// (YYYY-MM-DD) and capped at limit (0 means no cap).
func (s *Store) DistinctTopics(ctx context.Context, date string, limit int) ([]TopicCount, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT TRIM(sp.topic), COUNT(*)
		FROM speeches sp`)
	var args []any
	if date != "" {
		b.WriteString(`
		JOIN sittings si ON si.id = sp.sitting_id
		WHERE si.activity_date = ? AND TRIM(sp.topic) <> ''`)
		args = append(args, date)
	} else {
		b.WriteString(`
		WHERE TRIM(sp.topic) <> ''`)
	}
	b.WriteString(`
		GROUP BY TRIM(sp.topic)
		ORDER BY COUNT(*) DESC, TRIM(sp.topic)`)
	if limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query distinct topics: %w", err)
	}
	defer rows.Close()

	var topics []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, tc)
	}
	return topics, rows.Err()
}
