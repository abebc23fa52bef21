// Package plenary defines the domain model for European Parliament plenary
// sittings: the sitting itself, its agenda structure (sections and topics),
// and the individual speeches extracted from the verbatim report.
package plenary

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical wire format for sitting dates.
const DateLayout = "2006-01-02"

// speechNamespace seeds deterministic speech IDs so that re-ingesting the
// same sitting produces byte-identical rows.
var speechNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// SittingID returns the canonical identifier for a plenary day,
// e.g. "sitting-2024-03-12".
func SittingID(date time.Time) string {
	return "sitting-" + date.Format(DateLayout)
}

// SpeechID returns a stable surrogate identifier for a speech, derived from
// its sitting and position. Deterministic across runs.
func SpeechID(sittingID string, order int) string {
	return uuid.NewSHA1(speechNamespace, fmt.Appendf(nil, "%s/%d", sittingID, order)).String()
}

// Sitting is one plenary day.
type Sitting struct {
	ID           string
	ActivityDate time.Time
	Label        string
	RawDocument  string
	IngestedAt   int64
}

// Section is a top-level structural block of the sitting (opening, votes,
// debates), in document order.
type Section struct {
	Title string
	Order int
}

// Topic is an agenda header under which speeches sit. Title is trimmed.
// SectionIdx points into SittingDocument.Sections, -1 when the topic appeared
// outside any recognizable section.
type Topic struct {
	Title      string
	Order      int
	SectionIdx int
}

// Speech is one contiguous utterance by one speaker within one sitting.
// PoliticalGroupKind carries the groups.Kind tag as a plain string so the
// model stays free of package dependencies.
type Speech struct {
	ID                 string
	SittingID          string
	Order              int
	SpeakerName        string
	PoliticalGroupRaw  string
	PoliticalGroupStd  string
	PoliticalGroupKind string
	Language           string
	Topic              string
	Content            string
	TopicIdx           int
	MEPID              string
}

// SittingDocument is the parser output for one sitting: a flat arena of
// sections, topics, and speeches linked by indices. It is consumed in a
// single pass by the store.
type SittingDocument struct {
	SittingID string
	Date      time.Time
	Sections  []Section
	Topics    []Topic
	Speeches  []Speech
}

// DistinctTopics returns the ordered set of distinct trimmed topic titles
// referenced by at least one speech.
func (d *SittingDocument) DistinctTopics() []string {
	seen := make(map[string]struct{}, len(d.Topics))
	var out []string
	for i := range d.Speeches {
		topic := strings.TrimSpace(d.Speeches[i].Topic)
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	return out
}

// TopicClassification maps one distinct trimmed topic string to the
// controlled vocabulary.
type TopicClassification struct {
	TopicText     string
	MainTopic     string
	SpecificFocus string
	Confidence    float64
	ClassifiedBy  string
	ClassifiedAt  int64
	Cost          float64
}

// MEP is a Member of the European Parliament.
type MEP struct {
	ID             string
	Label          string
	NormalizedName string
	PoliticalGroup string
	Terms          []MEPTerm
}

// MEPTerm is one mandate date-range. End is zero for an open mandate.
type MEPTerm struct {
	Start time.Time
	End   time.Time
}

// ActiveOn reports whether at least one term covers the given date.
func (m *MEP) ActiveOn(date time.Time) bool {
	for _, term := range m.Terms {
		if date.Before(term.Start) {
			continue
		}
		if term.End.IsZero() || !date.After(term.End) {
			return true
		}
	}
	return false
}
