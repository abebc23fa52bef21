// Package eventstream publishes ingestion events for downstream analytic
// consumers. The payload is transport-neutral JSON; backends are pluggable
// behind the Publisher interface.
package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSittingIngested is emitted after a sitting and its speeches
	// are committed to the store.
	EventTypeSittingIngested = "hemicycle.sitting.ingested"
)

// SittingIngestedEvent is the payload emitted once per persisted sitting.
type SittingIngestedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SittingID    string  `json:"sitting_id"`
	ActivityDate string  `json:"activity_date"`
	Speeches     int     `json:"speeches"`
	Topics       int     `json:"topics"`
	Classified   int     `json:"classified"`
	Failed       int     `json:"failed"`
	Linked       int     `json:"linked"`
	Cost         float64 `json:"cost"`
	Model        string  `json:"model,omitempty"`
}
