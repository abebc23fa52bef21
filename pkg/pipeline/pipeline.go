// Package pipeline sequences one sitting ingestion end to end:
// discovery, fetch, parse, classification, and the single transactional
// store burst. Fetch and parse failures leave the store untouched;
// classification failures only leave individual topics unclassified —
// the parsed document is the source of truth, classification is enrichment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openhemicycle/hemicycle/pkg/classify"
	"github.com/openhemicycle/hemicycle/pkg/eventstream"
	"github.com/openhemicycle/hemicycle/pkg/eventstream/nop"
	"github.com/openhemicycle/hemicycle/pkg/groups"
	"github.com/openhemicycle/hemicycle/pkg/meplink"
	"github.com/openhemicycle/hemicycle/pkg/parse"
	"github.com/openhemicycle/hemicycle/pkg/plenary"
	"github.com/openhemicycle/hemicycle/pkg/store"
)

// ErrNoNewSittings is the expected idle outcome: discovery found nothing to
// ingest. Callers exit non-zero without an error trace.
var ErrNoNewSittings = errors.New("no new sittings")

// Fetcher is the document acquisition surface.
type Fetcher interface {
	SittingDocument(ctx context.Context, date time.Time) ([]byte, error)
	DiscoverNext(ctx context.Context, known map[string]struct{}) (*time.Time, error)
}

// Classifier is the topic classification surface.
type Classifier interface {
	ClassifyAll(ctx context.Context, topics []string) []classify.Outcome
	Model() string
}

// Result is the structured summary of one pipeline invocation.
type Result struct {
	SittingID  string  `json:"sitting_id"`
	Date       string  `json:"date"`
	Speeches   int     `json:"speeches_count"`
	Topics     int     `json:"topics_count"`
	Classified int     `json:"classified_count"`
	Failed     int     `json:"failed_count"`
	Linked     int     `json:"linked_count"`
	Cost       float64 `json:"classification_cost"`
}

// Runner orchestrates the ingestion of one sitting.
type Runner struct {
	store      *store.Store
	fetcher    Fetcher
	classifier Classifier
	linker     *meplink.Linker
	publisher  eventstream.Publisher
	logger     *slog.Logger
	keepRaw    bool
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithPublisher sets the event publisher. Defaults to the no-op publisher.
func WithPublisher(p eventstream.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithKeepRawDocument stores the raw markup alongside the parsed rows.
func WithKeepRawDocument(keep bool) Option {
	return func(r *Runner) { r.keepRaw = keep }
}

// NewRunner assembles a pipeline over its collaborators.
func NewRunner(st *store.Store, fetcher Fetcher, classifier Classifier, linker *meplink.Linker, opts ...Option) *Runner {
	r := &Runner{
		store:      st,
		fetcher:    fetcher,
		classifier: classifier,
		linker:     linker,
		publisher:  nop.NewPublisher(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ingests one sitting. A nil date triggers discovery; ErrNoNewSittings
// is returned when discovery comes up empty.
func (r *Runner) Run(ctx context.Context, date *time.Time) (*Result, error) {
	if date == nil {
		known, err := r.store.KnownSittingDates(ctx)
		if err != nil {
			return nil, fmt.Errorf("load known sitting dates: %w", err)
		}
		discovered, err := r.fetcher.DiscoverNext(ctx, known)
		if err != nil {
			return nil, fmt.Errorf("discover next sitting: %w", err)
		}
		if discovered == nil {
			return nil, ErrNoNewSittings
		}
		date = discovered
	}
	day := date.Format(plenary.DateLayout)
	r.logger.Info("ingesting sitting", "date", day)

	raw, err := r.fetcher.SittingDocument(ctx, *date)
	if err != nil {
		return nil, err
	}

	doc, err := parse.Sitting(*date, raw)
	if err != nil {
		return nil, err
	}
	speeches := r.buildSpeeches(doc)
	r.logger.Info("parsed sitting",
		"date", day,
		"sections", len(doc.Sections),
		"topics", len(doc.Topics),
		"speeches", len(speeches))

	topics := doc.DistinctTopics()
	outcomes := r.classifier.ClassifyAll(ctx, topics)
	if ctx.Err() != nil {
		// A cancelled sitting never gets partial classifications applied.
		return nil, ctx.Err()
	}

	var classifications []plenary.TopicClassification
	var cost float64
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			r.logger.Warn("topic classification failed", "topic", outcome.TopicText, "error", outcome.Err)
			continue
		}
		classifications = append(classifications, *outcome.Classification)
		cost += outcome.Classification.Cost
	}

	links, err := r.linker.Link(ctx, *date, speeches)
	if err != nil {
		return nil, fmt.Errorf("link meps: %w", err)
	}

	sitting := plenary.Sitting{
		ID:           doc.SittingID,
		ActivityDate: *date,
		Label:        sittingLabel(doc, day),
		IngestedAt:   r.now().Unix(),
	}
	if r.keepRaw {
		sitting.RawDocument = string(raw)
	}

	if err := r.store.IngestSitting(ctx, sitting, speeches, classifications, links); err != nil {
		return nil, fmt.Errorf("persist sitting %s: %w", doc.SittingID, err)
	}

	result := &Result{
		SittingID:  doc.SittingID,
		Date:       day,
		Speeches:   len(speeches),
		Topics:     len(topics),
		Classified: len(classifications),
		Failed:     failed,
		Linked:     len(links),
		Cost:       cost,
	}
	r.publish(ctx, result)
	r.logger.Info("sitting ingested",
		"date", result.Date,
		"speeches_count", result.Speeches,
		"topics_count", result.Topics,
		"linked_count", result.Linked,
		"classification_cost", result.Cost)
	return result, nil
}

// buildSpeeches applies group normalization to the parser output.
func (r *Runner) buildSpeeches(doc *plenary.SittingDocument) []plenary.Speech {
	speeches := make([]plenary.Speech, len(doc.Speeches))
	copy(speeches, doc.Speeches)
	for i := range speeches {
		std, kind := groups.Normalize(speeches[i].PoliticalGroupRaw)
		speeches[i].PoliticalGroupStd = std
		speeches[i].PoliticalGroupKind = string(kind)
	}
	return speeches
}

func (r *Runner) publish(ctx context.Context, result *Result) {
	event := &eventstream.SittingIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSittingIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     r.now().UTC(),
		SittingID:     result.SittingID,
		ActivityDate:  result.Date,
		Speeches:      result.Speeches,
		Topics:        result.Topics,
		Classified:    result.Classified,
		Failed:        result.Failed,
		Linked:        result.Linked,
		Cost:          result.Cost,
		Model:         r.classifier.Model(),
	}
	if err := r.publisher.PublishSittingIngested(ctx, event); err != nil {
		// Event delivery is best effort; the sitting is already committed.
		r.logger.Warn("publish sitting event failed", "sitting", result.SittingID, "error", err)
	}
}

func sittingLabel(doc *plenary.SittingDocument, day string) string {
	if len(doc.Sections) > 0 {
		return doc.Sections[0].Title
	}
	return "Plenary sitting of " + day
}
