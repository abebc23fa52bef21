package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openhemicycle/hemicycle/pkg/classify"
	"github.com/openhemicycle/hemicycle/pkg/eventstream"
	"github.com/openhemicycle/hemicycle/pkg/groups"
	"github.com/openhemicycle/hemicycle/pkg/meplink"
	"github.com/openhemicycle/hemicycle/pkg/pipeline"
	"github.com/openhemicycle/hemicycle/pkg/plenary"
	"github.com/openhemicycle/hemicycle/pkg/store"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

var sittingDate = time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC)

const sittingReport = `<html><body>
<h1>1. Opening of the sitting</h1>
<p><b>President.</b> – The sitting is opened at 9.00.</p>
<h2>2. Climate adaptation strategy (debate)</h2>
<p><b>Margrethe Jensen (PPE).</b> – Mr President, adaptation can no longer wait.</p>
<p><b>Tomás Varga, on behalf of the S&amp;D Group.</b> – Binding targets, please.</p>
<h2>3. Budget 2025 (debate)</h2>
<p><b>Margrethe Jensen (PPE).</b> – The budget must follow the strategy.</p>
</body></html>`

type fakeFetcher struct {
	document  []byte
	docErr    error
	discover  *time.Time
	discErr   error
	knownSeen map[string]struct{}
}

func (f *fakeFetcher) SittingDocument(_ context.Context, _ time.Time) ([]byte, error) {
	return f.document, f.docErr
}

func (f *fakeFetcher) DiscoverNext(_ context.Context, known map[string]struct{}) (*time.Time, error) {
	f.knownSeen = known
	return f.discover, f.discErr
}

type fakeClassifier struct {
	outcomes func(topic string) classify.Outcome
	topics   []string
}

func (f *fakeClassifier) ClassifyAll(_ context.Context, topics []string) []classify.Outcome {
	f.topics = topics
	out := make([]classify.Outcome, len(topics))
	for i, topic := range topics {
		out[i] = f.outcomes(topic)
	}
	return out
}

func (f *fakeClassifier) Model() string { return "test-model" }

func classified(topic string) classify.Outcome {
	return classify.Outcome{
		TopicText: topic,
		Classification: &plenary.TopicClassification{
			TopicText:    topic,
			MainTopic:    "Climate, environment & biodiversity",
			Confidence:   0.9,
			ClassifiedBy: "test-model",
			Cost:         0.001,
		},
	}
}

type capturingPublisher struct {
	events []*eventstream.SittingIngestedEvent
	err    error
}

func (p *capturingPublisher) PublishSittingIngested(_ context.Context, event *eventstream.SittingIngestedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *capturingPublisher) Close() error { return nil }

var _ = Describe("Runner", func() {
	var (
		ctx        context.Context
		st         *store.Store
		fetcher    *fakeFetcher
		classifier *fakeClassifier
	)

	BeforeEach(func() {
		ctx = context.Background()

		dir, err := os.MkdirTemp("", "hemicycle-pipeline-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(dir) })

		st, err = store.Open(filepath.Join(dir, "test.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = st.Close() })

		fetcher = &fakeFetcher{document: []byte(sittingReport)}
		classifier = &fakeClassifier{outcomes: classified}
	})

	newRunner := func(opts ...pipeline.Option) *pipeline.Runner {
		return pipeline.NewRunner(st, fetcher, classifier, meplink.New(st), opts...)
	}

	Describe("Run", func() {
		It("ingests a sitting end to end", func() {
			result, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.SittingID).To(Equal("sitting-2024-07-16"))
			Expect(result.Date).To(Equal("2024-07-16"))
			Expect(result.Speeches).To(Equal(4))
			Expect(result.Topics).To(Equal(2))
			Expect(result.Classified).To(Equal(2))
			Expect(result.Failed).To(BeZero())
			Expect(result.Cost).To(BeNumerically("~", 0.002, 1e-9))

			stored, err := st.SpeechesForSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveLen(4))
		})

		It("normalizes political groups on the stored speeches", func() {
			result, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			stored, err := st.SpeechesForSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())

			byName := map[string]plenary.Speech{}
			for _, sp := range stored {
				byName[sp.SpeakerName+"/"+sp.Topic] = sp
			}
			jensen := byName["Margrethe Jensen/2. Climate adaptation strategy (debate)"]
			Expect(jensen.PoliticalGroupRaw).To(Equal("PPE"))
			Expect(jensen.PoliticalGroupStd).To(Equal("PPE"))
			Expect(jensen.PoliticalGroupKind).To(Equal(string(groups.KindPolitical)))
		})

		It("links speakers with a unique MEP record", func() {
			Expect(st.UpsertMEP(ctx, plenary.MEP{
				ID: "mep-jensen", Label: "Margrethe Jensen", NormalizedName: "margrethe jensen",
				Terms: []plenary.MEPTerm{{Start: sittingDate.AddDate(0, -1, 0)}},
			})).To(Succeed())

			result, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Linked).To(Equal(2))

			stored, err := st.SpeechesForSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())
			linked := 0
			for _, sp := range stored {
				if sp.MEPID == "mep-jensen" {
					linked++
				}
			}
			Expect(linked).To(Equal(2))
		})

		It("keeps failed classifications out of the store but ingests the sitting", func() {
			boom := errors.New("model unavailable")
			classifier.outcomes = func(topic string) classify.Outcome {
				if topic == "3. Budget 2025 (debate)" {
					return classify.Outcome{TopicText: topic, Err: boom}
				}
				return classified(topic)
			}

			result, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Classified).To(Equal(1))
			Expect(result.Failed).To(Equal(1))

			_, err = st.GetTopicClassification(ctx, "3. Budget 2025 (debate)")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("discovers the sitting date when none is given", func() {
			fetcher.discover = &sittingDate

			result, err := newRunner().Run(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Date).To(Equal("2024-07-16"))
			Expect(fetcher.knownSeen).NotTo(BeNil())
		})

		It("returns ErrNoNewSittings when discovery is empty", func() {
			fetcher.discover = nil

			_, err := newRunner().Run(ctx, nil)
			Expect(err).To(MatchError(pipeline.ErrNoNewSittings))
		})

		It("leaves the store untouched on fetch failure", func() {
			fetcher.docErr = errors.New("upstream down")

			_, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).To(HaveOccurred())

			known, err := st.KnownSittingDates(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(known).To(BeEmpty())
		})

		It("leaves the store untouched on an unparseable document", func() {
			fetcher.document = []byte("<html><body></body></html>")

			_, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).To(HaveOccurred())

			known, err := st.KnownSittingDates(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(known).To(BeEmpty())
		})

		It("drops the raw markup unless asked to keep it", func() {
			result, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			got, err := st.GetSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.RawDocument).To(BeEmpty())
		})

		It("stores the raw markup with WithKeepRawDocument", func() {
			result, err := newRunner(pipeline.WithKeepRawDocument(true)).Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			got, err := st.GetSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.RawDocument).To(Equal(sittingReport))
		})

		It("publishes a sitting-ingested event after the commit", func() {
			pub := &capturingPublisher{}

			result, err := newRunner(pipeline.WithPublisher(pub)).Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			Expect(pub.events).To(HaveLen(1))
			event := pub.events[0]
			Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(event.EventType).To(Equal(eventstream.EventTypeSittingIngested))
			Expect(event.EventID).NotTo(BeEmpty())
			Expect(event.SittingID).To(Equal(result.SittingID))
			Expect(event.Speeches).To(Equal(result.Speeches))
			Expect(event.Model).To(Equal("test-model"))
		})

		It("treats publish failure as best effort", func() {
			pub := &capturingPublisher{err: errors.New("broker down")}

			result, err := newRunner(pipeline.WithPublisher(pub)).Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			_, err = st.GetSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("re-ingests the same date without duplicating speeches", func() {
			runner := newRunner()
			_, err := runner.Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			result, err := runner.Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())

			stored, err := st.SpeechesForSitting(ctx, result.SittingID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveLen(4))
			for i, sp := range stored {
				Expect(sp.Order).To(Equal(i))
			}
		})
	})

	Describe("Reclassify", func() {
		BeforeEach(func() {
			_, err := newRunner().Run(ctx, &sittingDate)
			Expect(err).NotTo(HaveOccurred())
		})

		It("re-runs classification over stored topics", func() {
			classifier.outcomes = func(topic string) classify.Outcome {
				o := classified(topic)
				o.Classification.MainTopic = "EU budget & MFF"
				return o
			}

			result, err := newRunner().Reclassify(ctx, "", 0, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Topics).To(Equal(2))
			Expect(result.Classified).To(Equal(2))

			got, err := st.GetTopicClassification(ctx, "3. Budget 2025 (debate)")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.MainTopic).To(Equal("EU budget & MFF"))
		})

		It("enumerates without calling the model on a dry run", func() {
			classifier.topics = nil

			result, err := newRunner().Reclassify(ctx, "", 0, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.DryRun).To(BeTrue())
			Expect(result.Topics).To(Equal(2))
			Expect(classifier.topics).To(BeEmpty())
		})

		It("honors the topic limit", func() {
			result, err := newRunner().Reclassify(ctx, "", 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Topics).To(Equal(1))
		})

		It("counts failures without aborting the sweep", func() {
			classifier.outcomes = func(topic string) classify.Outcome {
				return classify.Outcome{TopicText: topic, Err: errors.New("nope")}
			}

			result, err := newRunner().Reclassify(ctx, "", 0, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed).To(Equal(2))
			Expect(result.Classified).To(BeZero())
		})
	})
})
