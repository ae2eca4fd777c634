package ask_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api/ask"
	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/eventstream/nop"
	"github.com/atmoslabs/atmos/pkg/fusion"
	"github.com/atmoslabs/atmos/pkg/model"
	"github.com/atmoslabs/atmos/pkg/retrieval"
	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/storage/inmemory"
	testutils "github.com/atmoslabs/atmos/pkg/utils/test"
	"github.com/atmoslabs/atmos/pkg/vector"
)

func TestAsk(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ask Suite")
}

var _ = Describe("QueryParams", func() {
	It("maps a mentioned country to its provider inputs", func() {
		params := ask.QueryParams("current CO2 per capita in Germany")
		Expect(params["country"]).To(Equal("DEU"))
		Expect(params["location"]).To(Equal("Berlin"))
		Expect(params["lat"]).NotTo(BeEmpty())
	})

	It("prefers the longest matching country name", func() {
		params := ask.QueryParams("emissions in the united states")
		Expect(params["country"]).To(Equal("USA"))
	})

	It("anchors unrecognized queries to the default place", func() {
		params := ask.QueryParams("how fast are seas rising")
		Expect(params["country"]).To(Equal("USA"))
	})
})

var _ = Describe("Asker", func() {
	var (
		embedder *testutils.MockEmbedder
		index    *testutils.MockVectorDriver
		store    *inmemory.Driver
		provider *testutils.MockProvider
		backend  *testutils.MockBackend
		ctx      context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		index = testutils.NewMockVectorDriver()
		store = inmemory.NewDriver()
		provider = &testutils.MockProvider{
			ProviderName: "worldbank",
			Observation:  signals.Observation{Value: 8.1, Unit: "t/capita"},
			Range:        signals.Range{Min: 0, Max: 100},
		}
		backend = &testutils.MockBackend{Answer: "generated answer"}
		ctx = context.Background()
	})

	newAsker := func(config ask.Config) *ask.Asker {
		logger := zap.NewNop()
		retriever := retrieval.NewRetriever(embedder, index, store, retrieval.Config{}, logger)
		aggregator := signals.NewAggregator([]signals.Provider{provider}, signals.AggregatorConfig{}, logger)
		composer := fusion.NewComposer(backend, fusion.ComposerConfig{}, logger)
		return ask.NewAsker(retriever, aggregator, composer, nop.NewPublisher(), config, logger)
	}

	seed := func(id, text string, score float32) {
		Expect(store.PutChunks(ctx, []document.Chunk{{ID: id, DocumentID: "doc", Text: text}})).To(Succeed())
		index.QueryResults = append(index.QueryResults, vector.QueryResult{
			Entry: vector.Entry{ID: id, DocumentID: "doc"},
			Score: score,
		})
	}

	It("rejects an empty query", func() {
		_, err := newAsker(ask.Config{}).Ask(ctx, ask.Input{Query: "   "})
		Expect(err).To(HaveOccurred())
	})

	It("fuses passages and signals into a high quality answer", func() {
		seed("doc-0", "Sea levels rose 3.4mm per year since 1993.", 0.9)

		record, err := newAsker(ask.Config{}).Ask(ctx, ask.Input{
			Query:          "how fast are seas rising",
			IncludeSources: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(record.AnswerText).To(Equal("generated answer"))
		Expect(record.OverallQuality).To(Equal(signals.QualityHigh))
		Expect(record.Sources).To(HaveLen(1))
		Expect(record.Signals).To(HaveKey("worldbank"))
	})

	It("omits sources unless asked for them", func() {
		seed("doc-0", "passage", 0.9)

		record, err := newAsker(ask.Config{}).Ask(ctx, ask.Input{Query: "q"})
		Expect(err).NotTo(HaveOccurred())
		Expect(record.Sources).To(BeEmpty())
	})

	It("still answers when retrieval fails", func() {
		seed("doc-0", "passage", 0.9)
		index.FailQuery = true

		record, err := newAsker(ask.Config{}).Ask(ctx, ask.Input{Query: "q"})
		Expect(err).NotTo(HaveOccurred())
		Expect(record.AnswerText).To(Equal("generated answer"))
		Expect(record.OverallQuality).To(Equal(signals.QualityMedium))
	})

	It("never hard-fails even when providers and the backend all fail", func() {
		provider.Err = signals.ErrProvider
		provider.Strategy = signals.FallbackNone
		backend.Err = model.ErrUnavailable

		record, err := newAsker(ask.Config{}).Ask(ctx, ask.Input{Query: "q"})
		Expect(err).NotTo(HaveOccurred())
		Expect(record.AnswerText).NotTo(BeEmpty())
		Expect(record.OverallQuality).To(Equal(signals.QualityLow))
	})

	It("yields a valid record when the deadline cuts providers off", func() {
		provider.Delay = 500 * time.Millisecond
		provider.Strategy = signals.FallbackNone

		record, err := newAsker(ask.Config{Deadline: 50 * time.Millisecond}).Ask(ctx, ask.Input{Query: "q"})
		Expect(err).NotTo(HaveOccurred())
		Expect(record.Signals["worldbank"].Status).To(Equal(signals.StatusError))
		Expect(record.AnswerText).NotTo(BeEmpty())
	})
})
