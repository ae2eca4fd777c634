package retrieval_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/retrieval"
	"github.com/atmoslabs/atmos/pkg/storage/inmemory"
	testutils "github.com/atmoslabs/atmos/pkg/utils/test"
	"github.com/atmoslabs/atmos/pkg/vector"
)

func TestRetrieval(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Retrieval Suite")
}

type recordingReindexer struct {
	documentIDs []string
}

func (r *recordingReindexer) Reindex(_ context.Context, documentID string) error {
	r.documentIDs = append(r.documentIDs, documentID)
	return nil
}

var _ = Describe("Retriever", func() {
	var (
		embedder *testutils.MockEmbedder
		index    *testutils.MockVectorDriver
		store    *inmemory.Driver
		ctx      context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		index = testutils.NewMockVectorDriver()
		store = inmemory.NewDriver()
		ctx = context.Background()
	})

	newRetriever := func(config retrieval.Config) *retrieval.Retriever {
		return retrieval.NewRetriever(embedder, index, store, config, zap.NewNop())
	}

	seedChunks := func(chunks ...document.Chunk) {
		Expect(store.PutChunks(ctx, chunks)).To(Succeed())
	}

	It("rejects non-positive k", func() {
		retriever := newRetriever(retrieval.Config{})
		_, err := retriever.Retrieve(ctx, "sea level rise", 0)
		Expect(err).To(MatchError(vector.ErrInvalidArgument))
	})

	It("returns empty on an empty index without embedding the query", func() {
		retriever := newRetriever(retrieval.Config{})
		matches, err := retriever.Retrieve(ctx, "sea level rise", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(BeEmpty())
		Expect(embedder.Calls).To(BeZero())
	})

	It("returns matches ordered by descending score with hydrated text", func() {
		seedChunks(
			document.Chunk{ID: "doc-1-0", DocumentID: "doc-1", Text: "sea levels rose"},
			document.Chunk{ID: "doc-1-1", DocumentID: "doc-1", Text: "glaciers shrank"},
		)
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "doc-1-1", DocumentID: "doc-1"}, Score: 0.4},
			{Entry: vector.Entry{ID: "doc-1-0", DocumentID: "doc-1"}, Score: 0.9},
		}

		retriever := newRetriever(retrieval.Config{})
		matches, err := retriever.Retrieve(ctx, "sea level rise", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(2))
		Expect(matches[0].Chunk.Text).To(Equal("sea levels rose"))
		Expect(matches[0].Score).To(BeNumerically("==", float32(0.9)))
		Expect(matches[1].Chunk.Text).To(Equal("glaciers shrank"))
	})

	It("never returns more than k matches", func() {
		seedChunks(
			document.Chunk{ID: "a", Text: "a"},
			document.Chunk{ID: "b", Text: "b"},
			document.Chunk{ID: "c", Text: "c"},
		)
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "a"}, Score: 0.9},
			{Entry: vector.Entry{ID: "b"}, Score: 0.8},
			{Entry: vector.Entry{ID: "c"}, Score: 0.7},
		}

		retriever := newRetriever(retrieval.Config{})
		matches, err := retriever.Retrieve(ctx, "anything", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(2))
	})

	It("applies the minimum-score floor after ranking", func() {
		seedChunks(
			document.Chunk{ID: "a", Text: "relevant"},
			document.Chunk{ID: "b", Text: "marginal"},
		)
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "a"}, Score: 0.8},
			{Entry: vector.Entry{ID: "b"}, Score: 0.2},
		}

		retriever := newRetriever(retrieval.Config{MinScore: 0.5})
		matches, err := retriever.Retrieve(ctx, "anything", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Chunk.ID).To(Equal("a"))
	})

	It("skips index entries whose chunk is missing from the store", func() {
		seedChunks(document.Chunk{ID: "a", Text: "present"})
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "a"}, Score: 0.8},
			{Entry: vector.Entry{ID: "orphan"}, Score: 0.7},
		}

		retriever := newRetriever(retrieval.Config{})
		matches, err := retriever.Retrieve(ctx, "anything", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Chunk.ID).To(Equal("a"))
	})

	It("repairs only the drifted document when a reindexer is set", func() {
		seedChunks(document.Chunk{ID: "a", DocumentID: "healthy", Text: "present"})
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "a", DocumentID: "healthy"}, Score: 0.8},
			{Entry: vector.Entry{ID: "orphan", DocumentID: "drifted"}, Score: 0.7},
		}

		reindexer := &recordingReindexer{}
		retriever := newRetriever(retrieval.Config{})
		retriever.SetReindexer(reindexer)

		matches, err := retriever.Retrieve(ctx, "anything", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))
		Expect(reindexer.documentIDs).To(Equal([]string{"drifted"}))
	})

	It("serves repeated queries from cache", func() {
		seedChunks(document.Chunk{ID: "a", Text: "cached"})
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "a"}, Score: 0.8},
		}

		retriever := newRetriever(retrieval.Config{})
		_, err := retriever.Retrieve(ctx, "Sea Level Rise", 5)
		Expect(err).NotTo(HaveOccurred())
		_, err = retriever.Retrieve(ctx, "sea   level rise", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder.Calls).To(Equal(1))
	})

	It("propagates embedding failures", func() {
		seedChunks(document.Chunk{ID: "a", Text: "a"})
		index.QueryResults = []vector.QueryResult{
			{Entry: vector.Entry{ID: "a"}, Score: 0.8},
		}
		embedder.FailOn = "unreachable"

		retriever := newRetriever(retrieval.Config{})
		_, err := retriever.Retrieve(ctx, "unreachable", 5)
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})
})
