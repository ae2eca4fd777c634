package ingest_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/eventstream/nop"
	"github.com/atmoslabs/atmos/pkg/ingest"
	"github.com/atmoslabs/atmos/pkg/storage"
	"github.com/atmoslabs/atmos/pkg/storage/inmemory"
	testutils "github.com/atmoslabs/atmos/pkg/utils/test"
)

func TestIngest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

var _ = Describe("Ingestor", func() {
	var (
		embedder *testutils.MockEmbedder
		index    *testutils.MockVectorDriver
		store    *inmemory.Driver
		ingestor *ingest.Ingestor
		ctx      context.Context
	)

	BeforeEach(func() {
		chunker, err := document.NewChunker(document.ChunkerConfig{
			MaxChars:     100,
			OverlapChars: 20,
		})
		Expect(err).NotTo(HaveOccurred())

		embedder = testutils.NewMockEmbedder()
		index = testutils.NewMockVectorDriver()
		store = inmemory.NewDriver()
		ingestor = ingest.NewIngestor(chunker, embedder, index, store, nop.NewPublisher(), zap.NewNop())
		ctx = context.Background()
	})

	newDoc := func(id, text string) document.Document {
		return document.Document{
			ID:   id,
			Text: text,
			Metadata: document.Metadata{
				Source:    "test",
				Timestamp: time.Now().UTC(),
			},
		}
	}

	It("chunks, embeds, indexes, and persists a document", func() {
		doc := newDoc("doc-1", "Sea levels rose steadily. Glaciers kept retreating over the same period of observation worldwide.")

		chunks, err := ingestor.Ingest(ctx, doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).NotTo(BeEmpty())

		stored, err := store.GetDocument(ctx, "doc-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Text).To(Equal(doc.Text))

		storedChunks, err := store.ChunksByDocument(ctx, "doc-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(storedChunks).To(HaveLen(len(chunks)))

		Expect(index.AddedEntries).To(HaveLen(len(chunks)))
		for i, entry := range index.AddedEntries {
			Expect(entry.ID).To(Equal(chunks[i].ID))
			Expect(entry.DocumentID).To(Equal("doc-1"))
			Expect(entry.Embedding).NotTo(BeEmpty())
		}
	})

	It("clears stale index entries when re-ingesting a document", func() {
		doc := newDoc("doc-1", "Short text.")

		_, err := ingestor.Ingest(ctx, doc)
		Expect(err).NotTo(HaveOccurred())
		_, err = ingestor.Ingest(ctx, doc)
		Expect(err).NotTo(HaveOccurred())

		Expect(index.DeletedDocuments).To(Equal([]string{"doc-1", "doc-1"}))
	})

	It("drops surplus chunks when a re-ingested document shrinks", func() {
		long := "Sea levels rose steadily through the decade. Glaciers kept retreating over the same period. " +
			"Ocean heat content reached repeated record highs. Arctic sea ice extent declined in every " +
			"satellite-era decade. Permafrost thaw accelerated across the high latitudes year after year."

		chunks, err := ingestor.Ingest(ctx, newDoc("doc-1", long))
		Expect(err).NotTo(HaveOccurred())
		Expect(len(chunks)).To(BeNumerically(">", 1))

		shrunk, err := ingestor.Ingest(ctx, newDoc("doc-1", "Short now."))
		Expect(err).NotTo(HaveOccurred())
		Expect(shrunk).To(HaveLen(1))

		stored, err := store.ChunksByDocument(ctx, "doc-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HaveLen(1))
		Expect(stored[0].Text).To(Equal("Short now."))

		index.AddedEntries = nil
		Expect(ingestor.Reindex(ctx, "doc-1")).To(Succeed())
		Expect(index.AddedEntries).To(HaveLen(1))
	})

	It("propagates embedding failures without touching the store", func() {
		embedder.FailOn = "Unreachable text."

		_, err := ingestor.Ingest(ctx, newDoc("doc-1", "Unreachable text."))
		Expect(err).To(HaveOccurred())

		_, err = store.GetDocument(ctx, "doc-1")
		Expect(err).To(MatchError(storage.ErrNotFound{ID: "doc-1"}))
		Expect(index.AddedEntries).To(BeEmpty())
	})

	Describe("Delete", func() {
		It("removes the document from store and index", func() {
			_, err := ingestor.Ingest(ctx, newDoc("doc-1", "Some text."))
			Expect(err).NotTo(HaveOccurred())

			Expect(ingestor.Delete(ctx, "doc-1")).To(Succeed())

			_, err = store.GetDocument(ctx, "doc-1")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "doc-1"}))
			Expect(index.DeletedDocuments).To(ContainElement("doc-1"))
		})
	})

	Describe("Reindex", func() {
		It("rebuilds index entries from stored chunks", func() {
			chunks, err := ingestor.Ingest(ctx, newDoc("doc-1", "Some text."))
			Expect(err).NotTo(HaveOccurred())

			index.AddedEntries = nil
			Expect(ingestor.Reindex(ctx, "doc-1")).To(Succeed())
			Expect(index.AddedEntries).To(HaveLen(len(chunks)))
		})

		It("fails for an unknown document", func() {
			err := ingestor.Reindex(ctx, "missing")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "missing"}))
		})
	})
})
