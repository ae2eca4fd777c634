package inmemory_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/storage"
	"github.com/atmoslabs/atmos/pkg/storage/inmemory"
)

func TestInMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "In-Memory Storage Suite")
}

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
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

	Describe("documents", func() {
		It("stores and retrieves a document", func() {
			doc := newDoc("doc-1", "glaciers are melting")
			Expect(driver.PutDocument(ctx, doc)).To(Succeed())

			got, err := driver.GetDocument(ctx, "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text).To(Equal("glaciers are melting"))
		})

		It("returns ErrNotFound for a missing document", func() {
			_, err := driver.GetDocument(ctx, "missing")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "missing"}))
		})

		It("replaces a document stored under the same ID", func() {
			Expect(driver.PutDocument(ctx, newDoc("doc-1", "v1"))).To(Succeed())
			Expect(driver.PutDocument(ctx, newDoc("doc-1", "v2"))).To(Succeed())

			got, err := driver.GetDocument(ctx, "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text).To(Equal("v2"))
		})

		It("lists documents ordered by ID", func() {
			Expect(driver.PutDocument(ctx, newDoc("doc-b", "b"))).To(Succeed())
			Expect(driver.PutDocument(ctx, newDoc("doc-a", "a"))).To(Succeed())

			docs, err := driver.ListDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
			Expect(docs[0].ID).To(Equal("doc-a"))
			Expect(docs[1].ID).To(Equal("doc-b"))
		})
	})

	Describe("chunks", func() {
		BeforeEach(func() {
			Expect(driver.PutDocument(ctx, newDoc("doc-1", "text"))).To(Succeed())
			Expect(driver.PutChunks(ctx, []document.Chunk{
				{ID: "doc-1-1", DocumentID: "doc-1", Text: "second", Start: 80, End: 180},
				{ID: "doc-1-0", DocumentID: "doc-1", Text: "first", Start: 0, End: 100},
			})).To(Succeed())
		})

		It("retrieves a chunk by ID", func() {
			chunk, err := driver.GetChunk(ctx, "doc-1-0")
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Text).To(Equal("first"))
		})

		It("returns ErrNotFound for a missing chunk", func() {
			_, err := driver.GetChunk(ctx, "doc-1-9")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "doc-1-9"}))
		})

		It("batch-loads chunks in request order, skipping missing IDs", func() {
			chunks, err := driver.GetChunks(ctx, []string{"doc-1-1", "missing", "doc-1-0"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0].ID).To(Equal("doc-1-1"))
			Expect(chunks[1].ID).To(Equal("doc-1-0"))
		})

		It("orders a document's chunks by start offset", func() {
			chunks, err := driver.ChunksByDocument(ctx, "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0].ID).To(Equal("doc-1-0"))
			Expect(chunks[1].ID).To(Equal("doc-1-1"))
		})

		It("cascades chunk deletion when the document is deleted", func() {
			Expect(driver.DeleteDocument(ctx, "doc-1")).To(Succeed())

			_, err := driver.GetChunk(ctx, "doc-1-0")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "doc-1-0"}))

			chunks, err := driver.ChunksByDocument(ctx, "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(chunks).To(BeEmpty())
		})
	})
})
