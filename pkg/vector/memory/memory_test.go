package memory_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/vector"
	"github.com/atmoslabs/atmos/pkg/vector/memory"
)

func TestMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memory Vector Driver Suite")
}

var _ = Describe("Driver", func() {
	var (
		driver *memory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = memory.NewDriver(zap.NewNop())
		ctx = context.Background()
	})

	Describe("Query", func() {
		It("returns empty results on an empty index", func() {
			results, err := driver.Query(ctx, []float32{1, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("rejects non-positive topK", func() {
			_, err := driver.Query(ctx, []float32{1, 0}, 0)
			Expect(err).To(MatchError(vector.ErrInvalidArgument))

			_, err = driver.Query(ctx, []float32{1, 0}, -3)
			Expect(err).To(MatchError(vector.ErrInvalidArgument))
		})

		It("orders by descending score", func() {
			Expect(driver.Add(ctx, []vector.Entry{
				{ID: "near", DocumentID: "d", Embedding: []float32{1, 0}},
				{ID: "far", DocumentID: "d", Embedding: []float32{-1, 0}},
				{ID: "mid", DocumentID: "d", Embedding: []float32{0, 1}},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("near"))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
			Expect(results[1].ID).To(Equal("mid"))
			Expect(results[1].Score).To(BeNumerically("~", 0.5, 1e-6))
			Expect(results[2].ID).To(Equal("far"))
			Expect(results[2].Score).To(BeNumerically("~", 0.0, 1e-6))
		})

		It("breaks score ties by ascending chunk id", func() {
			// Identical embeddings produce identical scores.
			Expect(driver.Add(ctx, []vector.Entry{
				{ID: "b", DocumentID: "d", Embedding: []float32{0.3, 0.4}},
				{ID: "a", DocumentID: "d", Embedding: []float32{0.3, 0.4}},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{0.5, 0.1}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("a"))
			Expect(results[1].ID).To(Equal("b"))
			Expect(results[0].Score).To(Equal(results[1].Score))
		})

		It("caps results at topK", func() {
			Expect(driver.Add(ctx, []vector.Entry{
				{ID: "a", Embedding: []float32{1, 0}},
				{ID: "b", Embedding: []float32{0, 1}},
				{ID: "c", Embedding: []float32{1, 1}},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("fails on dimension mismatch", func() {
			Expect(driver.Add(ctx, []vector.Entry{{ID: "a", Embedding: []float32{1, 0, 0}}})).To(Succeed())

			_, err := driver.Query(ctx, []float32{1, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})

	Describe("Add", func() {
		It("is idempotent and replaces by id", func() {
			Expect(driver.Add(ctx, []vector.Entry{{ID: "a", Embedding: []float32{1, 0}}})).To(Succeed())
			Expect(driver.Add(ctx, []vector.Entry{{ID: "a", Embedding: []float32{0, 1}}})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			entries, err := driver.Get(ctx, []string{"a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Embedding).To(Equal([]float32{0, 1}))
		})

		It("copies embeddings so callers cannot mutate stored state", func() {
			emb := []float32{1, 0}
			Expect(driver.Add(ctx, []vector.Entry{{ID: "a", Embedding: emb}})).To(Succeed())
			emb[0] = 99

			entries, err := driver.Get(ctx, []string{"a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Embedding).To(Equal([]float32{1, 0}))
		})
	})

	Describe("DeleteByDocument", func() {
		It("removes only the document's entries", func() {
			Expect(driver.Add(ctx, []vector.Entry{
				{ID: "a-0", DocumentID: "a", Embedding: []float32{1, 0}},
				{ID: "a-1", DocumentID: "a", Embedding: []float32{0, 1}},
				{ID: "b-0", DocumentID: "b", Embedding: []float32{1, 1}},
			})).To(Succeed())

			Expect(driver.DeleteByDocument(ctx, "a")).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			entries, err := driver.Get(ctx, []string{"b-0"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})
})
