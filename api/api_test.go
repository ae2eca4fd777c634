package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api/ask"
	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/eventstream/nop"
	"github.com/atmoslabs/atmos/pkg/fusion"
	"github.com/atmoslabs/atmos/pkg/ingest"
	"github.com/atmoslabs/atmos/pkg/retrieval"
	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/storage/inmemory"
	testutils "github.com/atmoslabs/atmos/pkg/utils/test"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	var (
		server  *Server
		store   *inmemory.Driver
		index   *testutils.MockVectorDriver
		backend *testutils.MockBackend
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		store = inmemory.NewDriver()
		index = testutils.NewMockVectorDriver()
		backend = &testutils.MockBackend{Answer: "generated answer"}
		embedder := testutils.NewMockEmbedder()
		publisher := nop.NewPublisher()

		chunker, err := document.NewChunker(document.ChunkerConfig{MaxChars: 100, OverlapChars: 20})
		Expect(err).NotTo(HaveOccurred())

		provider := &testutils.MockProvider{
			ProviderName: "worldbank",
			Observation:  signals.Observation{Value: 8.1, Unit: "t/capita"},
			Range:        signals.Range{Min: 0, Max: 100},
		}

		retriever := retrieval.NewRetriever(embedder, index, store, retrieval.Config{}, logger)
		aggregator := signals.NewAggregator([]signals.Provider{provider}, signals.AggregatorConfig{}, logger)
		composer := fusion.NewComposer(backend, fusion.ComposerConfig{}, logger)
		asker := ask.NewAsker(retriever, aggregator, composer, publisher, ask.Config{}, logger)
		ingestor := ingest.NewIngestor(chunker, embedder, index, store, publisher, logger)

		server = NewServer(Config{ListenAddr: ":0"}, asker, ingestor, aggregator, store, logger)
	})

	jsonRequest := func(method, target string, body any) *http.Request {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(payload)
		}
		req := httptest.NewRequest(method, target, reader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req
	}

	It("responds to ping", func() {
		resp, err := server.app.Test(httptest.NewRequest("GET", "/ping", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	Describe("POST /documents", func() {
		It("ingests a document and reports its chunk count", func() {
			resp, err := server.app.Test(jsonRequest("POST", "/documents", IngestRequest{
				ID:   "doc-1",
				Text: "Sea levels rose 3.4mm per year since 1993.",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var out IngestResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.DocumentID).To(Equal("doc-1"))
			Expect(out.ChunkCount).To(BeNumerically(">", 0))

			_, err = store.GetDocument(context.Background(), "doc-1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a document without id or text", func() {
			resp, err := server.app.Test(jsonRequest("POST", "/documents", IngestRequest{ID: "doc-1"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /documents/:id", func() {
		It("removes an ingested document", func() {
			resp, err := server.app.Test(jsonRequest("POST", "/documents", IngestRequest{
				ID:   "doc-1",
				Text: "Some text.",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			resp, err = server.app.Test(httptest.NewRequest("DELETE", "/documents/doc-1", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			docs, err := store.ListDocuments(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})

	Describe("POST /ask", func() {
		It("answers a question with signals attached", func() {
			resp, err := server.app.Test(jsonRequest("POST", "/ask", ask.Input{
				Query: "current CO2 per capita in Germany",
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var record fusion.AnswerRecord
			Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
			Expect(record.AnswerText).To(Equal("generated answer"))
			Expect(record.Signals).To(HaveKey("worldbank"))
		})

		It("rejects an empty query", func() {
			resp, err := server.app.Test(jsonRequest("POST", "/ask", ask.Input{Query: ""}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /signals", func() {
		It("returns a bundle for the query", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/signals?query=germany", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out SignalsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Signals).To(HaveKey("worldbank"))
		})

		It("requires a query parameter", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/signals", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})
