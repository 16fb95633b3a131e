package retriever_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
	testutils "github.com/anycompanyretail/shopbot/pkg/utils/test"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

func TestRetriever(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Retriever Suite")
}

var _ = Describe("Retriever", func() {
	var (
		embedder *testutils.MockEmbedder
		driver   *testutils.MockVectorDriver
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		driver = testutils.NewMockVectorDriver()
	})

	It("requires an embedder and a driver", func() {
		_, err := retriever.New(nil, driver, retriever.Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())

		_, err = retriever.New(embedder, nil, retriever.Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("defaults topK to 7", func() {
		r, err := retriever.New(embedder, driver, retriever.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(r.TopK()).To(Equal(7))
	})

	It("returns documents in ranked order", func() {
		driver.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "a", Text: "first"}, Score: 0.9},
			{Document: vector.Document{ID: "b", Text: "second"}, Score: 0.5},
		}

		r, err := retriever.New(embedder, driver, retriever.Config{TopK: 2}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		docs, err := r.Retrieve(context.Background(), "hats")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(docs[0].ID).To(Equal("a"))
		Expect(docs[1].ID).To(Equal("b"))
	})

	It("wraps embedding failures in ErrRetrieval", func() {
		embedder.FailOn = "hats"

		r, err := retriever.New(embedder, driver, retriever.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Retrieve(context.Background(), "hats")
		Expect(err).To(MatchError(retriever.ErrRetrieval))
	})

	It("wraps store failures in ErrRetrieval", func() {
		driver.FailQuery = true

		r, err := retriever.New(embedder, driver, retriever.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Retrieve(context.Background(), "hats")
		Expect(err).To(MatchError(retriever.ErrRetrieval))
	})

	It("returns an empty slice when the store is empty", func() {
		r, err := retriever.New(embedder, driver, retriever.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		docs, err := r.Retrieve(context.Background(), "anything")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(BeEmpty())
	})
})
