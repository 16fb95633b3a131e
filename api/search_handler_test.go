package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/anycompanyretail/shopbot/api/search"
	"github.com/anycompanyretail/shopbot/pkg/logger"
	testutils "github.com/anycompanyretail/shopbot/pkg/utils/test"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

var _ = Describe("handleSearchEndpoint", func() {
	var (
		server       *Server
		vectorDriver *testutils.MockVectorDriver
		embedder     *testutils.MockEmbedder
	)

	BeforeEach(func() {
		vectorDriver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		server = NewServer(Config{
			ListenAddr:   ":0",
			VectorDriver: vectorDriver,
			Embedder:     embedder,
		}, newTestSessions(), logger.Nop())
	})

	get := func(s *Server, path string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := s.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("returns 503 when search is not configured", func() {
		noSearch := NewServer(Config{ListenAddr: ":0"}, newTestSessions(), logger.Nop())

		resp := get(noSearch, "/v1/search?query=test")
		Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))
	})

	It("returns 400 when the query parameter is missing", func() {
		resp := get(server, "/v1/search")
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("query parameter is required"))
	})

	It("returns 400 for a non-positive top_k", func() {
		resp := get(server, "/v1/search?query=test&top_k=0")
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

		resp = get(server, "/v1/search?query=test&top_k=abc")
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("returns matching products", func() {
		vectorDriver.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "p1", Text: "Blue Shirt", Metadata: map[string]string{"color": "blue"}}, Score: 0.92},
			{Document: vector.Document{ID: "p2", Text: "Blue Jeans"}, Score: 0.81},
		}

		resp := get(server, "/v1/search?query=blue+clothes")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var got apisearch.Output
		Expect(json.NewDecoder(resp.Body).Decode(&got)).To(Succeed())
		Expect(got.Count).To(Equal(2))
		Expect(got.Results[0].ID).To(Equal("p1"))
		Expect(got.Results[0].Metadata).To(HaveKeyWithValue("color", "blue"))
	})

	It("returns 500 when the vector store fails", func() {
		vectorDriver.FailQuery = true

		resp := get(server, "/v1/search?query=test")
		Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
	})
})
