package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/llm"
	"github.com/anycompanyretail/shopbot/pkg/llm/openai"
)

func TestOpenAI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAI LLM Suite")
}

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		headers http.Header
		status  int
		choices []map[string]any
	)

	BeforeEach(func() {
		status = http.StatusOK
		choices = []map[string]any{
			{"message": map[string]any{"content": "a reply"}},
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			headers = r.Header.Clone()

			w.WriteHeader(status)
			if status == http.StatusOK {
				json.NewEncoder(w).Encode(map[string]any{"choices": choices})
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func() *openai.Client {
		c, err := openai.NewClient(openai.Config{
			BaseURL: server.URL,
			Model:   "gpt-4o-mini",
			APIKey:  "test-key",
		})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	It("sends a bearer token", func() {
		c := newClient()
		out, err := c.Complete(context.Background(), "hi", llm.GenerationParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("a reply"))

		Expect(headers.Get("Authorization")).To(Equal("Bearer test-key"))
	})

	It("wraps API failures in ErrBackend", func() {
		status = http.StatusUnauthorized
		c := newClient()

		_, err := c.Complete(context.Background(), "hi", llm.GenerationParams{})
		Expect(err).To(MatchError(llm.ErrBackend))
	})

	It("returns ErrEmptyCompletion when no choices come back", func() {
		choices = nil
		c := newClient()

		_, err := c.Complete(context.Background(), "hi", llm.GenerationParams{})
		Expect(err).To(MatchError(llm.ErrEmptyCompletion))
	})

	It("requires an API key", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")

		_, err := openai.NewClient(openai.Config{})
		Expect(err).To(HaveOccurred())
	})
})
