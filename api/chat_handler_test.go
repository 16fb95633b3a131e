package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/assistant"
	"github.com/anycompanyretail/shopbot/pkg/eventstream"
	"github.com/anycompanyretail/shopbot/pkg/llm"
	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/session"
	testutils "github.com/anycompanyretail/shopbot/pkg/utils/test"
)

// recordingPublisher captures published exchange events.
type recordingPublisher struct {
	events []*eventstream.ExchangeCompletedEvent
}

func (p *recordingPublisher) PublishExchange(_ context.Context, event *eventstream.ExchangeCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilExchangeEvent
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func postJSON(app *fiber.App, path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

var _ = Describe("handleChat", func() {
	It("requires a message", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions(), logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("starts a session and returns the reply", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions("Hello!"), logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var got ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&got)).To(Succeed())
		Expect(got.Reply).To(Equal("Hello!"))
		Expect(got.SessionID).NotTo(BeEmpty())
	})

	It("continues an existing session by id", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions("first", "second"), logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "one"})
		var first ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&first)).To(Succeed())

		resp = postJSON(server.app, "/v1/chat", ChatRequest{SessionID: first.SessionID, Message: "two"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var second ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&second)).To(Succeed())
		Expect(second.SessionID).To(Equal(first.SessionID))
		Expect(second.Reply).To(Equal("second"))
	})

	It("maps backend failures to 502", func() {
		sessions, err := session.NewManager(func() (*assistant.Assistant, error) {
			backend := testutils.NewMockBackend()
			backend.Err = llm.ErrBackend
			return assistant.New(assistant.Config{
				Backend: backend,
				Mode:    assistant.ModeChat,
			}, logger.Nop())
		}, 0, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		server := NewServer(Config{ListenAddr: ":0"}, sessions, logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))
	})

	It("publishes an exchange event per completed turn", func() {
		publisher := &recordingPublisher{}
		server := NewServer(Config{
			ListenAddr: ":0",
			Publisher:  publisher,
			Provider:   "ollama",
			Model:      "llama3.1",
			Mode:       "chat",
		}, newTestSessions("Hello!"), logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		Expect(publisher.events).To(HaveLen(1))
		event := publisher.events[0]
		Expect(event.EventType).To(Equal(eventstream.EventTypeExchangeCompleted))
		Expect(event.Exchange).To(Equal(eventstream.Exchange{User: "hi", Assistant: "Hello!"}))
		Expect(event.Source.Provider).To(Equal("ollama"))
		Expect(event.SessionID).NotTo(BeEmpty())
	})
})

var _ = Describe("handleClearChat", func() {
	It("requires a session id", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions(), logger.Nop())

		resp := postJSON(server.app, "/v1/chat/clear", ClearRequest{})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("returns 404 for unknown sessions", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions(), logger.Nop())

		resp := postJSON(server.app, "/v1/chat/clear", ClearRequest{SessionID: "nope"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
	})

	It("clears the session and restores the configured greeting", func() {
		sessions := newTestSessions("Hello!")
		server := NewServer(Config{ListenAddr: ":0", Greeting: "How can I help you?"}, sessions, logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		var chat ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&chat)).To(Succeed())

		resp = postJSON(server.app, "/v1/chat/clear", ClearRequest{SessionID: chat.SessionID})
		Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

		sess, err := sessions.Lookup(chat.SessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.Transcript()).To(Equal([]session.Entry{
			{Role: session.RoleAssistant, Text: "How can I help you?"},
		}))
	})

	It("honors an explicit empty seed", func() {
		sessions := newTestSessions("Hello!")
		server := NewServer(Config{ListenAddr: ":0", Greeting: "How can I help you?"}, sessions, logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		var chat ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&chat)).To(Succeed())

		empty := ""
		resp = postJSON(server.app, "/v1/chat/clear", ClearRequest{SessionID: chat.SessionID, Seed: &empty})
		Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

		sess, err := sessions.Lookup(chat.SessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.Transcript()).To(BeEmpty())
	})
})

var _ = Describe("handleTranscript", func() {
	It("returns 404 for unknown sessions", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions(), logger.Nop())

		req, err := http.NewRequest(http.MethodGet, "/v1/sessions/nope/transcript", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
	})

	It("returns the transcript in order", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions("Hello!"), logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		var chat ChatResponse
		Expect(json.NewDecoder(resp.Body).Decode(&chat)).To(Succeed())

		req, err := http.NewRequest(http.MethodGet, "/v1/sessions/"+chat.SessionID+"/transcript", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err = server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var got TranscriptResponse
		Expect(json.NewDecoder(resp.Body).Decode(&got)).To(Succeed())
		Expect(got.Transcript).To(Equal([]session.Entry{
			{Role: session.RoleUser, Text: "hi"},
			{Role: session.RoleAssistant, Text: "Hello!"},
		}))
	})
})

var _ = Describe("handlePing", func() {
	It("responds with pong", func() {
		server := NewServer(Config{ListenAddr: ":0"}, newTestSessions(), logger.Nop())

		req, err := http.NewRequest(http.MethodGet, "/ping", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
	})
})

var _ = Describe("error mapping", func() {
	It("maps unexpected failures to 500", func() {
		sessions, err := session.NewManager(func() (*assistant.Assistant, error) {
			backend := testutils.NewMockBackend()
			backend.Err = errors.New("spontaneous failure")
			return assistant.New(assistant.Config{
				Backend: backend,
				Mode:    assistant.ModeChat,
			}, logger.Nop())
		}, 0, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		server := NewServer(Config{ListenAddr: ":0"}, sessions, logger.Nop())

		resp := postJSON(server.app, "/v1/chat", ChatRequest{Message: "hi"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
	})
})
