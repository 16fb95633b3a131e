package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/anycompanyretail/shopbot/pkg/eventstream"
	"github.com/anycompanyretail/shopbot/pkg/llm"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
	"github.com/anycompanyretail/shopbot/pkg/session"
)

// ChatRequest is the body for POST /v1/chat. An empty or stale session id
// starts a fresh session.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the reply for one chat turn.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ClearRequest is the body for POST /v1/chat/clear. When Seed is omitted the
// configured greeting is restored.
type ClearRequest struct {
	SessionID string  `json:"session_id"`
	Seed      *string `json:"seed,omitempty"`
}

// TranscriptResponse is the reply for GET /v1/sessions/:id/transcript.
type TranscriptResponse struct {
	SessionID  string          `json:"session_id"`
	Transcript []session.Entry `json:"transcript"`
}

// handleChat processes one chat turn.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	sess, err := s.sessions.Resolve(req.SessionID)
	if err != nil {
		s.logger.Error("failed to resolve session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to start session"})
	}

	started := time.Now()
	reply, err := sess.Submit(c.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "session_id", sess.ID(), "error", err)

		status := fiber.StatusInternalServerError
		if errors.Is(err, llm.ErrBackend) || errors.Is(err, retriever.ErrRetrieval) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(ErrorResponse{Error: "something went wrong, please try again"})
	}

	s.publishExchange(c, sess.ID(), req.Message, reply, time.Since(started))

	return c.JSON(ChatResponse{
		SessionID: sess.ID(),
		Reply:     reply,
	})
}

// handleClearChat resets a session's conversation.
func (s *Server) handleClearChat(c *fiber.Ctx) error {
	var req ClearRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "session_id is required"})
	}

	sess, err := s.sessions.Lookup(req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	seed := s.config.Greeting
	if req.Seed != nil {
		seed = *req.Seed
	}
	sess.Clear(seed)

	return c.SendStatus(fiber.StatusNoContent)
}

// handleTranscript returns a session's transcript so far.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "session id required"})
	}

	sess, err := s.sessions.Lookup(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	return c.JSON(TranscriptResponse{
		SessionID:  sess.ID(),
		Transcript: sess.Transcript(),
	})
}

// publishExchange emits an exchange event. Publish failures are logged, not
// surfaced: the turn already succeeded.
func (s *Server) publishExchange(c *fiber.Ctx, sessionID, user, reply string, elapsed time.Duration) {
	if s.config.Publisher == nil {
		return
	}

	event := &eventstream.ExchangeCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeExchangeCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			Provider: s.config.Provider,
			Model:    s.config.Model,
			Mode:     s.config.Mode,
		},
		SessionID:  sessionID,
		Exchange:   eventstream.Exchange{User: user, Assistant: reply},
		DurationMs: elapsed.Milliseconds(),
	}

	if err := s.config.Publisher.PublishExchange(c.Context(), event); err != nil {
		s.logger.Warn("failed to publish exchange event", "event_id", event.EventID, "error", err)
	}
}
