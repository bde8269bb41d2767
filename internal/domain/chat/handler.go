package chat

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthai/healthai/internal/platform/telemetry"
)

// Evaluator is the part of the Responder the HTTP handler depends on.
type Evaluator interface {
	Evaluate(message string) Reply
	Session() Session
	Apology() string
}

// Handler serves the chat endpoints.
type Handler struct {
	responder Evaluator
	metrics   *telemetry.EngineMetrics
}

// NewHandler creates a new chat handler.
func NewHandler(responder Evaluator, metrics *telemetry.EngineMetrics) *Handler {
	return &Handler{responder: responder, metrics: metrics}
}

// RegisterRoutes registers chat routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/chat/session", h.GetSession)
	api.POST("/chat/messages", h.SendMessage)
}

// SendMessageRequest is the body of POST /api/v1/chat/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse carries the user's message and the assistant reply.
type SendMessageResponse struct {
	Message Message `json:"message"`
	Reply   Message `json:"reply"`
}

// GetSession handles GET /api/v1/chat/session.
func (h *Handler) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, h.responder.Session())
}

// SendMessage handles POST /api/v1/chat/messages. A responder failure is
// logged and answered with the apology text.
func (h *Handler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	ctx, span := telemetry.StartSpan(c.Request().Context(), "chat.respond",
		attribute.Int("chat.message_length", len(req.Content)))
	defer span.End()

	start := time.Now()
	reply, err := h.evaluate(req.Content)
	elapsed := time.Since(start)

	outcome := "rule"
	switch {
	case err != nil:
		outcome = "apology"
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("chat responder failed")
		reply = Reply{Text: h.responder.Apology(), Rule: -1}
	case !reply.Matched():
		outcome = "fallback"
	}
	h.metrics.ObserveEvaluation(telemetry.EngineChat, outcome, elapsed)
	span.SetAttributes(
		attribute.Int("chat.rule", reply.Rule),
		attribute.String("chat.outcome", outcome),
	)

	zerolog.Ctx(ctx).Debug().
		Int("rule", reply.Rule).
		Str("keyword", reply.Keyword).
		Msg("chat message answered")

	return c.JSON(http.StatusOK, SendMessageResponse{
		Message: NewUserMessage(req.Content),
		Reply:   NewAssistantMessage(reply.Text),
	})
}

// evaluate converts a responder panic into an error.
func (h *Handler) evaluate(content string) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panic: %v", r)
		}
	}()
	return h.responder.Evaluate(content), nil
}
