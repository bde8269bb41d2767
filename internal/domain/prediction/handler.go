package prediction

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthai/healthai/internal/knowledge"
	"github.com/healthai/healthai/internal/platform/telemetry"
	"github.com/healthai/healthai/pkg/pagination"
)

// Handler serves the symptom matching endpoints.
type Handler struct {
	matcher *Matcher
	kb      *knowledge.Base
	metrics *telemetry.EngineMetrics
}

// NewHandler creates a new prediction handler.
func NewHandler(matcher *Matcher, kb *knowledge.Base, metrics *telemetry.EngineMetrics) *Handler {
	return &Handler{matcher: matcher, kb: kb, metrics: metrics}
}

// RegisterRoutes registers prediction and condition routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/predictions", h.Predict)
	api.GET("/symptoms", h.ListCommonSymptoms)
	api.GET("/conditions", h.ListConditions)
	api.GET("/conditions/:name", h.GetCondition)
}

// PredictRequest is the body of POST /api/v1/predictions.
type PredictRequest struct {
	Symptoms []string `json:"symptoms"`
}

// PredictResponse echoes the normalized symptoms with the ranked conditions.
type PredictResponse struct {
	Symptoms    []string          `json:"symptoms"`
	Predictions []ScoredCondition `json:"predictions"`
	Disclaimer  string            `json:"disclaimer"`
}

// Predict handles POST /api/v1/predictions.
func (h *Handler) Predict(c echo.Context) error {
	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(c.Request().Context(), "prediction.match",
		attribute.Int("symptoms.reported", len(req.Symptoms)))
	defer span.End()

	start := time.Now()
	results, err := h.matcher.Match(req.Symptoms)
	elapsed := time.Since(start)

	if errors.Is(err, ErrNoSymptoms) {
		h.metrics.ObserveEvaluation(telemetry.EnginePrediction, "rejected", elapsed)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	outcome := "matched"
	if len(results) == 0 {
		outcome = "no_match"
	}
	h.metrics.ObserveEvaluation(telemetry.EnginePrediction, outcome, elapsed)
	h.metrics.ObserveCandidates(len(results))
	span.SetAttributes(attribute.Int("prediction.candidates", len(results)))

	zerolog.Ctx(ctx).Debug().
		Int("symptoms", len(req.Symptoms)).
		Int("candidates", len(results)).
		Msg("symptoms matched")

	return c.JSON(http.StatusOK, PredictResponse{
		Symptoms:    NormalizeSymptoms(req.Symptoms),
		Predictions: results,
		Disclaimer:  Disclaimer,
	})
}

// ListCommonSymptoms handles GET /api/v1/symptoms.
func (h *Handler) ListCommonSymptoms(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"symptoms": h.kb.CommonSymptoms()})
}

// ListConditions handles GET /api/v1/conditions.
func (h *Handler) ListConditions(c echo.Context) error {
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.Page(h.kb.Conditions(), pg))
}

// GetCondition handles GET /api/v1/conditions/:name.
func (h *Handler) GetCondition(c echo.Context) error {
	cond, ok := h.kb.Condition(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "condition not found")
	}
	return c.JSON(http.StatusOK, cond)
}
