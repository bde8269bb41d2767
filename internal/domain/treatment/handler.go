package treatment

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthai/healthai/internal/knowledge"
	"github.com/healthai/healthai/internal/platform/telemetry"
)

// Handler serves the treatment plan endpoints.
type Handler struct {
	gen     *Generator
	kb      *knowledge.Base
	metrics *telemetry.EngineMetrics
}

// NewHandler creates a new treatment plan handler.
func NewHandler(gen *Generator, kb *knowledge.Base, metrics *telemetry.EngineMetrics) *Handler {
	return &Handler{gen: gen, kb: kb, metrics: metrics}
}

// RegisterRoutes registers treatment plan routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/treatment-plans", h.GeneratePlan)
	api.GET("/treatment-plans/common", h.ListCommonConditions)
}

// PlanRequest is the body of POST /api/v1/treatment-plans.
type PlanRequest struct {
	Condition string `json:"condition"`
}

// PlanResponse is a generated plan with its disclaimer.
type PlanResponse struct {
	Plan
	Disclaimer string `json:"disclaimer"`
}

// GeneratePlan handles POST /api/v1/treatment-plans.
func (h *Handler) GeneratePlan(c echo.Context) error {
	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Condition) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "condition is required")
	}

	ctx, span := telemetry.StartSpan(c.Request().Context(), "treatment.generate")
	defer span.End()

	start := time.Now()
	plan := h.gen.Generate(req.Condition)
	h.metrics.ObserveEvaluation(telemetry.EngineTreatment, string(plan.Source), time.Since(start))
	span.SetAttributes(attribute.String("treatment.source", string(plan.Source)))

	zerolog.Ctx(ctx).Debug().
		Str("source", string(plan.Source)).
		Msg("treatment plan generated")

	return c.JSON(http.StatusOK, PlanResponse{Plan: plan, Disclaimer: Disclaimer})
}

// ListCommonConditions handles GET /api/v1/treatment-plans/common.
func (h *Handler) ListCommonConditions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"conditions": h.kb.CommonConditions()})
}
