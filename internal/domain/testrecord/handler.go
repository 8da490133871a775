package testrecord

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/auth"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Handler exposes the doctor-facing test endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new test record handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the recording and report routes on the doctor
// group.
func (h *Handler) RegisterRoutes(doctorG *echo.Group) {
	doctorG.POST("/tests/report", h.GenerateReport)
	doctorG.POST("/tests", h.Record)
}

type reportRequest struct {
	PuckID    string `json:"puckId"`
	Timestamp string `json:"timestamp"`
}

// GenerateReport handles POST /doctor/tests/report.
func (h *Handler) GenerateReport(c echo.Context) error {
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	result, err := h.service.GenerateReport(c.Request().Context(), req.PuckID, req.Timestamp)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Record handles POST /doctor/tests.
func (h *Handler) Record(c echo.Context) error {
	var req RecordInput
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	ctx := c.Request().Context()
	t, err := h.service.Record(ctx, auth.PrincipalID(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}
