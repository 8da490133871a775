package appointment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/auth"
	"github.com/kneedx/kneedx/internal/platform/httperr"
	"github.com/kneedx/kneedx/pkg/pagination"
)

// Handler exposes the booking endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new appointment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers booking on the hospital admin group and the
// open-appointments listing on the doctor group.
func (h *Handler) RegisterRoutes(hospitalG, doctorG *echo.Group) {
	hospitalG.POST("/appointments", h.Create)
	doctorG.GET("/appointments", h.ListMine)
}

// Create handles POST /hospital-admin/appointments.
func (h *Handler) Create(c echo.Context) error {
	var req CreateInput
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	a, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// ListMine handles GET /doctor/appointments.
func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID := auth.PrincipalID(ctx)
	if doctorID == uuid.Nil {
		return httperr.New(httperr.Unauthorized, "missing credentials")
	}

	p := pagination.FromContext(c)
	appointments, total, err := h.service.ListByDoctor(ctx, doctorID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appointments, total, p.Limit, p.Offset))
}
