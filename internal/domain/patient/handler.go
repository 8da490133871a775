package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/auth"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Handler exposes the code-keyed patient endpoints. The patient code acts
// as the credential here; there is no patient login.
type Handler struct {
	service *Service
}

// NewHandler creates a new patient handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the code-keyed reads on the public group,
// direct patient creation on the hospital admin group, and the doctor's
// own create/list routes.
func (h *Handler) RegisterRoutes(public, hospitalG, doctorG *echo.Group) {
	public.GET("/patients/:code", h.Profile)
	public.GET("/patients/:code/tests", h.Tests)
	public.GET("/patients/:code/tests/:testId/report", h.Report)

	hospitalG.POST("/patients", h.Create)

	doctorG.POST("/patients", h.CreateAsDoctor)
	doctorG.GET("/patients", h.ListMine)
}

// Create handles POST /hospital-admin/patients.
func (h *Handler) Create(c echo.Context) error {
	var req CreateInput
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	p, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// CreateAsDoctor handles POST /doctor/patients. The authenticated doctor
// becomes the owning doctor regardless of the request body.
func (h *Handler) CreateAsDoctor(c echo.Context) error {
	var req CreateInput
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}
	req.DoctorID = auth.PrincipalID(c.Request().Context())

	p, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// ListMine handles GET /doctor/patients.
func (h *Handler) ListMine(c echo.Context) error {
	patients, err := h.service.ListByDoctor(c.Request().Context(), auth.PrincipalID(c.Request().Context()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patients)
}

// Profile handles GET /patients/:code.
func (h *Handler) Profile(c echo.Context) error {
	profile, err := h.service.GetProfileByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Tests handles GET /patients/:code/tests.
func (h *Handler) Tests(c echo.Context) error {
	tests, err := h.service.ListTestsByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tests)
}

// Report handles GET /patients/:code/tests/:testId/report.
func (h *Handler) Report(c echo.Context) error {
	testID, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		return httperr.New(httperr.Validation, "malformed test id")
	}

	report, err := h.service.GetReportByCode(c.Request().Context(), c.Param("code"), testID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
