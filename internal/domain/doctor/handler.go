package doctor

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/auth"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Handler exposes the clinician-tier HTTP endpoints.
type Handler struct {
	service  *Service
	secret   []byte
	tokenTTL time.Duration
}

// NewHandler creates a new doctor handler.
func NewHandler(service *Service, secret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, secret: secret, tokenTTL: tokenTTL}
}

// RegisterRoutes registers the login route on the public group, doctor
// management on the hospital admin group and the dashboard on the doctor
// group.
func (h *Handler) RegisterRoutes(public, hospitalG, doctorG *echo.Group) {
	public.POST("/auth/doctor/login", h.Login)

	hospitalG.POST("/doctors", h.Create)
	hospitalG.POST("/doctors/allocate", h.Allocate)

	doctorG.GET("/dashboard", h.Dashboard)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  *Doctor `json:"user"`
}

// Login handles POST /auth/doctor/login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	d, err := h.service.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := auth.Issue(h.secret, d.ID, auth.RoleDoctor, h.tokenTTL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: d})
}

// Create handles POST /hospital-admin/doctors.
func (h *Handler) Create(c echo.Context) error {
	var req CreateInput
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	ctx := c.Request().Context()
	d, err := h.service.Create(ctx, auth.PrincipalID(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

type allocateRequest struct {
	DoctorID uuid.UUID `json:"doctorId"`
	Count    int       `json:"count"`
}

// Allocate handles POST /hospital-admin/doctors/allocate.
func (h *Handler) Allocate(c echo.Context) error {
	var req allocateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}
	if req.DoctorID == uuid.Nil {
		return httperr.New(httperr.Validation, "doctorId is required")
	}

	ctx := c.Request().Context()
	result, err := h.service.Allocate(ctx, auth.PrincipalID(ctx), req.DoctorID, req.Count)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Dashboard handles GET /doctor/dashboard.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	dash, err := h.service.GetDashboard(ctx, auth.PrincipalID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dash)
}
