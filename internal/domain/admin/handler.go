package admin

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/auth"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Handler exposes the administrative-tier HTTP endpoints.
type Handler struct {
	service  *Service
	secret   []byte
	tokenTTL time.Duration
}

// NewHandler creates a new admin handler.
func NewHandler(service *Service, secret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, secret: secret, tokenTTL: tokenTTL}
}

// RegisterRoutes registers login routes on the public group and the
// dashboard and allocation routes on the role-gated groups.
func (h *Handler) RegisterRoutes(public, superG, hospitalG *echo.Group) {
	public.POST("/auth/super-admin/login", h.LoginSuperAdmin)
	public.POST("/auth/hospital-admin/login", h.LoginHospitalAdmin)

	superG.GET("/dashboard", h.SuperAdminDashboard)
	superG.POST("/hospital-admins", h.CreateHospitalAdmin)
	superG.POST("/reallocate", h.Reallocate)

	hospitalG.GET("/dashboard", h.HospitalAdminDashboard)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// LoginSuperAdmin handles POST /auth/super-admin/login.
func (h *Handler) LoginSuperAdmin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	sa, err := h.service.AuthenticateSuperAdmin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := auth.Issue(h.secret, sa.ID, auth.RoleSuperAdmin, h.tokenTTL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: sa})
}

// LoginHospitalAdmin handles POST /auth/hospital-admin/login.
func (h *Handler) LoginHospitalAdmin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	ha, err := h.service.AuthenticateHospitalAdmin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := auth.Issue(h.secret, ha.ID, auth.RoleHospitalAdmin, h.tokenTTL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: ha})
}

// SuperAdminDashboard handles GET /super-admin/dashboard.
func (h *Handler) SuperAdminDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	dash, err := h.service.GetSuperAdminDashboard(ctx, auth.PrincipalID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dash)
}

// HospitalAdminDashboard handles GET /hospital-admin/dashboard.
func (h *Handler) HospitalAdminDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	dash, err := h.service.GetHospitalAdminDashboard(ctx, auth.PrincipalID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dash)
}

// CreateHospitalAdmin handles POST /super-admin/hospital-admins.
func (h *Handler) CreateHospitalAdmin(c echo.Context) error {
	var req CreateHospitalAdminInput
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}

	ctx := c.Request().Context()
	ha, err := h.service.CreateHospitalAdmin(ctx, auth.PrincipalID(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ha)
}

type reallocateRequest struct {
	HospitalAdminID uuid.UUID `json:"hospitalAdminId"`
	Count           int       `json:"count"`
}

// Reallocate handles POST /super-admin/reallocate.
func (h *Handler) Reallocate(c echo.Context) error {
	var req reallocateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}
	if req.HospitalAdminID == uuid.Nil {
		return httperr.New(httperr.Validation, "hospitalAdminId is required")
	}

	ctx := c.Request().Context()
	result, err := h.service.ReallocateNetwork(ctx, auth.PrincipalID(ctx), req.HospitalAdminID, req.Count)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
