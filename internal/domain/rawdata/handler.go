package rawdata

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Handler exposes the puck upload endpoints. Pucks authenticate by
// possession of their id; the buffer holds nothing identifying a patient.
type Handler struct {
	store *Store
}

// NewHandler creates a new raw data handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers the upload routes.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/raw-data", h.Upload)
	g.GET("/raw-data/:puckId", h.Get)
	g.DELETE("/raw-data/:puckId", h.Delete)
}

type uploadRequest struct {
	PuckID string          `json:"puckId"`
	Data   json.RawMessage `json:"data"`
}

// Upload handles POST /raw-data.
func (h *Handler) Upload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return httperr.New(httperr.Validation, "invalid request body")
	}
	if strings.TrimSpace(req.PuckID) == "" {
		return httperr.New(httperr.Validation, "puckId is required")
	}
	if len(req.Data) == 0 {
		return httperr.New(httperr.Validation, "data is required")
	}

	count, err := h.store.Append(c.Request().Context(), req.PuckID, req.Data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"puckId": req.PuckID,
		"frames": count,
	})
}

// Get handles GET /raw-data/:puckId.
func (h *Handler) Get(c echo.Context) error {
	capture, err := h.store.Get(c.Request().Context(), c.Param("puckId"))
	if errors.Is(err, ErrNotFound) {
		return httperr.New(httperr.NotFound, "no raw data for puck")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, capture)
}

// Delete handles DELETE /raw-data/:puckId.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("puckId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
