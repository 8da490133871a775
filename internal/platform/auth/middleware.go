package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneedx/kneedx/internal/platform/httperr"
)

type contextKey string

const (
	principalIDKey contextKey = "principal_id"
	roleKey        contextKey = "principal_role"
)

// Middleware resolves the Authorization bearer token into a principal id
// and role on the request context. Requests without a valid token are
// rejected; public routes (logins, patient-code reads, health) are
// registered outside the guarded groups.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return httperr.New(httperr.Unauthorized, "missing credentials")
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return httperr.New(httperr.Unauthorized, "malformed authorization header")
			}

			id, role, err := Verify(secret, token)
			if err != nil {
				return httperr.Wrap(httperr.Unauthorized, "invalid credentials", err)
			}

			ctx := context.WithValue(c.Request().Context(), principalIDKey, id)
			ctx = context.WithValue(ctx, roleKey, role)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole allows only principals holding one of the given roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return httperr.Newf(httperr.Forbidden, "required role: %s", strings.Join(roles, " or "))
		}
	}
}

// PrincipalID returns the authenticated principal's record id.
func PrincipalID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(principalIDKey).(uuid.UUID)
	return id
}

// RoleFromContext returns the authenticated principal's role.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
