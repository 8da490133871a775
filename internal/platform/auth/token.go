// Package auth issues and verifies the bearer tokens used by the four
// tiers, and guards route groups by role.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role names match the person role column.
const (
	RoleSuperAdmin    = "super_admin"
	RoleHospitalAdmin = "hospital_admin"
	RoleDoctor        = "doctor"
	RolePatient       = "patient"
)

// Claims is the token payload: who, and at which tier.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issue signs an HS256 token for the given principal.
func Issue(secret []byte, subjectID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses and validates a token, returning the subject id and role.
func Verify(secret []byte, token string) (uuid.UUID, string, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	if !parsed.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid token subject: %w", err)
	}
	return id, claims.Role, nil
}
