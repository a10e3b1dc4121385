// Package utils provides token helpers for operator tooling and tests.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NewIdentityToken builds and signs an HS256 JWT the way the embedding
// host does: subject (sub), display name (name), role, expiration (exp)
// and issued at (iat). The service itself only verifies such tokens; the
// signer exists so tests and local tooling can mint them.
func NewIdentityToken(secret, userID, name, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"role": role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
