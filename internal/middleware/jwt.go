// Package middleware contains the reusable HTTP middleware: bearer-token
// authentication, the Redis token-bucket rate limiter and metrics
// collection.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinepass/boxoffice/internal/auth"
)

// userIDKey is the context key the handlers read the caller identity from.
const userIDKey = "user_id"

// JWTAuth validates a Bearer access token and stores its subject in the
// request context. Protected handlers read it via UserID(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			sub, err := auth.ParseSubject(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(userIDKey, sub)
			return next(c)
		}
	}
}

// UserID returns the authenticated caller's identity, or "" when the route
// is not behind JWTAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
