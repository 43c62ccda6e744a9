// Package middleware provides the request gates shared by protected routes:
// access token authentication, refresh token validation, role enforcement
// and rate limiting.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/keys"
)

// Context keys written by Authenticate and ValidateRefresh and read by
// RequireRole and the handlers.
const (
	CtxUserID    = "user_id"    // uint64
	CtxRole      = "role"       // string
	CtxRefreshID = "refresh_id" // uint64, set by ValidateRefresh only
)

// Authenticate returns an Echo middleware that verifies an access token and
// injects the subject and role into the request context. The token is read
// from the accessToken cookie, falling back to an Authorization bearer
// header. Verification uses the provider's RSA public key; any failure
// (missing, malformed, expired, bad signature) rejects the request with 401
// before the handler runs.
func Authenticate(k *keys.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessTokenFrom(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing access token"})
			}

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Only RS256 tokens are ours; reject anything else before
				// the signature is even checked.
				if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
					return nil, echo.ErrUnauthorized
				}
				return k.Public(), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			sub, _ := claims["sub"].(string)
			uid, err := strconv.ParseUint(sub, 10, 64)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, ok := claims["role"].(string)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(CtxUserID, uid)
			c.Set(CtxRole, role)
			return next(c)
		}
	}
}

// accessTokenFrom extracts the raw access token from the request. Cookies
// are the primary transport (set by the auth handlers); the bearer header
// serves non-browser clients.
func accessTokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// UserID reads the authenticated user id set by Authenticate/ValidateRefresh.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(CtxUserID).(uint64)
	return v, ok
}

// Role reads the authenticated role.
func Role(c echo.Context) (string, bool) {
	v, ok := c.Get(CtxRole).(string)
	return v, ok
}

// RefreshID reads the refresh record id set by ValidateRefresh.
func RefreshID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(CtxRefreshID).(uint64)
	return v, ok
}
