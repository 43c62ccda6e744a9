package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/token"
)

// ValidateRefresh returns an Echo middleware guarding the refresh and logout
// endpoints. It reads the refreshToken cookie and verifies it through the
// token service, which checks the HS256 signature and requires the embedded
// record id to resolve to a live, unexpired record. On success the subject,
// role and record id are placed in the context; on any verification failure
// the request is rejected with 401. A store failure is a 500, not an
// authorization failure.
func ValidateRefresh(svc *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie("refreshToken")
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
			}

			claims, err := svc.VerifyRefresh(c.Request().Context(), cookie.Value)
			if errors.Is(err, token.ErrTokenInvalid) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh lookup failed"})
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxRefreshID, claims.RecordID)
			return next(c)
		}
	}
}
