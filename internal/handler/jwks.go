package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/keys"
)

// JWKS serves the published public key set so other services can verify
// access tokens without a shared secret. The document is immutable for the
// process lifetime.
func JWKS(p *keys.Provider) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, p.PublicKeySet())
	}
}
