package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/model"
)

func testProvider(t *testing.T) *keys.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	kp, err := keys.Load(pemStr, "")
	require.NoError(t, err)
	return kp
}

func signAccess(t *testing.T, kp *keys.Provider, sub, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": sub, "role": role, "iat": now.Unix(), "exp": now.Add(ttl).Unix(),
	})
	signed, err := tok.SignedString(kp.Private())
	require.NoError(t, err)
	return signed
}

// runAuthenticated sends a request through Authenticate and reports the
// recorded response plus whether the wrapped handler ran.
func runAuthenticated(kp *keys.Provider, decorate func(*http.Request)) (*httptest.ResponseRecorder, bool, uint64, string) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var called bool
	var uid uint64
	var role string
	h := Authenticate(kp)(func(c echo.Context) error {
		called = true
		uid, _ = UserID(c)
		role, _ = Role(c)
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, called, uid, role
}

func TestAuthenticate_CookieToken(t *testing.T) {
	kp := testProvider(t)
	signed := signAccess(t, kp, "42", model.RoleCustomer, time.Hour)

	rec, called, uid, role := runAuthenticated(kp, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: signed})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, model.RoleCustomer, role)
}

func TestAuthenticate_BearerToken(t *testing.T) {
	kp := testProvider(t)
	signed := signAccess(t, kp, "7", model.RoleAdmin, time.Hour)

	rec, called, uid, role := runAuthenticated(kp, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signed)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, uint64(7), uid)
	assert.Equal(t, model.RoleAdmin, role)
}

func TestAuthenticate_Rejections(t *testing.T) {
	kp := testProvider(t)
	other := testProvider(t)

	tests := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{"missing token", nil},
		{"garbage cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: "nope"})
		}},
		{"expired token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: signAccess(t, kp, "1", model.RoleCustomer, -time.Minute)})
		}},
		{"wrong key", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: signAccess(t, other, "1", model.RoleCustomer, time.Hour)})
		}},
		{"hmac signed token", func(r *http.Request) {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "1", "role": model.RoleCustomer, "exp": time.Now().Add(time.Hour).Unix(),
			})
			signed, err := tok.SignedString([]byte("whatever"))
			require.NoError(t, err)
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: signed})
		}},
		{"non numeric subject", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: signAccess(t, kp, "abc", model.RoleCustomer, time.Hour)})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called, _, _ := runAuthenticated(kp, tt.decorate)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		ctxRole  any
		allowed  []string
		wantCode int
	}{
		{"customer denied admin-only", model.RoleCustomer, []string{model.RoleAdmin}, http.StatusForbidden},
		{"customer allowed in wider set", model.RoleCustomer, []string{model.RoleCustomer, model.RoleAdmin}, http.StatusOK},
		{"admin allowed", model.RoleAdmin, []string{model.RoleAdmin}, http.StatusOK},
		{"manager denied admin-only", model.RoleManager, []string{model.RoleAdmin}, http.StatusForbidden},
		{"missing role", nil, []string{model.RoleAdmin}, http.StatusForbidden},
		{"role of wrong type", 123, []string{model.RoleAdmin}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.ctxRole != nil {
				c.Set(CtxRole, tt.ctxRole)
			}

			h := RequireRole(tt.allowed...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			_ = h(c)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
