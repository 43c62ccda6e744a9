package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/token"
)

type memStore struct {
	records map[uint64]model.RefreshToken
	nextID  uint64
}

func (m *memStore) Create(_ context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	m.nextID++
	m.records[m.nextID] = model.RefreshToken{ID: m.nextID, UserID: userID, ExpiresAt: expiresAt}
	return m.nextID, nil
}

func (m *memStore) FindByID(_ context.Context, id uint64) (model.RefreshToken, error) {
	rec, ok := m.records[id]
	if !ok || time.Now().UTC().After(rec.ExpiresAt) {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) DeleteByID(_ context.Context, id uint64) error {
	delete(m.records, id)
	return nil
}

func TestValidateRefresh(t *testing.T) {
	kp := testProvider(t)
	store := &memStore{records: map[uint64]model.RefreshToken{}}
	svc := token.NewService(kp, "refresh-secret", store)

	pair, err := svc.IssuePair(context.Background(), 11, model.RoleManager)
	require.NoError(t, err)

	run := func(cookie string) (*httptest.ResponseRecorder, bool, uint64, string, uint64) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "refreshToken", Value: cookie})
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var called bool
		var uid, rid uint64
		var role string
		h := ValidateRefresh(svc)(func(c echo.Context) error {
			called = true
			uid, _ = UserID(c)
			role, _ = Role(c)
			rid, _ = RefreshID(c)
			return c.NoContent(http.StatusOK)
		})
		_ = h(c)
		return rec, called, uid, role, rid
	}

	t.Run("valid token passes and fills context", func(t *testing.T) {
		rec, called, uid, role, rid := run(pair.RefreshToken)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
		assert.Equal(t, uint64(11), uid)
		assert.Equal(t, model.RoleManager, role)
		assert.Equal(t, uint64(1), rid)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec, called, _, _, _ := run("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("revoked record", func(t *testing.T) {
		require.NoError(t, svc.Revoke(context.Background(), 1))
		rec, called, _, _, _ := run(pair.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})
}
