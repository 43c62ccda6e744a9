package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/logger"
	"github.com/iliyamo/auth-service/internal/metrics"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	queue_publisher "github.com/iliyamo/auth-service/internal/service"
	"github.com/iliyamo/auth-service/internal/token"
	"github.com/iliyamo/auth-service/internal/utils"
)

// credentialMismatch is deliberately identical for unknown email and wrong
// password so callers cannot probe which accounts exist.
const credentialMismatch = "Email or password does not match."

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Tokens  *token.Service
	Log     *logger.Logger
	Metrics *metrics.Collector
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *token.Service, log *logger.Logger, m *metrics.Collector) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log, Metrics: m}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a customer account and logs it in immediately: the token
// pair is set as cookies and only the new id is returned in the body.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validateRegistration(req.FirstName, req.LastName, req.Email, req.Password); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	// Self-registration never grants an elevated role.
	u := model.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Role:      model.RoleCustomer,
	}
	uid, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			h.Metrics.RecordRegistration("duplicate")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		h.Log.Error().Err(err).Msg("create user failed")
		h.Metrics.RecordRegistration("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	h.Log.Info().Uint64("id", uid).Msg("user has been registered")

	pair, err := h.Tokens.IssuePair(ctx, uid, model.RoleCustomer)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue token pair failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	setTokenCookies(c, pair)
	h.Metrics.RecordRegistration("ok")
	h.Metrics.RecordPairIssued()

	// Broker failures are logged inside the publisher and ignored here.
	_ = queue_publisher.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:       uid,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": uid})
}

// Login verifies the credential and issues a fresh pair as cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		h.Metrics.RecordLogin("mismatch")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": credentialMismatch})
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("user lookup failed")
		h.Metrics.RecordLogin("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Metrics.RecordLogin("mismatch")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": credentialMismatch})
	}

	pair, err := h.Tokens.IssuePair(ctx, u.ID, u.Role)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue token pair failed")
		h.Metrics.RecordLogin("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	setTokenCookies(c, pair)
	h.Metrics.RecordLogin("ok")
	h.Metrics.RecordPairIssued()
	h.Log.Info().Uint64("id", u.ID).Msg("user has been logged in")

	return c.JSON(http.StatusOK, echo.Map{"id": u.ID})
}

// Self returns the authenticated user's record, with the credential hash
// stripped by the response type.
func (h *AuthHandler) Self(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("user lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Refresh rotates the presented refresh token: a new record and pair are
// created before the old record is deleted, so a failure mid-way leaves an
// extra live session rather than a logged-out user. Requires the
// ValidateRefresh middleware.
func (h *AuthHandler) Refresh(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	oldID, ok2 := middleware.RefreshID(c)
	if !ok || !ok2 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	// Reload the principal: it may have been deleted since issuance, and its
	// role may have changed.
	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		h.Metrics.RecordRefresh("orphaned")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user with this token could not be found"})
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("user lookup failed")
		h.Metrics.RecordRefresh("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	pair, err := h.Tokens.Rotate(ctx, u.ID, u.Role, oldID)
	if err != nil {
		h.Log.Error().Err(err).Msg("rotate refresh token failed")
		h.Metrics.RecordRefresh("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	setTokenCookies(c, pair)
	h.Metrics.RecordRefresh("ok")
	h.Metrics.RecordPairIssued()
	h.Log.Info().Uint64("id", u.ID).Msg("tokens have been refreshed")

	return c.JSON(http.StatusOK, echo.Map{"id": u.ID})
}

// Logout revokes the presented refresh record and clears both cookies. A
// record that is already gone counts as logged out. Requires the
// ValidateRefresh middleware.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	recordID, ok := middleware.RefreshID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, recordID); err != nil {
		h.Log.Error().Err(err).Msg("revoke refresh token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	clearTokenCookies(c)
	h.Log.Info().Uint64("id", uid).Uint64("refresh_id", recordID).Msg("user has been logged out")

	return c.JSON(http.StatusOK, echo.Map{})
}

// ----- helpers -----

// requestContext bounds DB work to 5s and carries the handler logger for
// downstream packages.
func requestContext(c echo.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx := log.WithContext(c.Request().Context())
	return context.WithTimeout(ctx, 5*time.Second)
}

func validateRegistration(first, last, email, password string) string {
	if strings.TrimSpace(first) == "" {
		return "first name is required"
	}
	if strings.TrimSpace(last) == "" {
		return "last name is required"
	}
	if email == "" {
		return "email is required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "email should be a valid email"
	}
	if len(password) < 8 {
		return "password length should be at least 8 chars"
	}
	return ""
}

func setTokenCookies(c echo.Context, pair token.Pair) {
	c.SetCookie(&http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(token.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(token.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookies(c echo.Context) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
