package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/logger"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// UserHandler implements the admin-only user management endpoints.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    *logger.Logger
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, log *logger.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

type createUserReq struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	TenantID  *uint64 `json:"tenant_id"`
}

type updateUserReq struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	TenantID  *uint64 `json:"tenant_id"`
}

// userResp is the wire shape of a user. It has no field for the password
// hash, so the credential can never leak through serialization.
type userResp struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TenantID  *uint64   `json:"tenant_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		TenantID:  u.TenantID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type listResp struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	Data        any `json:"data"`
}

// Create lets an admin create a user with any role and tenant association.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validateRegistration(req.FirstName, req.LastName, req.Email, req.Password); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	u := model.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Role:      req.Role,
		TenantID:  req.TenantID,
	}
	id, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		h.Log.Error().Err(err).Msg("create user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	h.Log.Info().Uint64("id", id).Str("role", req.Role).Msg("user has been created")
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// GetOne fetches a user by id.
func (h *UserHandler) GetOne(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid url param"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user does not exist"})
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("user lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// GetAll lists users with optional q/role filters and pagination.
func (h *UserHandler) GetAll(c echo.Context) error {
	f := repository.UserFilter{
		Query:   c.QueryParam("q"),
		Role:    c.QueryParam("role"),
		Page:    queryInt(c, "current_page", 1),
		PerPage: queryInt(c, "per_page", 10),
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	users, total, err := h.Users.List(ctx, f)
	if err != nil {
		h.Log.Error().Err(err).Msg("list users failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	data := make([]userResp, 0, len(users))
	for _, u := range users {
		data = append(data, toUserResp(u))
	}
	return c.JSON(http.StatusOK, listResp{CurrentPage: f.Page, PerPage: f.PerPage, Total: total, Data: data})
}

// Update rewrites a user's profile fields. Passwords are not updatable here.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid url param"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first and last name are required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email should be a valid email"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	u := model.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Role:      req.Role,
		TenantID:  req.TenantID,
	}
	if err := h.Users.Update(ctx, id, &u); err != nil {
		h.Log.Error().Err(err).Msg("update user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	h.Log.Info().Uint64("id", id).Msg("user has been updated")
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// Destroy deletes a user and all their refresh token records, so no orphaned
// session of theirs can rotate afterwards.
func (h *UserHandler) Destroy(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid url param"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	if err := h.Tokens.DeleteAllForUser(ctx, id); err != nil {
		h.Log.Error().Err(err).Msg("delete user tokens failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if err := h.Users.DeleteByID(ctx, id); err != nil {
		h.Log.Error().Err(err).Msg("delete user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	h.Log.Info().Uint64("id", id).Msg("user has been deleted")
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
