package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/logger"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// TenantHandler implements tenant management. Writes are admin-only, reads
// are open to any authenticated user; the role gate lives in the router.
type TenantHandler struct {
	Tenants *repository.TenantRepo
	Log     *logger.Logger
}

func NewTenantHandler(t *repository.TenantRepo, log *logger.Logger) *TenantHandler {
	return &TenantHandler{Tenants: t, Log: log}
}

type tenantReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type tenantResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTenantResp(t model.Tenant) tenantResp {
	return tenantResp{ID: t.ID, Name: t.Name, Address: t.Address, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address are required"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	id, err := h.Tenants.Create(ctx, req.Name, req.Address)
	if err != nil {
		h.Log.Error().Err(err).Msg("create tenant failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tenant failed"})
	}
	h.Log.Info().Uint64("id", id).Msg("tenant has been created")
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *TenantHandler) GetOne(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid url param"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant does not exist"})
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("tenant lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toTenantResp(t))
}

func (h *TenantHandler) GetAll(c echo.Context) error {
	f := repository.TenantFilter{
		Query:   c.QueryParam("q"),
		Page:    queryInt(c, "current_page", 1),
		PerPage: queryInt(c, "per_page", 10),
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	tenants, total, err := h.Tenants.List(ctx, f)
	if err != nil {
		h.Log.Error().Err(err).Msg("list tenants failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	data := make([]tenantResp, 0, len(tenants))
	for _, t := range tenants {
		data = append(data, toTenantResp(t))
	}
	return c.JSON(http.StatusOK, listResp{CurrentPage: f.Page, PerPage: f.PerPage, Total: total, Data: data})
}

func (h *TenantHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid url param"})
	}
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address are required"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	if err := h.Tenants.Update(ctx, id, req.Name, req.Address); err != nil {
		h.Log.Error().Err(err).Msg("update tenant failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update tenant failed"})
	}
	h.Log.Info().Uint64("id", id).Msg("tenant has been updated")
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

func (h *TenantHandler) Destroy(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid url param"})
	}

	ctx, cancel := requestContext(c, h.Log)
	defer cancel()

	if err := h.Tenants.DeleteByID(ctx, id); err != nil {
		h.Log.Error().Err(err).Msg("delete tenant failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete tenant failed"})
	}
	h.Log.Info().Uint64("id", id).Msg("tenant has been deleted")
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}
