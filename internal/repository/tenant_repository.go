package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/auth-service/internal/model"
)

// TenantRepo persists tenants.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// TenantFilter narrows List results.
type TenantFilter struct {
	Query   string
	Page    int
	PerPage int
}

// Create inserts a tenant and returns its id.
func (r *TenantRepo) Create(ctx context.Context, name, address string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tenants (name, address) VALUES (?,?)", name, address)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a tenant by id. Returns ErrNotFound when no tenant matches.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,address,created_at,updated_at FROM tenants WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Tenant{}, ErrNotFound
	}
	return t, err
}

// Update rewrites a tenant's name and address.
func (r *TenantRepo) Update(ctx context.Context, id uint64, name, address string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET name=?, address=? WHERE id=?", name, address, id)
	return err
}

// List returns a page of tenants plus the total count for the filter.
func (r *TenantRepo) List(ctx context.Context, f TenantFilter) ([]model.Tenant, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Query != "" {
		where += " AND (name LIKE ? OR address LIKE ?)"
		q := "%" + f.Query + "%"
		args = append(args, q, q)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 10
	}
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,address,created_at,updated_at FROM tenants"+where+" ORDER BY id DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, total, rows.Err()
}

// DeleteByID removes a tenant. Deleting a missing tenant is not an error.
func (r *TenantRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tenants WHERE id=?", id)
	return err
}
