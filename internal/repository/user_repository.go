package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/utils"
)

// UserRepo persists users. The password is hashed here on create so that no
// plaintext ever reaches the database layer below.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserFilter narrows List results. Zero values mean "no filter".
type UserFilter struct {
	Query   string // matches name or email, substring
	Role    string
	Page    int
	PerPage int
}

// Create hashes password with the given bcrypt cost and inserts the user,
// returning the new id. The email is normalized to lower case.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, role, tenant_id) VALUES (?,?,?,?,?,?)",
		u.FirstName, u.LastName, email, hash, u.Role, u.TenantID)
	if err != nil {
		// MySQL 1062 = duplicate entry on the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email, including the password hash
// for credential verification. Returns ErrNotFound when no user matches.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,last_name,email,password_hash,role,tenant_id,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id. Returns ErrNotFound when no user matches.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,last_name,email,password_hash,role,tenant_id,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

// Update rewrites the mutable user fields. The password is not updatable
// through this method.
func (r *UserRepo) Update(ctx context.Context, id uint64, u *model.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, email=?, role=?, tenant_id=? WHERE id=?",
		u.FirstName, u.LastName, email, u.Role, u.TenantID, id)
	return err
}

// List returns a page of users plus the total count for the filter.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]model.User, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Query != "" {
		where += " AND (CONCAT(first_name,' ',last_name) LIKE ? OR email LIKE ?)"
		q := "%" + f.Query + "%"
		args = append(args, q, q)
	}
	if f.Role != "" {
		where += " AND role=?"
		args = append(args, f.Role)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
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
		"SELECT id,first_name,last_name,email,password_hash,role,tenant_id,created_at,updated_at FROM users"+
			where+" ORDER BY id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var tenantID sql.NullInt64
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
			&u.Role, &tenantID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if tenantID.Valid {
			v := uint64(tenantID.Int64)
			u.TenantID = &v
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// DeleteByID removes a user. Deleting a missing user is not an error.
func (r *UserRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	var tenantID sql.NullInt64
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &tenantID, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if tenantID.Valid {
		v := uint64(tenantID.Int64)
		u.TenantID = &v
	}
	return u, nil
}
