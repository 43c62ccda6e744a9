package model

import "time"

// Role names stored in the `users.role` column. Registration always assigns
// RoleCustomer; the other roles are granted by an admin through the user
// management endpoints.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RoleManager  = "manager"
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleCustomer, RoleManager:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users` table.
// PasswordHash is a bcrypt hash and must never be serialized in responses or
// written to logs. TenantID is nil for users that do not belong to a tenant
// (admins in particular).
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	FirstName    – given name.
//	LastName     – family name.
//	Email        – unique email address, used as the login name.
//	PasswordHash – bcrypt hashed password.
//	Role         – one of the Role* constants.
//	TenantID     – foreign key into the tenants table (nullable).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         string
	TenantID     *uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
