package model

import "time"

// Tenant represents a row in the `tenants` table. Non-admin users are
// associated with exactly one tenant via users.tenant_id.
type Tenant struct {
	ID        uint64
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
