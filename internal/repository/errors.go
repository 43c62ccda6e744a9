// Package repository implements thin data-access types over *sql.DB for the
// users, tenants and refresh_tokens tables. Sentinel errors defined here let
// handlers distinguish failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when a user insert collides with an existing
// email. Handlers should translate this into an HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no live row. For refresh
// token records this also covers rows past their expiry.
var ErrNotFound = errors.New("record not found")
