// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published when a registration succeeds. Downstream
// consumers (mail, analytics) get enough to act without querying the auth
// database. The password hash is deliberately absent.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	RegisteredAt string `json:"registered_at"`
}
