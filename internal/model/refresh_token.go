package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. A refresh JWT
// embeds the record id; the token is only accepted while the record row
// exists and has not passed ExpiresAt. Logout and rotation remove the row,
// which invalidates every token referencing it.
//
// Fields:
//
//	ID        – primary key identifier, embedded in the refresh JWT.
//	UserID    – owner of the token.
//	ExpiresAt – expiration timestamp of the record.
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	ExpiresAt time.Time
	CreatedAt time.Time
}
