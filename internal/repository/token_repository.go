package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
)

// TokenRepo persists refresh token records. A refresh JWT embeds the record
// id; the token stays valid only while the row exists and is unexpired.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a refresh token record and returns its id.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, expires_at) VALUES (?,?)",
		userID, expiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByID returns the record if it exists and has not expired; otherwise
// ErrNotFound. Expiry is observed here at lookup time, records are never
// swept eagerly.
func (r *TokenRepo) FindByID(ctx context.Context, id uint64) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, nil
}

// DeleteByID removes a record. Deleting a missing record succeeds, which
// makes logout idempotent.
func (r *TokenRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", id)
	return err
}

// DeleteAllForUser removes every record belonging to a user. Used when the
// user itself is deleted so no orphaned session can refresh.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
