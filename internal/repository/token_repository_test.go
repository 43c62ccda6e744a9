package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)

	expiresAt := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(5), expiresAt).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create(context.Background(), 5, expiresAt)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_FindByID(t *testing.T) {
	cols := []string{"id", "user_id", "expires_at", "created_at"}

	t.Run("live record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewTokenRepo(db)

		exp := time.Now().UTC().Add(time.Hour)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE id").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 5, exp, time.Now().UTC()))

		rec, err := repo.FindByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), rec.ID)
		assert.Equal(t, uint64(5), rec.UserID)
	})

	t.Run("missing record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewTokenRepo(db)

		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE id").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err = repo.FindByID(context.Background(), 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired record is treated as missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewTokenRepo(db)

		exp := time.Now().UTC().Add(-time.Minute)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE id").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 5, exp, time.Now().UTC()))

		_, err = repo.FindByID(context.Background(), 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTokenRepo_DeleteByID_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)

	// Zero rows affected is still a successful delete.
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteByID(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_DeleteAllForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE user_id").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, repo.DeleteAllForUser(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
