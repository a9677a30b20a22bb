package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const userCols = userColumns

func userRow(id, username, email, role string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "provider", "is_active", "created_at", "updated_at"}).
		AddRow(id, username, email, "$2a$04$hash", role, "local", true, now, now)
}

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func TestUserRepo_Create(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users (id, username, email, password_hash, role, provider) VALUES (?,?,?,?,?,?)").
		WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", sqlmock.AnyArg(), "USER", "local").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE id=? LIMIT 1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(userRow("u1", "alice", "alice@example.com", "USER"))

	// Input is normalized before the insert.
	u, err := repo.Create(context.Background(), " alice ", " Alice@Example.com ", "pw", "USER", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicates(t *testing.T) {
	repo, mock := newUserRepo(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users (id, username, email, password_hash, role, provider) VALUES (?,?,?,?,?,?)").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.username'"))
	_, err := repo.Create(ctx, "alice", "a@example.com", "pw", "USER", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrUsernameExists)

	mock.ExpectExec("INSERT INTO users (id, username, email, password_hash, role, provider) VALUES (?,?,?,?,?,?)").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@example.com' for key 'users.email'"))
	_, err = repo.Create(ctx, "alice2", "a@example.com", "pw", "USER", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE username=? LIMIT 1").
		WithArgs("alice").
		WillReturnRows(userRow("u1", "alice", "alice@example.com", "USER"))

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE username=? LIMIT 1").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsernameOrEmail_FallsBackToEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE username=? LIMIT 1").
		WithArgs("Alice@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE email=? LIMIT 1").
		WithArgs("alice@example.com").
		WillReturnRows(userRow("u1", "alice", "alice@example.com", "USER"))

	u, err := repo.GetByUsernameOrEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
