package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()
	u := newUser(t, repos, "alice@example.com")

	byID, err := repos.Users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
	assert.Equal(t, u.PasswordHash, byID.PasswordHash)

	byEmail, err := repos.Users.ByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repos.Users.ByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repos := setup(t)
	newUser(t, repos, "alice@example.com")

	dup := &model.User{ID: "other", Name: "A", Email: "alice@example.com", PasswordHash: "h"}
	err := repos.Users.Create(context.Background(), dup)
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_RefusesUnhashedPassword(t *testing.T) {
	repos := setup(t)
	u := &model.User{ID: "u1", Name: "A", Email: "a@example.com"}
	u.SetPassword("secret123")

	assert.ErrorIs(t, repos.Users.Create(context.Background(), u), repository.ErrPasswordNotHashed)
	assert.ErrorIs(t, repos.Users.Update(context.Background(), u), repository.ErrPasswordNotHashed)
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()
	u := newUser(t, repos, "alice@example.com")

	u.Name = "Alice"
	u.Age = 31
	require.NoError(t, repos.Users.Update(ctx, u))

	got, err := repos.Users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 31, got.Age)

	require.NoError(t, repos.Users.Delete(ctx, u.ID))
	assert.ErrorIs(t, repos.Users.Delete(ctx, u.ID), repository.ErrUserNotFound)
	assert.ErrorIs(t, repos.Users.Update(ctx, u), repository.ErrUserNotFound)
}

func TestUserRepository_Avatar(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()
	u := newUser(t, repos, "alice@example.com")

	_, err := repos.Users.Avatar(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrAvatarNotFound)

	require.NoError(t, repos.Users.SetAvatar(ctx, u.ID, []byte{0x89, 'P', 'N', 'G'}))
	data, err := repos.Users.Avatar(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	require.NoError(t, repos.Users.SetAvatar(ctx, u.ID, nil))
	_, err = repos.Users.Avatar(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrAvatarNotFound)

	_, err = repos.Users.Avatar(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.ErrorIs(t, repos.Users.SetAvatar(ctx, "missing", nil), repository.ErrUserNotFound)
}

func TestUserRepository_UpdateMapsPostgresUniqueViolation(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	users := repository.NewUserRepository(sqlx.NewDb(conn, "sqlmock"))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET name = $1, email = $2, age = $3, password_hash = $4, updated_at = $5 WHERE id = $6`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err = users.Update(context.Background(), &model.User{ID: "u1", Email: "taken@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ByIDPropagatesDriverErrors(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	users := repository.NewUserRepository(sqlx.NewDb(conn, "sqlmock"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, age, password_hash, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs("u1").
		WillReturnError(sql.ErrConnDone)

	_, err = users.ByID(context.Background(), "u1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, repository.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
