package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/validation"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, token, err := env.users.Register(ctx, RegisterInput{
		Name:     "  Alice ",
		Email:    " Alice@Example.com",
		Password: " secret123 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.NotEqual(t, "secret123", alice.PasswordHash)
	assert.NotEmpty(t, token)

	resolved, err := env.auth.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resolved.ID)

	_, loginToken, err := env.users.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	n, err := env.repos.Tokens.CountByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, err = env.users.Login(ctx, "alice@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	require.NoError(t, env.users.Logout(ctx, alice.ID, loginToken))
	_, err = env.auth.ResolveToken(ctx, token)
	assert.NoError(t, err, "logging out one session keeps the other")

	env.users.Wait()
	assert.Equal(t, []sentEmail{{kind: "welcome", to: "alice@example.com", name: "Alice"}}, env.mailer.Sent())
}

func TestUserService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.users.Register(ctx, RegisterInput{Name: " ", Email: "bad", Age: -3, Password: "mypassword"})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "age")
	assert.Contains(t, verr.Fields, "password")

	_, err = env.repos.Users.ByEmail(ctx, "bad")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	env.users.Wait()
	assert.Empty(t, env.mailer.Sent())
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "secret123")

	_, _, err := env.users.Register(context.Background(), RegisterInput{Name: "Eve", Email: "ALICE@example.com", Password: "secret456"})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestUserService_RegisterSucceedsWhenMailFails(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errMailDown

	user, token, err := env.users.Register(context.Background(), RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotNil(t, user)
	assert.NotEmpty(t, token)

	env.users.Wait()
	assert.Len(t, env.mailer.Sent(), 1)
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.register(t, "Alice", "alice@example.com", "secret123")
	ctx := context.Background()

	updated, err := env.users.Update(ctx, alice.ID, UserPatch{Name: ptr("Alice Smith"), Age: ptr(31)})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.Equal(t, 31, updated.Age)
	assert.Equal(t, alice.PasswordHash, updated.PasswordHash, "hash untouched when no password is given")

	updated, err = env.users.Update(ctx, alice.ID, UserPatch{Password: ptr("newsecret1")})
	require.NoError(t, err)
	assert.NotEqual(t, alice.PasswordHash, updated.PasswordHash)

	_, _, err = env.users.Login(ctx, "alice@example.com", "newsecret1")
	assert.NoError(t, err)
	_, _, err = env.users.Login(ctx, "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestUserService_UpdateRejectsInvalidWithoutWriting(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.register(t, "Alice", "alice@example.com", "secret123")
	env.register(t, "Bob", "bob@example.com", "secret456")
	ctx := context.Background()

	_, err := env.users.Update(ctx, alice.ID, UserPatch{Name: ptr("Changed"), Age: ptr(-1)})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cannot be negative", verr.Fields["age"])

	_, err = env.users.Update(ctx, alice.ID, UserPatch{Email: ptr("BOB@example.com")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")

	stored, err := env.repos.Users.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestUserService_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.register(t, "Alice", "alice@example.com", "secret123")
	bob, _ := env.register(t, "Bob", "bob@example.com", "secret456")
	ctx := context.Background()

	_, err := env.tasks.Create(ctx, alice.ID, TaskInput{Description: "alice one"})
	require.NoError(t, err)
	_, err = env.tasks.Create(ctx, alice.ID, TaskInput{Description: "alice two"})
	require.NoError(t, err)
	bobTask, err := env.tasks.Create(ctx, bob.ID, TaskInput{Description: "bob one"})
	require.NoError(t, err)
	require.NoError(t, env.repos.Users.SetAvatar(ctx, alice.ID, []byte("png")))

	require.NoError(t, env.users.Delete(ctx, alice))

	_, err = env.repos.Users.ByID(ctx, alice.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	left, err := env.tasks.List(ctx, alice.ID, modelListAll)
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = env.tasks.ByID(ctx, bob.ID, bobTask.ID)
	assert.NoError(t, err, "other users' tasks survive")

	_, err = env.auth.ResolveToken(ctx, aliceToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.Eventually(t, func() bool {
		for _, m := range env.mailer.Sent() {
			if m.kind == "cancellation" && m.to == "alice@example.com" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}
