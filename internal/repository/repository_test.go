package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskforce/taskmanager/internal/db/dbtest"
	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
)

func setup(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.New(dbtest.New(t))
}

func newUser(t *testing.T, repos *repository.Repositories, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         "User " + email,
		Email:        email,
		PasswordHash: "$2a$04$notarealhash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func newTask(t *testing.T, repos *repository.Repositories, owner *model.User, description string, completed bool) *model.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &model.Task{
		ID:          uuid.NewString(),
		Description: description,
		Completed:   completed,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repos.Tasks.Create(context.Background(), task))
	return task
}
