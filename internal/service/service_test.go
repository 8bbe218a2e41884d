package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforce/taskmanager/internal/db/dbtest"
	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/storage"
)

type sentEmail struct {
	kind, to, name string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) record(kind, to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{kind: kind, to: to, name: name})
	return m.err
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, email, name string) error {
	return m.record("welcome", email, name)
}

func (m *fakeMailer) SendCancellationEmail(_ context.Context, email, name string) error {
	return m.record("cancellation", email, name)
}

func (m *fakeMailer) Sent() []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentEmail(nil), m.sent...)
}

type testEnv struct {
	repos   *repository.Repositories
	auth    *AuthService
	users   *UserService
	tasks   *TaskService
	avatars *AvatarService
	mailer  *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := dbtest.New(t)
	repos := repository.New(database)
	auth := NewAuthService(repos.Users, repos.Tokens, "test-secret", time.Hour, bcrypt.MinCost)
	avatars := NewAvatarService(storage.NewDatabaseStore(repos.Users), 250, 1_000_000)
	mailer := &fakeMailer{}

	return &testEnv{
		repos:   repos,
		auth:    auth,
		users:   NewUserService(repos, repository.NewTransactor(database), auth, avatars, mailer, time.Second),
		tasks:   NewTaskService(repos.Tasks),
		avatars: avatars,
		mailer:  mailer,
	}
}

func (e *testEnv) register(t *testing.T, name, email, password string) (*model.User, string) {
	t.Helper()
	user, token, err := e.users.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return user, token
}

var errMailDown = errors.New("mail provider down")
