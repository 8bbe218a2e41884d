package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/validation"
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"username"`
	Email    string `json:"email" validate:"emailaddr"`
	Age      int    `json:"age" validate:"gte=0"`
	Password string `json:"password" validate:"password"`
}

func (in *RegisterInput) normalize() {
	in.Name = validation.Clean(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)
}

// UserPatch is a partial update of the caller's account. Nil fields are left as they are.
type UserPatch struct {
	Name     *string `json:"name" validate:"omitnil,username"`
	Email    *string `json:"email" validate:"omitnil,emailaddr"`
	Age      *int    `json:"age" validate:"omitnil,gte=0"`
	Password *string `json:"password" validate:"omitnil,password"`
}

func (p *UserPatch) normalize() {
	if p.Name != nil {
		*p.Name = validation.Clean(*p.Name)
	}
	if p.Email != nil {
		*p.Email = validation.NormalizeEmail(*p.Email)
	}
	if p.Password != nil {
		*p.Password = strings.TrimSpace(*p.Password)
	}
}

type UserService struct {
	repos        *repository.Repositories
	tx           repository.Transactor
	auth         *AuthService
	avatars      *AvatarService
	mailer       Mailer
	emailTimeout time.Duration
	wg           sync.WaitGroup
}

func NewUserService(
	repos *repository.Repositories,
	tx repository.Transactor,
	auth *AuthService,
	avatars *AvatarService,
	mailer Mailer,
	emailTimeout time.Duration,
) *UserService {
	return &UserService{
		repos:        repos,
		tx:           tx,
		auth:         auth,
		avatars:      avatars,
		mailer:       mailer,
		emailTimeout: emailTimeout,
	}
}

// Register creates the account, signs the first session token and sends a
// welcome email in the background.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.normalize()
	err := validation.Struct(&in)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Age:       in.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.SetPassword(in.Password)

	err = s.auth.hashIfChanged(user)
	if err != nil {
		return nil, "", err
	}

	var token string
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		err := repos.Users.Create(ctx, user)
		if err != nil {
			return err
		}

		token, err = s.auth.issueToken(ctx, repos.Tokens, user.ID)
		return err
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, "", validation.NewError("email", "is already registered")
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	s.notify("welcome", func(ctx context.Context) error {
		return s.mailer.SendWelcomeEmail(ctx, user.Email, user.Name)
	})

	return user, token, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.auth.FindByCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.auth.IssueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout revokes only the token the request was authenticated with.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	return s.auth.RevokeToken(ctx, userID, token)
}

func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	return s.auth.RevokeAllTokens(ctx, userID)
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.repos.Users.ByID(ctx, id)
}

// Update applies patch to the user. Nothing is written unless every field is valid.
func (s *UserService) Update(ctx context.Context, userID string, patch UserPatch) (*model.User, error) {
	patch.normalize()
	err := validation.Struct(&patch)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Age != nil {
		user.Age = *patch.Age
	}
	if patch.Password != nil {
		user.SetPassword(*patch.Password)
	}

	err = s.auth.hashIfChanged(user)
	if err != nil {
		return nil, err
	}

	err = s.repos.Users.Update(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, validation.NewError("email", "is already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete removes the account together with its tasks and sessions, then
// drops the avatar and sends a cancellation email.
func (s *UserService) Delete(ctx context.Context, user *model.User) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		removed, err := repos.Tasks.DeleteByOwner(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}

		err = repos.Tokens.DeleteByUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to delete tokens: %w", err)
		}

		err = repos.Users.Delete(ctx, user.ID)
		if err != nil {
			return err
		}

		slog.Info("user deleted", "user_id", user.ID, "tasks_removed", removed)
		return nil
	})
	if err != nil {
		return err
	}

	err = s.avatars.Remove(ctx, user.ID)
	if err != nil {
		slog.Warn("failed to delete avatar of deleted user", "user_id", user.ID, "error", err)
	}

	s.notify("cancellation", func(ctx context.Context) error {
		return s.mailer.SendCancellationEmail(ctx, user.Email, user.Name)
	})

	return nil
}

// Wait blocks until every background email has been attempted.
func (s *UserService) Wait() {
	s.wg.Wait()
}

// notify runs send in the background. Failures are logged and never reach the caller.
func (s *UserService) notify(kind string, send func(ctx context.Context) error) {
	s.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.emailTimeout)
		defer cancel()

		err := send(ctx)
		if err != nil {
			slog.Warn("failed to send email", "type", kind, "error", err)
		}
	})
}
