package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskforce/taskmanager/internal/db"
	"github.com/taskforce/taskmanager/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrAvatarNotFound    = errors.New("avatar not found")
	ErrPasswordNotHashed = errors.New("password must be hashed before persisting")
)

const userColumns = `id, name, email, age, password_hash, created_at, updated_at`

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	Avatar(ctx context.Context, id string) ([]byte, error)
	SetAvatar(ctx context.Context, id string, data []byte) error
}

type userRepository struct {
	conn sqlx.ExtContext
}

func NewUserRepository(conn sqlx.ExtContext) UserRepository {
	return &userRepository{conn: conn}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.PasswordChanged() {
		return ErrPasswordNotHashed
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Age,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := sqlx.GetContext(ctx, r.conn, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := sqlx.GetContext(ctx, r.conn, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	if user.PasswordChanged() {
		return ErrPasswordNotHashed
	}

	user.UpdatedAt = time.Now().UTC()
	query := `UPDATE users SET name = $1, email = $2, age = $3, password_hash = $4, updated_at = $5 WHERE id = $6`

	result, err := r.conn.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.Age,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return err
	}

	return expectRow(result, ErrUserNotFound)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectRow(result, ErrUserNotFound)
}

func (r *userRepository) Avatar(ctx context.Context, id string) ([]byte, error) {
	var data []byte

	err := sqlx.GetContext(ctx, r.conn, &data, `SELECT avatar FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrAvatarNotFound
	}

	return data, nil
}

// SetAvatar stores the avatar bytes. A nil slice clears it.
func (r *userRepository) SetAvatar(ctx context.Context, id string, data []byte) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET avatar = $1, updated_at = $2 WHERE id = $3`,
		data, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	return expectRow(result, ErrUserNotFound)
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
