package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskforce/taskmanager/internal/model"
)

// TokenRepository holds each user's set of live session tokens, one row per
// token, so concurrent logins and logouts never overwrite each other.
type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	Exists(ctx context.Context, userID, token string) (bool, error)
	Delete(ctx context.Context, userID, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	conn sqlx.ExtContext
}

func NewTokenRepository(conn sqlx.ExtContext) TokenRepository {
	return &tokenRepository{conn: conn}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO user_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.conn.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *tokenRepository) Exists(ctx context.Context, userID, token string) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM user_tokens WHERE user_id = $1 AND token = $2`

	err := sqlx.GetContext(ctx, r.conn, &n, query, userID, token)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes exactly one token. Removing an absent token is not an error.
func (r *tokenRepository) Delete(ctx context.Context, userID, token string) error {
	_, err := r.conn.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	return err
}

func (r *tokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.conn.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, userID)
	return err
}

func (r *tokenRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.conn, &n, `SELECT COUNT(*) FROM user_tokens WHERE user_id = $1`, userID)
	return n, err
}

// CleanupExpired removes tokens whose JWT has already expired. They can no
// longer authenticate, so this only reclaims space.
func (r *tokenRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
