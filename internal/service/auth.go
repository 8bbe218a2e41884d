package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/validation"
)

var (
	// ErrAuthenticationFailed is returned for an unknown email and for a wrong
	// password alike, so callers cannot tell which one it was.
	ErrAuthenticationFailed = errors.New("unable to login")
	ErrInvalidToken         = errors.New("invalid token")
	ErrSessionNotFound      = errors.New("session not found")
)

// AuthService hashes passwords and issues, resolves and revokes session tokens.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	jwtSecret  []byte
	jwtExpiry  time.Duration
	bcryptCost int
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
	bcryptCost int,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		jwtExpiry:  jwtExpiry,
		bcryptCost: bcryptCost,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// hashIfChanged replaces a staged plaintext password with its hash. It runs
// right before a user is persisted so each new password is hashed exactly once.
func (s *AuthService) hashIfChanged(user *model.User) error {
	if !user.PasswordChanged() {
		return nil
	}

	hash, err := s.HashPassword(user.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	user.NewPassword = ""
	return nil
}

// FindByCredentials returns the user owning email if password matches.
func (s *AuthService) FindByCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.ByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return user, nil
}

func (s *AuthService) GenerateJWT(userID string, issuedAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.jwtExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) VerifyJWT(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IssueToken signs a new session token and adds it to the user's token set.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, error) {
	return s.issueToken(ctx, s.tokens, userID)
}

// issueToken records the token through tokens, which may be bound to a transaction.
func (s *AuthService) issueToken(ctx context.Context, tokens repository.TokenRepository, userID string) (string, error) {
	now := time.Now().UTC()

	signed, err := s.GenerateJWT(userID, now)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	err = tokens.Create(ctx, &model.Token{
		UserID:    userID,
		Token:     signed,
		ExpiresAt: now.Add(s.jwtExpiry),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return signed, nil
}

// ResolveToken returns the user a live session token belongs to. A token that
// verifies but was revoked, or whose user is gone, yields ErrSessionNotFound.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.VerifyJWT(token)
	if err != nil {
		return nil, err
	}

	live, err := s.tokens.Exists(ctx, claims.Subject, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if !live {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.ByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, userID, token string) error {
	return s.tokens.Delete(ctx, userID, token)
}

func (s *AuthService) RevokeAllTokens(ctx context.Context, userID string) error {
	return s.tokens.DeleteByUser(ctx, userID)
}

// PruneExpiredTokens deletes stored tokens that have passed their expiry.
func (s *AuthService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.CleanupExpired(ctx, time.Now().UTC())
}
