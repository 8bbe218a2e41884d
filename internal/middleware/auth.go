package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskforce/taskmanager/internal/ctxkeys"
	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/service"
)

// TokenResolver maps a bearer token to the user who owns a live session for it.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// otherwise puts the user and the raw token into the request context.
func RequireAuth(resolver TokenResolver) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "please authenticate")
				return
			}

			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrSessionNotFound) {
					slog.Debug("rejected token", "path", r.URL.Path, "error", err)
				} else {
					slog.Error("failed to resolve token", "path", r.URL.Path, "error", err)
				}
				writeError(w, http.StatusUnauthorized, "please authenticate")
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithToken(ctx, token)
			next(w, r.WithContext(ctx))
		}
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
