// Package api implements the forum REST API using chi.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

// ActorHeader carries the username of the acting user.
const ActorHeader = "X-Forum-User"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserLookup resolves the acting user by username.
type UserLookup interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

type actorKey struct{}

// RequireActor resolves the ActorHeader user and stores it in the request
// context. Missing or unknown users get 401.
func RequireActor(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get(ActorHeader))
			if name == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody(ActorHeader+" header is required"))
				return
			}
			u, err := users.UserByUsername(r.Context(), name)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					writeJSON(w, http.StatusUnauthorized, errorBody("unknown user"))
					return
				}
				writeError(w, r, "resolve actor", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, *u)))
		})
	}
}

// actor returns the user stored by RequireActor.
func actor(r *http.Request) models.User {
	u, _ := r.Context().Value(actorKey{}).(models.User)
	return u
}
