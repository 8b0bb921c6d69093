package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"gestion-obras/internal/storage"
)

type ctxKey struct{}

type UserStorage interface {
	GetUserByToken(ctx context.Context, token string) (*storage.Actor, error)
}

type errResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Actor resolves the bearer token to a user and attaches it to the request
// context. Every route of the API sits behind this middleware.
func Actor(log *slog.Logger, users UserStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.auth.Actor"

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				requireAuth(w, r)
				return
			}
			token := strings.TrimSpace(authHeader[7:])
			if token == "" {
				requireAuth(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			actor, err := users.GetUserByToken(ctx, token)
			if err != nil {
				if !errors.Is(err, storage.ErrUserNotFound) {
					log.Error("token lookup failed", slog.String("op", op), slog.String("error", err.Error()))
				}
				requireAuth(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor *storage.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// FromContext returns the actor resolved by the middleware, if any.
func FromContext(ctx context.Context) (*storage.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(*storage.Actor)
	return actor, ok
}

func requireAuth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, errResponse{Error: "usuario no autenticado"})
}
