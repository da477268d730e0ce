package middleware

import (
	"context"
	"net/http"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/http/response"
	"github.com/diagnosis/marketinn/pkg/auth"
	"github.com/diagnosis/marketinn/pkg/logger"
)

type ctxKey string

const CtxUser ctxKey = "user"

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// RequireAuth rejects requests without a valid token for an active user.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				response.Unauthorized(w, "authentication required")
				return
			}
			user, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				response.FromError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if ok {
				if user, err := a.Authenticate(r.Context(), raw); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				response.Unauthorized(w, "authentication required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, "insufficient permissions")
		})
	}
}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	ctx = context.WithValue(ctx, CtxUser, u)
	return context.WithValue(ctx, logger.UserIDKey, u.ID.String())
}

func CurrentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(CtxUser).(*domain.User)
	return u
}
