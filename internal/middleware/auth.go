package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/httputil"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
	"github.com/fivvy/server-go/internal/service"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUser returns the authenticated user from the request context, or nil.
func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

type AuthMiddleware struct {
	auth  *service.AuthService
	users repository.UserRepository
}

func NewAuthMiddleware(auth *service.AuthService, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, users: users}
}

// Handler authenticates requests via a Bearer JWT and loads the user into
// the context. The user row is re-read so a deleted account is rejected
// even while its token is still within expiry.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearerToken(r)
		if tokenString == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		claims, err := m.auth.ParseAccessToken(tokenString)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		user, err := m.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			httputil.WriteError(w, apperrors.Database(err))
			return
		}
		if user == nil {
			log.Warn().Int64("userId", claims.UserID).Msg("auth middleware: token for unknown user")
			httputil.WriteError(w, apperrors.Unauthorized("Invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Handler; non-admin users get 403.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}
		if user.Role != model.UserRoleAdmin {
			httputil.WriteError(w, apperrors.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
