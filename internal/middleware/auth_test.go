package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivvy/server-go/internal/config"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/service"
	"github.com/fivvy/server-go/internal/util"
)

type stubUserRepo struct {
	user *model.User
}

func (s *stubUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.user != nil && s.user.Username == username {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (s *stubUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) UpdateProfile(ctx context.Context, id int64, params model.UpdateProfileParams) (*model.User, error) {
	return s.user, nil
}

type stubRefreshRepo struct{}

func (s *stubRefreshRepo) Create(ctx context.Context, params model.CreateRefreshTokenParams) (*model.RefreshToken, error) {
	return &model.RefreshToken{ID: 1, UserID: params.UserID}, nil
}

func (s *stubRefreshRepo) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	return nil, nil
}

func (s *stubRefreshRepo) Revoke(ctx context.Context, id int64, replacedByHash *string) error {
	return nil
}

func (s *stubRefreshRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	return nil
}

func (s *stubRefreshRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func authFixture(t *testing.T, role model.UserRole) (*AuthMiddleware, string, *model.User) {
	t.Helper()

	hash, err := util.HashPassword("pw-irrelevant")
	require.NoError(t, err)

	user := &model.User{ID: 1, Username: "freelancer", PasswordHash: hash, Role: role}
	users := &stubUserRepo{user: user}

	authSvc := service.NewAuthService(users, &stubRefreshRepo{},
		"middleware-test-secret", "fivvy-api", 15*time.Minute, time.Hour)

	pair, err := authSvc.Login(context.Background(), "freelancer", "pw-irrelevant", nil)
	require.NoError(t, err)

	return NewAuthMiddleware(authSvc, users), pair.AccessToken, user
}

func TestAuthMiddleware(t *testing.T) {
	okHandler := func(sawUser **model.User) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*sawUser = GetUser(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("rejects missing token", func(t *testing.T) {
		m, _, _ := authFixture(t, model.UserRoleUser)
		var seen *model.User

		rec := httptest.NewRecorder()
		m.Handler(okHandler(&seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		m, _, _ := authFixture(t, model.UserRoleUser)
		var seen *model.User

		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		m.Handler(okHandler(&seen)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("loads user into context for a valid token", func(t *testing.T) {
		m, token, user := authFixture(t, model.UserRoleUser)
		var seen *model.User

		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		m.Handler(okHandler(&seen)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, user.ID, seen.ID)
	})

	t.Run("RequireAdmin forbids regular users", func(t *testing.T) {
		m, token, _ := authFixture(t, model.UserRoleUser)
		var seen *model.User

		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		m.Handler(m.RequireAdmin(okHandler(&seen))).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("RequireAdmin passes admins", func(t *testing.T) {
		m, token, _ := authFixture(t, model.UserRoleAdmin)
		var seen *model.User

		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		m.Handler(m.RequireAdmin(okHandler(&seen))).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLoginRateLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("blocks after max attempts within window", func(t *testing.T) {
		limiter := NewLoginRateLimiter()
		handler := limiter.Handler(next)

		for i := 0; i < loginMaxAttempts; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("tracks addresses independently", func(t *testing.T) {
		limiter := NewLoginRateLimiter()
		handler := limiter.Handler(next)

		for i := 0; i < loginMaxAttempts; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("sets baseline headers", func(t *testing.T) {
		m := NewSecurityHeadersMiddleware(false)
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("adds HSTS in production", func(t *testing.T) {
		m := NewSecurityHeadersMiddleware(true)
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	})
}

func TestBodyLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects oversized declared bodies", func(t *testing.T) {
		m := NewBodyLimitMiddleware(16)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.ContentLength = 1024
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("passes small bodies", func(t *testing.T) {
		m := NewBodyLimitMiddleware(1024)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.ContentLength = 16
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("zero falls back to the configured cap", func(t *testing.T) {
		m := NewBodyLimitMiddleware(0)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.ContentLength = config.MaxRequestBodyBytes + 1
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
