package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/util"
)

const testJWTSecret = "test-secret-for-signing-access-tokens"

func newAuthService(users *mockUserRepo, refreshTokens *mockRefreshTokenRepo) *AuthService {
	return NewAuthService(users, refreshTokens, testJWTSecret, "fivvy-api", 15*time.Minute, 7*24*time.Hour)
}

func testUser(t *testing.T) *model.User {
	t.Helper()
	hash, err := util.HashPassword("correct-horse")
	require.NoError(t, err)
	return &model.User{
		ID:           1,
		Username:     "freelancer",
		Email:        "freelancer@example.com",
		PasswordHash: hash,
		Role:         model.UserRoleUser,
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		users := new(mockUserRepo)
		svc := newAuthService(users, new(mockRefreshTokenRepo))

		users.On("FindByUsername", ctx, "freelancer").Return(nil, nil)
		users.On("FindByEmail", ctx, "freelancer@example.com").Return(nil, nil)

		var created model.CreateUserParams
		users.On("Create", ctx, mock.AnythingOfType("model.CreateUserParams")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(model.CreateUserParams)
			}).
			Return(&model.User{ID: 1, Username: "freelancer"}, nil)

		user, err := svc.Register(ctx, RegisterParams{
			Username: "freelancer",
			Name:     "Ada",
			Surname:  "Lovelace",
			Email:    "freelancer@example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)

		assert.NotEqual(t, "correct-horse", created.PasswordHash)
		assert.True(t, util.CheckPasswordHash("correct-horse", created.PasswordHash))
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		users := new(mockUserRepo)
		svc := newAuthService(users, new(mockRefreshTokenRepo))

		users.On("FindByUsername", ctx, "freelancer").Return(&model.User{ID: 2}, nil)

		_, err := svc.Register(ctx, RegisterParams{
			Username: "freelancer", Email: "x@example.com", Password: "long-enough",
		})
		assertErrorCode(t, err, apperrors.ErrCodeAlreadyExists)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := newAuthService(new(mockUserRepo), new(mockRefreshTokenRepo))
		_, err := svc.Register(ctx, RegisterParams{
			Username: "freelancer", Email: "x@example.com", Password: "short",
		})
		assertErrorCode(t, err, apperrors.ErrCodeInvalidInput)
	})

	t.Run("rejects missing username", func(t *testing.T) {
		svc := newAuthService(new(mockUserRepo), new(mockRefreshTokenRepo))
		_, err := svc.Register(ctx, RegisterParams{Email: "x@example.com", Password: "long-enough"})
		assertErrorCode(t, err, apperrors.ErrCodeMissingRequired)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues verifiable access token and stores hashed refresh token", func(t *testing.T) {
		users := new(mockUserRepo)
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(users, refreshTokens)
		user := testUser(t)

		users.On("FindByUsername", ctx, "freelancer").Return(user, nil)

		var stored model.CreateRefreshTokenParams
		refreshTokens.On("Create", ctx, mock.AnythingOfType("model.CreateRefreshTokenParams")).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(model.CreateRefreshTokenParams)
			}).
			Return(&model.RefreshToken{ID: 1, UserID: 1}, nil)

		pair, err := svc.Login(ctx, "freelancer", "correct-horse", nil)
		require.NoError(t, err)

		claims, err := svc.ParseAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(1), claims.UserID)
		assert.Equal(t, model.UserRoleUser, claims.Role)
		assert.Equal(t, "freelancer", claims.Subject)

		// Only the hash of the refresh token hits the database.
		assert.Equal(t, util.HashToken(pair.RefreshToken), stored.TokenHash)
		assert.NotEqual(t, pair.RefreshToken, stored.TokenHash)
	})

	t.Run("wrong password and unknown user fail identically", func(t *testing.T) {
		users := new(mockUserRepo)
		svc := newAuthService(users, new(mockRefreshTokenRepo))

		users.On("FindByUsername", ctx, "freelancer").Return(testUser(t), nil)
		users.On("FindByUsername", ctx, "ghost").Return(nil, nil)

		_, errWrong := svc.Login(ctx, "freelancer", "wrong", nil)
		_, errGhost := svc.Login(ctx, "ghost", "whatever", nil)

		assertErrorCode(t, errWrong, apperrors.ErrCodeUnauthorized)
		assertErrorCode(t, errGhost, apperrors.ErrCodeUnauthorized)
		assert.Equal(t, errWrong.Error(), errGhost.Error())
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	raw := "raw-refresh-token"
	hash := util.HashToken(raw)

	t.Run("rotates an active token", func(t *testing.T) {
		users := new(mockUserRepo)
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(users, refreshTokens)

		refreshTokens.On("FindByHash", ctx, hash).Return(&model.RefreshToken{
			ID: 3, UserID: 1, TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		users.On("FindByID", ctx, int64(1)).Return(testUser(t), nil)
		refreshTokens.On("Create", ctx, mock.AnythingOfType("model.CreateRefreshTokenParams")).
			Return(&model.RefreshToken{ID: 4, UserID: 1}, nil)
		refreshTokens.On("Revoke", ctx, int64(3), mock.AnythingOfType("*string")).Return(nil)

		pair, err := svc.Refresh(ctx, raw, nil)
		require.NoError(t, err)
		assert.NotEqual(t, raw, pair.RefreshToken)

		refreshTokens.AssertCalled(t, "Revoke", ctx, int64(3), mock.MatchedBy(func(h *string) bool {
			return h != nil && *h == util.HashToken(pair.RefreshToken)
		}))
	})

	t.Run("replay of a rotated token revokes every session", func(t *testing.T) {
		users := new(mockUserRepo)
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(users, refreshTokens)

		revokedAt := time.Now().Add(-time.Minute)
		refreshTokens.On("FindByHash", ctx, hash).Return(&model.RefreshToken{
			ID: 3, UserID: 1, TokenHash: hash,
			ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &revokedAt,
		}, nil)
		refreshTokens.On("RevokeAllForUser", ctx, int64(1)).Return(nil)

		_, err := svc.Refresh(ctx, raw, nil)
		assertErrorCode(t, err, apperrors.ErrCodeInvalidToken)
		refreshTokens.AssertCalled(t, "RevokeAllForUser", ctx, int64(1))
	})

	t.Run("expired token is rejected without mass revocation", func(t *testing.T) {
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(new(mockUserRepo), refreshTokens)

		refreshTokens.On("FindByHash", ctx, hash).Return(&model.RefreshToken{
			ID: 3, UserID: 1, TokenHash: hash, ExpiresAt: time.Now().Add(-time.Hour),
		}, nil)

		_, err := svc.Refresh(ctx, raw, nil)
		assertErrorCode(t, err, apperrors.ErrCodeInvalidToken)
		refreshTokens.AssertNotCalled(t, "RevokeAllForUser", mock.Anything, mock.Anything)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(new(mockUserRepo), refreshTokens)

		refreshTokens.On("FindByHash", ctx, hash).Return(nil, nil)

		_, err := svc.Refresh(ctx, raw, nil)
		assertErrorCode(t, err, apperrors.ErrCodeInvalidToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	raw := "raw-refresh-token"
	hash := util.HashToken(raw)

	t.Run("revokes the presented token", func(t *testing.T) {
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(new(mockUserRepo), refreshTokens)

		refreshTokens.On("FindByHash", ctx, hash).Return(&model.RefreshToken{ID: 3, UserID: 1}, nil)
		refreshTokens.On("Revoke", ctx, int64(3), (*string)(nil)).Return(nil)

		require.NoError(t, svc.Logout(ctx, raw))
		refreshTokens.AssertExpectations(t)
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		refreshTokens := new(mockRefreshTokenRepo)
		svc := newAuthService(new(mockUserRepo), refreshTokens)

		refreshTokens.On("FindByHash", ctx, hash).Return(nil, nil)

		require.NoError(t, svc.Logout(ctx, raw))
		refreshTokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_ParseAccessToken(t *testing.T) {
	t.Run("rejects tokens signed with a different secret", func(t *testing.T) {
		users := new(mockUserRepo)
		refreshTokens := new(mockRefreshTokenRepo)
		refreshTokens.On("Create", mock.Anything, mock.Anything).Return(&model.RefreshToken{}, nil)
		users.On("FindByUsername", mock.Anything, "freelancer").Return(testUser(t), nil)

		issuer := newAuthService(users, refreshTokens)
		pair, err := issuer.Login(context.Background(), "freelancer", "correct-horse", nil)
		require.NoError(t, err)

		verifier := NewAuthService(users, refreshTokens, "another-secret-entirely", "fivvy-api", time.Minute, time.Hour)
		_, err = verifier.ParseAccessToken(pair.AccessToken)
		assertErrorCode(t, err, apperrors.ErrCodeInvalidToken)
	})

	t.Run("rejects expired tokens with a distinct code", func(t *testing.T) {
		users := new(mockUserRepo)
		refreshTokens := new(mockRefreshTokenRepo)
		refreshTokens.On("Create", mock.Anything, mock.Anything).Return(&model.RefreshToken{}, nil)
		users.On("FindByUsername", mock.Anything, "freelancer").Return(testUser(t), nil)

		svc := NewAuthService(users, refreshTokens, testJWTSecret, "fivvy-api", -time.Minute, time.Hour)
		pair, err := svc.Login(context.Background(), "freelancer", "correct-horse", nil)
		require.NoError(t, err)

		_, err = svc.ParseAccessToken(pair.AccessToken)
		assertErrorCode(t, err, apperrors.ErrCodeTokenExpired)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		svc := newAuthService(new(mockUserRepo), new(mockRefreshTokenRepo))
		_, err := svc.ParseAccessToken("not.a.jwt")
		assertErrorCode(t, err, apperrors.ErrCodeInvalidToken)
	})
}
