package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
	"github.com/fivvy/server-go/internal/util"
)

// Claims is the JWT payload for access tokens.
type Claims struct {
	UserID int64          `json:"uid"`
	Role   model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         *model.User `json:"user,omitempty"`
}

// AuthService handles registration, login and refresh token rotation.
type AuthService struct {
	users           repository.UserRepository
	refreshTokens   repository.RefreshTokenRepository
	jwtSecret       []byte
	jwtIssuer       string
	jwtExpiry       time.Duration
	refreshTokenTTL time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepository,
	refreshTokens repository.RefreshTokenRepository,
	jwtSecret string,
	jwtIssuer string,
	jwtExpiry time.Duration,
	refreshTokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:           users,
		refreshTokens:   refreshTokens,
		jwtSecret:       []byte(jwtSecret),
		jwtIssuer:       jwtIssuer,
		jwtExpiry:       jwtExpiry,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// RegisterParams contains the fields accepted at signup.
type RegisterParams struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *RegisterParams) validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.MissingRequired("username")
	}
	if strings.TrimSpace(p.Email) == "" {
		return apperrors.MissingRequired("email")
	}
	if !strings.Contains(p.Email, "@") {
		return apperrors.InvalidInput("email", "must be a valid email address")
	}
	if len(p.Password) < 8 {
		return apperrors.InvalidInput("password", "must be at least 8 characters")
	}
	return nil
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByUsername(ctx, params.Username)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Username")
	}

	existing, err = s.users.FindByEmail(ctx, params.Email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Email")
	}

	passwordHash, err := util.HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password").WithCause(err)
	}

	user, err := s.users.Create(ctx, model.CreateUserParams{
		Username:     params.Username,
		Name:         params.Name,
		Surname:      params.Surname,
		Email:        params.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Int64("userId", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown usernames and wrong passwords return the same error.
func (s *AuthService) Login(ctx context.Context, username, password string, clientIP *string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Invalid username or password")
	}

	pair, err := s.issueTokenPair(ctx, user, clientIP)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("userId", user.ID).Msg("user logged in")
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Reuse of a revoked token revokes every session of the user.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string, clientIP *string) (*TokenPair, error) {
	stored, err := s.refreshTokens.FindByHash(ctx, util.HashToken(rawRefreshToken))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if stored == nil {
		return nil, apperrors.InvalidToken("Invalid refresh token")
	}

	if !stored.IsActive() {
		if stored.RevokedAt != nil {
			// Replay of a rotated token means the token leaked somewhere.
			log.Warn().Int64("userId", stored.UserID).Msg("revoked refresh token replayed, revoking all sessions")
			if err := s.refreshTokens.RevokeAllForUser(ctx, stored.UserID); err != nil {
				return nil, apperrors.Database(err)
			}
		}
		return nil, apperrors.InvalidToken("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.InvalidToken("Invalid refresh token")
	}

	pair, err := s.issueTokenPair(ctx, user, clientIP)
	if err != nil {
		return nil, err
	}

	newHash := util.HashToken(pair.RefreshToken)
	if err := s.refreshTokens.Revoke(ctx, stored.ID, &newHash); err != nil {
		return nil, apperrors.Database(err)
	}

	return pair, nil
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	stored, err := s.refreshTokens.FindByHash(ctx, util.HashToken(rawRefreshToken))
	if err != nil {
		return apperrors.Database(err)
	}
	if stored == nil {
		return nil
	}
	if err := s.refreshTokens.Revoke(ctx, stored.ID, nil); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// GetProfile returns the authenticated user's account.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's account fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, params model.UpdateProfileParams) (*model.User, error) {
	if params.TaxValue != nil && (*params.TaxValue < 0 || *params.TaxValue > 100) {
		return nil, apperrors.InvalidInput("taxValue", "must be between 0 and 100")
	}
	user, err := s.users.UpdateProfile(ctx, userID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

// ParseAccessToken validates a JWT and returns its claims.
func (s *AuthService) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.InvalidToken("Unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(s.jwtIssuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.ErrCodeTokenExpired, "Access token expired")
		}
		return nil, apperrors.InvalidToken("Invalid access token")
	}
	if !token.Valid {
		return nil, apperrors.InvalidToken("Invalid access token")
	}
	return claims, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *model.User, clientIP *string) (*TokenPair, error) {
	expiresAt := time.Now().Add(s.jwtExpiry)
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.jwtIssuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.Internal("Failed to sign token").WithCause(err)
	}

	rawRefresh, err := util.GenerateRefreshToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate refresh token").WithCause(err)
	}

	if _, err := s.refreshTokens.Create(ctx, model.CreateRefreshTokenParams{
		UserID:      user.ID,
		TokenHash:   util.HashToken(rawRefresh),
		ExpiresAt:   time.Now().Add(s.refreshTokenTTL),
		CreatedByIP: clientIP,
	}); err != nil {
		return nil, apperrors.Database(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}
