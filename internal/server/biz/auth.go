package biz

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/objects"
	"github.com/bk-med/kanban/internal/store"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 24 * time.Hour
)

// AuthConfig configures token signing.
type AuthConfig struct {
	// Secret signs the HS256 tokens. When empty an ephemeral key is
	// generated at startup and outstanding tokens do not survive restarts.
	Secret     string        `conf:"secret" json:"secret" yaml:"secret"`
	AccessTTL  time.Duration `conf:"access_ttl" json:"access_ttl" yaml:"access_ttl"`
	RefreshTTL time.Duration `conf:"refresh_ttl" json:"refresh_ttl" yaml:"refresh_ttl"`
}

type AuthServiceParams struct {
	fx.In

	Config      AuthConfig
	Store       *store.Store
	Engine      *authz.Engine
	UserService *UserService
}

type AuthService struct {
	*AbstractService

	UserService *UserService

	config AuthConfig
}

func NewAuthService(params AuthServiceParams) (*AuthService, error) {
	cfg := params.Config
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}

	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}

	if cfg.Secret == "" {
		secret, err := GenerateSecretKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret key: %w", err)
		}

		cfg.Secret = secret

		log.Warn(context.Background(), "auth secret not configured, generated an ephemeral one")
	}

	return &AuthService{
		AbstractService: &AbstractService{
			store:  params.Store,
			engine: params.Engine,
		},
		UserService: params.UserService,
		config:      cfg,
	}, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hex.EncodeToString(hashedPassword), nil
}

// VerifyPassword verifies a password against a hash.
func VerifyPassword(hashedPassword, password string) error {
	decodedHashedPassword, err := hex.DecodeString(hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to decode hashed password: %w", err)
	}

	return bcrypt.CompareHashAndPassword(decodedHashedPassword, []byte(password))
}

// GenerateSecretKey generates a random secret key for JWT.
func GenerateSecretKey() (string, error) {
	bytes := make([]byte, 32) // 256 bits

	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (in RegisterInput) Validate() error {
	var f fieldErrors
	validateUsername(&f, in.Username)
	validateEmail(&f, in.Email)
	validatePassword(&f, in.Password)

	return f.Err()
}

// Register creates an active, non-admin account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*store.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &store.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  hashedPassword,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		IsActive:  true,
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if store.IsDuplicate(err) {
			return nil, fmt.Errorf("username %q is taken: %w", input.Username, ErrDuplicate)
		}

		log.Error(ctx, "failed to create user", log.Cause(err))

		return nil, ErrInternal
	}

	log.Info(ctx, "user registered",
		log.Int("user_id", user.ID),
		log.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates the username/password pair and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*store.User, *objects.TokenPair, error) {
	user, err := s.AuthenticateUser(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.store.Users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Warn(ctx, "failed to update last login", log.Int("user_id", user.ID), log.Cause(err))
	} else {
		user.LastLogin = &now
	}

	s.UserService.invalidateUserCache(ctx, user.ID)

	return user, pair, nil
}

// AuthenticateUser authenticates a user with username and password.
func (s *AuthService) AuthenticateUser(ctx context.Context, username, password string) (*store.User, error) {
	user, err := authz.RunWithSystemBypass(ctx, "auth-lookup", func(bypassCtx context.Context) (*store.User, error) {
		return s.store.Users.GetByUsername(bypassCtx, username)
	})
	if err != nil {
		if store.NotFound(err) {
			return nil, fmt.Errorf("authenticate user: %w", ErrInvalidPassword)
		}

		log.Error(ctx, "failed to get user", log.Cause(err))

		return nil, ErrInternal
	}

	if !user.IsActive {
		return nil, fmt.Errorf("authenticate user: %w", ErrInvalidPassword)
	}

	if err := VerifyPassword(user.Password, password); err != nil {
		return nil, fmt.Errorf("authenticate user: %w", ErrInvalidPassword)
	}

	log.Debug(ctx, "user authenticated", log.Int("user_id", user.ID))

	return user, nil
}

// AuthenticateAccessToken validates an access token and returns its user.
func (s *AuthService) AuthenticateAccessToken(ctx context.Context, tokenString string) (*store.User, error) {
	userID, err := s.parseToken(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := authz.RunWithSystemBypass(ctx, "auth-lookup", func(bypassCtx context.Context) (*store.User, error) {
		return s.UserService.GetUserByID(bypassCtx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get user: %w", ErrInvalidJWT, err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account disabled", ErrInvalidJWT)
	}

	return user, nil
}

// Refresh exchanges a refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*objects.TokenPair, error) {
	userID, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := authz.RunWithSystemBypass(ctx, "auth-lookup", func(bypassCtx context.Context) (*store.User, error) {
		return s.UserService.GetUserByID(bypassCtx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get user: %w", ErrInvalidJWT, err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account disabled", ErrInvalidJWT)
	}

	return s.GenerateTokenPair(ctx, user)
}

// GenerateTokenPair issues an access and a refresh token for the user.
func (s *AuthService) GenerateTokenPair(ctx context.Context, user *store.User) (*objects.TokenPair, error) {
	access, err := s.signToken(user.ID, tokenTypeAccess, s.config.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.signToken(user.ID, tokenTypeRefresh, s.config.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &objects.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTTL.Seconds()),
	}, nil
}

func (s *AuthService) signToken(userID int, tokenType string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID,
		"token_type": tokenType,
		"exp":        time.Now().Add(ttl).Unix(),
	})

	return token.SignedString([]byte(s.config.Secret))
}

func (s *AuthService) parseToken(tokenString, wantType string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method: %v", ErrInvalidJWT, token.Header["alg"])
		}

		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to parse jwt token: %w", ErrInvalidJWT, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token", ErrInvalidJWT)
	}

	if claims["token_type"] != wantType {
		return 0, fmt.Errorf("%w: expected %s token", ErrInvalidJWT, wantType)
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid token claims", ErrInvalidJWT)
	}

	return int(userID), nil
}
