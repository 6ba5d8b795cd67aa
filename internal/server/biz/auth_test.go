package biz

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	password := "test-password-123"

	hashedPassword, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEmpty(t, hashedPassword)
	assert.NotEqual(t, password, hashedPassword)

	// Same password hashes differently every time (salt).
	hashedPassword2, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, hashedPassword, hashedPassword2)
}

func TestVerifyPassword(t *testing.T) {
	password := "test-password-123"

	hashedPassword, err := HashPassword(password)
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(hashedPassword, password))
	assert.Error(t, VerifyPassword(hashedPassword, "wrong-password"))
	assert.Error(t, VerifyPassword("invalid-hash", password))
}

func TestGenerateSecretKey(t *testing.T) {
	secretKey, err := GenerateSecretKey()
	require.NoError(t, err)
	assert.Len(t, secretKey, 64) // 32 bytes, hex encoded

	secretKey2, err := GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEqual(t, secretKey, secretKey2)
}

func TestRegister(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.Auth.Register(ctx, RegisterInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "long-enough-password",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)

	// Stored password is hashed.
	assert.NoError(t, VerifyPassword(user.Password, "long-enough-password"))

	// Duplicate username conflicts.
	_, err = svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "long-enough-password",
	})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "",
		Email:    "not-an-email",
		Password: "short",
	})
	require.ErrorIs(t, err, ErrValidation)

	// All failing fields are reported at once.
	assert.Contains(t, err.Error(), "username")
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "password")
}

func TestLogin(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	registered, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)
	require.Nil(t, registered.LastLogin)

	user, pair, err := svc.Auth.Login(ctx, "alice", "long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotNil(t, user.LastLogin)

	_, _, err = svc.Auth.Login(ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, _, err = svc.Auth.Login(ctx, "nobody", "long-enough-password")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, svc.Store.Users.Update(ctx, user))

	_, _, err = svc.Auth.Login(ctx, "alice", "long-enough-password")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthenticateAccessToken(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	registered, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	_, pair, err := svc.Auth.Login(ctx, "alice", "long-enough-password")
	require.NoError(t, err)

	user, err := svc.Auth.AuthenticateAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// A refresh token is not an access token.
	_, err = svc.Auth.AuthenticateAccessToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidJWT)

	// Garbage is rejected.
	_, err = svc.Auth.AuthenticateAccessToken(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestAuthenticateAccessToken_WrongKey(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    1,
		"token_type": tokenTypeAccess,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	forgedString, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = svc.Auth.AuthenticateAccessToken(ctx, forgedString)
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestAuthenticateAccessToken_Expired(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"token_type": tokenTypeAccess,
		"exp":        time.Now().Add(-time.Minute).Unix(),
	})

	expiredString, err := expired.SignedString([]byte(svc.Auth.config.Secret))
	require.NoError(t, err)

	_, err = svc.Auth.AuthenticateAccessToken(ctx, expiredString)
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestAuthenticateAccessToken_DeactivatedAfterIssue(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	_, pair, err := svc.Auth.Login(ctx, "alice", "long-enough-password")
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, svc.Store.Users.Update(ctx, user))
	svc.Users.invalidateUserCache(ctx, user.ID)

	_, err = svc.Auth.AuthenticateAccessToken(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestRefresh(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	_, pair, err := svc.Auth.Login(ctx, "alice", "long-enough-password")
	require.NoError(t, err)

	fresh, err := svc.Auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// The fresh access token authenticates.
	_, err = svc.Auth.AuthenticateAccessToken(ctx, fresh.AccessToken)
	require.NoError(t, err)

	// An access token cannot be used to refresh.
	_, err = svc.Auth.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidJWT)
}
