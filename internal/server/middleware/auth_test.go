package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bk-med/kanban/internal/contexts"
	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/store"

	_ "github.com/bk-med/kanban/internal/pkg/sqlite"
)

func setupAuthTest(t *testing.T) (*gin.Engine, *biz.TestServices) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(store.Config{
		Dialect: "sqlite",
		DSN:     filepath.Join(t.TempDir(), "kanban.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))

	svc := biz.NewServicesForTest(st)

	router := gin.New()
	router.GET("/me", WithJWTAuth(svc.Auth), func(c *gin.Context) {
		user, ok := contexts.GetUser(c.Request.Context())
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user missing"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	router.GET("/admin/ping", WithJWTAuth(svc.Auth), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router, svc
}

func registerAndLogin(t *testing.T, svc *biz.TestServices, username string, admin bool) string {
	t.Helper()

	ctx := context.Background()

	user, err := svc.Auth.Register(ctx, biz.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
	})
	require.NoError(t, err)

	if admin {
		user.IsAdmin = true
		require.NoError(t, svc.Store.Users.Update(ctx, user))
	}

	_, pair, err := svc.Auth.Login(ctx, username, "password-"+username)
	require.NoError(t, err)

	return pair.AccessToken
}

func TestWithJWTAuth(t *testing.T) {
	router, svc := setupAuthTest(t)
	token := registerAndLogin(t, svc, "alice", false)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestWithJWTAuth_MissingHeader(t *testing.T) {
	router, _ := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
}

func TestWithJWTAuth_MalformedHeader(t *testing.T) {
	router, _ := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "must start with 'Bearer '")
}

func TestWithJWTAuth_GarbageToken(t *testing.T) {
	router, _ := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestRequireAdmin(t *testing.T) {
	router, svc := setupAuthTest(t)

	plain := registerAndLogin(t, svc, "bob", false)
	admin := registerAndLogin(t, svc, "root", true)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+plain)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+admin)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
