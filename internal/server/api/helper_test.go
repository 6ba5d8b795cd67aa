package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/server/middleware"
	"github.com/bk-med/kanban/internal/store"

	_ "github.com/bk-med/kanban/internal/pkg/sqlite"
)

// setupRouter builds the handlers over a fresh sqlite store and registers
// the same route layout the server does, minus the observability middleware.
func setupRouter(t *testing.T) (*gin.Engine, *biz.TestServices) {
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

	auth := NewAuthHandlers(AuthHandlersParams{AuthService: svc.Auth})
	projects := NewProjectHandlers(ProjectHandlersParams{ProjectService: svc.Projects, TaskService: svc.Tasks})
	tasks := NewTaskHandlers(TaskHandlersParams{TaskService: svc.Tasks})
	comments := NewCommentHandlers(CommentHandlersParams{CommentService: svc.Comments})
	activity := NewActivityHandlers(ActivityHandlersParams{ActivityLogService: svc.Activity})
	admin := NewAdminHandlers(AdminHandlersParams{
		UserService:    svc.Users,
		ProjectService: svc.Projects,
		TaskService:    svc.Tasks,
	})

	router := gin.New()

	router.POST("/auth/register", auth.Register)
	router.POST("/auth/login", auth.Login)
	router.POST("/auth/refresh", auth.Refresh)

	authed := router.Group("", middleware.WithJWTAuth(svc.Auth))
	{
		authed.GET("/auth/me", auth.Me)

		authed.GET("/projects", projects.List)
		authed.POST("/projects", projects.Create)
		authed.GET("/projects/:id", projects.Get)
		authed.PUT("/projects/:id", projects.Update)
		authed.DELETE("/projects/:id", projects.Delete)
		authed.POST("/projects/:id/members", projects.AddMember)
		authed.DELETE("/projects/:id/members/:userID", projects.RemoveMember)
		authed.GET("/projects/:id/stats", projects.Stats)
		authed.GET("/projects/:id/tasks", projects.ListTasks)
		authed.POST("/projects/:id/tasks", projects.CreateTask)

		authed.GET("/tasks", tasks.List)
		authed.POST("/tasks", tasks.Create)
		authed.GET("/tasks/:id", tasks.Get)
		authed.PUT("/tasks/:id", tasks.Update)
		authed.DELETE("/tasks/:id", tasks.Delete)
		authed.GET("/tasks/:id/comments", comments.ListForTask)
		authed.POST("/tasks/:id/comments", comments.CreateForTask)
		authed.GET("/tasks/:id/logs", activity.TaskTrail)

		authed.GET("/comments/:id", comments.Get)
		authed.PUT("/comments/:id", comments.Update)
		authed.DELETE("/comments/:id", comments.Delete)

		authed.GET("/logs", activity.List)
	}

	adminGroup := router.Group("/admin", middleware.WithJWTAuth(svc.Auth), middleware.RequireAdmin())
	{
		adminGroup.GET("/users", admin.ListUsers)
		adminGroup.POST("/users", admin.CreateUser)
		adminGroup.PUT("/users/:id", admin.UpdateUser)
		adminGroup.DELETE("/users/:id", admin.DeleteUser)
		adminGroup.GET("/projects", admin.ListProjects)
		adminGroup.DELETE("/projects/:id", admin.DeleteProject)
		adminGroup.GET("/tasks", admin.ListTasks)
		adminGroup.DELETE("/tasks/:id", admin.DeleteTask)
	}

	return router, svc
}

// registerAndLogin creates an account through the service layer and returns
// the user alongside a valid access token.
func registerAndLogin(t *testing.T, svc *biz.TestServices, username string, admin bool) (*store.User, string) {
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

	return user, pair.AccessToken
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())

	return out
}
