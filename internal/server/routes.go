package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/server/api"
	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/server/middleware"
)

type Handlers struct {
	fx.In

	Auth     *api.AuthHandlers
	Project  *api.ProjectHandlers
	Task     *api.TaskHandlers
	Comment  *api.CommentHandlers
	Activity *api.ActivityHandlers
	Admin    *api.AdminHandlers
	System   *api.SystemHandlers
}

type Services struct {
	fx.In

	AuthService *biz.AuthService
}

func SetupRoutes(server *Server, handlers Handlers, services Services) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))
	server.Use(middleware.WithMetrics())

	// Setup CORS middleware at server level if enabled
	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group(server.Config.BasePath, middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health check endpoint - no authentication required
		publicGroup.GET("/health", handlers.System.Health)

		publicGroup.POST("/auth/register", handlers.Auth.Register)
		publicGroup.POST("/auth/login", handlers.Auth.Login)
		publicGroup.POST("/auth/refresh", handlers.Auth.Refresh)
	}

	authedGroup := server.Group(server.Config.BasePath,
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithJWTAuth(services.AuthService),
	)
	{
		authedGroup.GET("/auth/me", handlers.Auth.Me)

		projectGroup := authedGroup.Group("/projects")
		projectGroup.GET("", handlers.Project.List)
		projectGroup.POST("", handlers.Project.Create)
		projectGroup.GET("/:id", handlers.Project.Get)
		projectGroup.PUT("/:id", handlers.Project.Update)
		projectGroup.DELETE("/:id", handlers.Project.Delete)
		projectGroup.POST("/:id/members", handlers.Project.AddMember)
		projectGroup.DELETE("/:id/members/:userID", handlers.Project.RemoveMember)
		projectGroup.GET("/:id/stats", handlers.Project.Stats)
		projectGroup.GET("/:id/tasks", handlers.Project.ListTasks)
		projectGroup.POST("/:id/tasks", handlers.Project.CreateTask)

		taskGroup := authedGroup.Group("/tasks")
		taskGroup.GET("", handlers.Task.List)
		taskGroup.POST("", handlers.Task.Create)
		taskGroup.GET("/:id", handlers.Task.Get)
		taskGroup.PUT("/:id", handlers.Task.Update)
		taskGroup.DELETE("/:id", handlers.Task.Delete)
		taskGroup.GET("/:id/comments", handlers.Comment.ListForTask)
		taskGroup.POST("/:id/comments", handlers.Comment.CreateForTask)
		taskGroup.GET("/:id/logs", handlers.Activity.TaskTrail)

		commentGroup := authedGroup.Group("/comments")
		commentGroup.GET("/:id", handlers.Comment.Get)
		commentGroup.PUT("/:id", handlers.Comment.Update)
		commentGroup.DELETE("/:id", handlers.Comment.Delete)

		// The feed is read-only, log entries are written by the services.
		authedGroup.GET("/logs", handlers.Activity.List)
	}

	adminGroup := server.Group(server.Config.BasePath+"/admin",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithJWTAuth(services.AuthService),
		middleware.RequireAdmin(),
	)
	{
		adminGroup.GET("/users", handlers.Admin.ListUsers)
		adminGroup.POST("/users", handlers.Admin.CreateUser)
		adminGroup.PUT("/users/:id", handlers.Admin.UpdateUser)
		adminGroup.DELETE("/users/:id", handlers.Admin.DeleteUser)

		adminGroup.GET("/projects", handlers.Admin.ListProjects)
		adminGroup.DELETE("/projects/:id", handlers.Admin.DeleteProject)

		adminGroup.GET("/tasks", handlers.Admin.ListTasks)
		adminGroup.DELETE("/tasks/:id", handlers.Admin.DeleteTask)
	}
}
