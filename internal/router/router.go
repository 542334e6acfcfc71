package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/internal/handler"
	"focustimer/internal/middleware"
	"focustimer/internal/service"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth     *handler.AuthHandler
	Tasks    *handler.TaskHandler
	Sessions *handler.SessionHandler
	Settings *handler.SettingsHandler
}

func New(authService *service.AuthService, handlers Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	routeMethods := func() []string { return middleware.RouteMethods(engine.Routes()) }
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins, routeMethods))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))
	protected.GET("/profile", handlers.Auth.GetProfile)
	protected.PUT("/profile", handlers.Auth.UpdateProfile)

	protected.GET("/settings", handlers.Settings.Get)
	protected.PUT("/settings", handlers.Settings.Update)

	tasks := protected.Group("/tasks")
	tasks.GET("", handlers.Tasks.List)
	tasks.POST("", handlers.Tasks.Create)
	tasks.PUT("/reorder", handlers.Tasks.Reorder)
	tasks.POST("/bulk-delete", handlers.Tasks.BulkDelete)
	tasks.PUT("/:id", handlers.Tasks.Update)
	tasks.DELETE("/:id", handlers.Tasks.Delete)

	sessions := protected.Group("/sessions")
	sessions.POST("", handlers.Sessions.Create)
	sessions.GET("", handlers.Sessions.List)
	sessions.GET("/stats", handlers.Sessions.Stats)

	return engine
}
