package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/handlers"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/permissions"
	"github.com/taskhive/taskhive/services"
)

// NewGinRouter wires the API: auth, the permission engine, and the
// permission-gated project routes.
func NewGinRouter(pg *sql.DB) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Project-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize the permission engine
	store := permissions.NewPGStore(pg)
	resolver := permissions.NewResolver(store, store, store)
	permService := permissions.NewService(resolver, store)
	permMiddleware := permissions.NewMiddleware(permService)

	// Initialize services
	jwtService := services.NewJWTService(config.App.JWTSecret)
	authService := services.NewAuthService(pg, jwtService)
	projectService := services.NewProjectService(pg)

	// Initialize handlers
	authMiddleware := handlers.NewAuthMiddleware(jwtService)
	authHandler := handlers.NewAuthHandler(authService)
	permissionHandler := handlers.NewPermissionHandler(permService)
	projectHandler := handlers.NewProjectHandler(projectService, permService)

	api := r.Group("/api/v1")

	// Public routes
	api.POST("/auth/login", authHandler.Login)

	// Authenticated routes
	authed := api.Group("")
	authed.Use(authMiddleware.RequireAuth())

	// Permission snapshot for the client cache
	authed.GET("/me/permissions", permissionHandler.GetMyPermissions)

	// Project routes, gated by the permission middleware
	projects := authed.Group("/projects")
	projects.GET("", projectHandler.ListProjects)
	projects.GET("/:project_id", permMiddleware.RequireProjectAccess(), projectHandler.GetProject)
	projects.PUT("/:project_id", permMiddleware.RequireProjectManagement(), projectHandler.UpdateProject)
	projects.PUT("/:project_id/roles",
		permMiddleware.RequirePermission(permissions.ProjectManageMembers),
		projectHandler.AssignRole)
	projects.DELETE("/:project_id/roles/:user_id",
		permMiddleware.RequirePermission(permissions.ProjectManageMembers),
		projectHandler.RemoveRole)

	return r
}
