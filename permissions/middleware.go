package permissions

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware gates routes with the authorization service. Denials return a
// generic 403: the permission being tested is a server-log-only detail and
// is never echoed to the client.
type Middleware struct {
	Service *Service
}

// NewMiddleware creates the authorization middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{Service: service}
}

// RequirePermission ensures the user holds one permission.
// Usage: router.POST("/sprints", mw.RequirePermission(permissions.SprintCreate), handler)
func (m *Middleware) RequirePermission(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User not authenticated",
			})
			return
		}

		err := m.Service.RequirePermission(c.Request.Context(), userID, perm, projectIDFrom(c))
		if err != nil {
			abortWithAuthzError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAnyPermission ensures the user holds at least one of the permissions.
func (m *Middleware) RequireAnyPermission(perms ...Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User not authenticated",
			})
			return
		}

		err := m.Service.RequireAnyPermission(c.Request.Context(), userID, perms, projectIDFrom(c))
		if err != nil {
			abortWithAuthzError(c, err)
			return
		}
		c.Next()
	}
}

// RequireProjectAccess ensures the user can see the project at all.
func (m *Middleware) RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User not authenticated",
			})
			return
		}

		projectID := projectIDFrom(c)
		if projectID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "bad_request",
				"message": "Project ID is required",
			})
			return
		}

		if err := m.Service.RequireProjectAccess(c.Request.Context(), userID, projectID); err != nil {
			abortWithAuthzError(c, err)
			return
		}
		c.Next()
	}
}

// RequireProjectManagement ensures the user can manage (update) the project.
func (m *Middleware) RequireProjectManagement() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User not authenticated",
			})
			return
		}

		projectID := projectIDFrom(c)
		if projectID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "bad_request",
				"message": "Project ID is required",
			})
			return
		}

		if err := m.Service.RequireProjectManagement(c.Request.Context(), userID, projectID); err != nil {
			abortWithAuthzError(c, err)
			return
		}
		c.Next()
	}
}

// projectIDFrom extracts the target project id.
// Priority: URL param > query param > header.
func projectIDFrom(c *gin.Context) string {
	projectID := c.Param("project_id")
	if projectID == "" {
		projectID = c.Query("project_id")
	}
	if projectID == "" {
		projectID = c.GetHeader("X-Project-ID")
	}
	return projectID
}

// abortWithAuthzError translates engine errors into HTTP responses. The
// denied permission list goes to the server log only.
func abortWithAuthzError(c *gin.Context, err error) {
	var denied *PermissionDeniedError
	if errors.As(err, &denied) {
		log.Printf("AUTHZ DENIED - %v", denied)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to perform this action",
		})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Resource not found",
		})
		return
	}
	log.Printf("AUTHZ ERROR - %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "Authorization check failed",
	})
}
