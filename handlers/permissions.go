package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/permissions"
)

// PermissionHandler serves the resolved permission snapshot the client
// cache hydrates from.
type PermissionHandler struct {
	service *permissions.Service
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(service *permissions.Service) *PermissionHandler {
	return &PermissionHandler{service: service}
}

// GetMyPermissions handles GET /api/v1/me/permissions. The response is the
// full decision set for the session: the client evaluates every UI gate
// against it without further round-trips.
func (h *PermissionHandler) GetMyPermissions(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	up, err := h.service.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, permissions.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve permissions"})
		return
	}

	accessible, err := h.service.AccessibleProjects(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userRole":           up.UserRole,
		"globalPermissions":  up.GlobalPermissions,
		"projectPermissions": up.ProjectPermissions,
		"projectRoles":       up.ProjectRoles,
		"accessibleProjects": accessible,
	})
}
