package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/permissions"
	"github.com/taskhive/taskhive/services"
)

// ProjectHandler handles project-related HTTP requests. Routes are gated by
// the permission middleware; handlers only re-check where they need the
// decision inline (e.g. list filtering).
type ProjectHandler struct {
	projectService *services.ProjectService
	permService    *permissions.Service
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *services.ProjectService, permService *permissions.Service) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, permService: permService}
}

// ListProjects handles GET /api/v1/projects — every project the caller can
// see (their own relationships, or the whole org for admin tiers).
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ids, err := h.permService.AccessibleProjects(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, permissions.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}

	projects, err := h.projectService.ListByIDs(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject handles GET /api/v1/projects/:project_id (access-gated)
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get project"})
		return
	}

	c.JSON(http.StatusOK, project)
}

// UpdateProject handles PUT /api/v1/projects/:project_id (manage-gated)
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var input services.UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), c.Param("project_id"), input)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update project"})
		return
	}

	c.JSON(http.StatusOK, project)
}

// AssignRole handles PUT /api/v1/projects/:project_id/roles (member-management
// gated). Clients should call Refresh on their permission cache after this:
// the snapshot they hold predates the role change.
func (h *ProjectHandler) AssignRole(c *gin.Context) {
	var input struct {
		UserID string `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch permissions.ProjectRole(input.Role) {
	case permissions.ProjectRoleManager, permissions.ProjectRoleMember,
		permissions.ProjectRoleViewer, permissions.ProjectRoleClient,
		permissions.ProjectRoleQALead, permissions.ProjectRoleTester:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown project role"})
		return
	}

	err := h.projectService.AssignRole(c.Request.Context(), c.Param("project_id"), input.UserID, input.Role)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RemoveRole handles DELETE /api/v1/projects/:project_id/roles/:user_id
func (h *ProjectHandler) RemoveRole(c *gin.Context) {
	err := h.projectService.RemoveRole(c.Request.Context(), c.Param("project_id"), c.Param("user_id"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
