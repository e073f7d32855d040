package permissions

import (
	"context"
	"fmt"
)

// User is the minimal user shape the engine needs.
type User struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Role           Role   `json:"role"`
	CustomRoleID   string `json:"custom_role_id,omitempty"`
}

// CustomRole is an organization-defined named permission bundle. Its grants
// are additively merged into the holder's global set; a custom role can never
// revoke a built-in role's permissions.
type CustomRole struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// RoleAssignment is an explicit per-user project role on a project. When
// present it overrides the derived role.
type RoleAssignment struct {
	UserID string      `json:"user_id"`
	Role   ProjectRole `json:"role"`
}

// Project is the minimal project shape the engine needs.
type Project struct {
	ID              string           `json:"id"`
	OrganizationID  string           `json:"organization_id"`
	CreatedBy       string           `json:"created_by"`
	ClientID        string           `json:"client_id,omitempty"`
	TeamMembers     []string         `json:"team_members"`
	RoleAssignments []RoleAssignment `json:"role_assignments,omitempty"`
}

// UserStore looks up users. Owned by the user subsystem; the engine only
// reads through it.
type UserStore interface {
	// GetUser returns the user or ErrNotFound.
	GetUser(ctx context.Context, userID string) (*User, error)
}

// ProjectStore looks up projects. Owned by the project subsystem.
type ProjectStore interface {
	// ProjectsForUser returns every project the user has some relationship
	// to: team member, creator, or client.
	ProjectsForUser(ctx context.Context, userID string) ([]Project, error)

	// GetProject returns the project or ErrNotFound.
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// ProjectsInOrg returns all project ids in an organization. Used for the
	// admin-tier accessible-projects path.
	ProjectsInOrg(ctx context.Context, orgID string) ([]string, error)
}

// CustomRoleStore looks up custom roles.
type CustomRoleStore interface {
	// GetCustomRole returns the custom role or ErrNotFound.
	GetCustomRole(ctx context.Context, id string) (*CustomRole, error)
}

// UserPermissions is the resolved, point-in-time snapshot for one user.
// It is recomputed on every resolution call; nothing server-side caches it.
type UserPermissions struct {
	UserID             string                  `json:"user_id"`
	UserRole           Role                    `json:"user_role"`
	OrganizationID     string                  `json:"organization_id"`
	CustomRole         *CustomRole             `json:"custom_role,omitempty"`
	GlobalPermissions  []Permission            `json:"global_permissions"`
	ProjectPermissions map[string][]Permission `json:"project_permissions"`
	ProjectRoles       map[string]ProjectRole  `json:"project_roles"`
}

// HasGlobal reports whether the snapshot's global set contains p.
func (up *UserPermissions) HasGlobal(p Permission) bool {
	for _, g := range up.GlobalPermissions {
		if g == p {
			return true
		}
	}
	return false
}

// HasOnProject reports whether the snapshot grants p on the given project.
func (up *UserPermissions) HasOnProject(p Permission, projectID string) bool {
	for _, g := range up.ProjectPermissions[projectID] {
		if g == p {
			return true
		}
	}
	return false
}

// Resolver computes permission snapshots from current relationship data.
// Resolution is a pure read: no mutation, no caching, safe for concurrent
// use.
type Resolver struct {
	users       UserStore
	projects    ProjectStore
	customRoles CustomRoleStore
}

// NewResolver creates a Resolver over the given read contracts.
func NewResolver(users UserStore, projects ProjectStore, customRoles CustomRoleStore) *Resolver {
	return &Resolver{
		users:       users,
		projects:    projects,
		customRoles: customRoles,
	}
}

// Resolve computes the effective permission snapshot for a user.
// Global permissions are the role's base grants unioned with the custom
// role's grants, if any. Every project the user has any relationship to
// appears as a key in ProjectPermissions, even when the derived role adds
// nothing beyond the global set.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*UserPermissions, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	global := append([]Permission(nil), GrantsOf(user.Role)...)

	var custom *CustomRole
	if user.CustomRoleID != "" {
		custom, err = r.customRoles.GetCustomRole(ctx, user.CustomRoleID)
		if err != nil && err != ErrNotFound {
			return nil, fmt.Errorf("failed to load custom role: %w", err)
		}
		// A dangling custom role reference grants nothing extra.
		if custom != nil {
			global = unionPermissions(global, custom.Permissions)
		}
	}

	projects, err := r.projects.ProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user projects: %w", err)
	}

	projectPerms := make(map[string][]Permission, len(projects))
	projectRoles := make(map[string]ProjectRole, len(projects))
	for i := range projects {
		role := DeriveProjectRole(user.ID, &projects[i])
		projectRoles[projects[i].ID] = role
		projectPerms[projects[i].ID] = append([]Permission(nil), ProjectGrantsOf(role)...)
	}

	return &UserPermissions{
		UserID:             user.ID,
		UserRole:           user.Role,
		OrganizationID:     user.OrganizationID,
		CustomRole:         custom,
		GlobalPermissions:  global,
		ProjectPermissions: projectPerms,
		ProjectRoles:       projectRoles,
	}, nil
}

// DeriveProjectRole computes the effective project role for a (user, project)
// pair. Precedence: explicit assignment > creator > client > team member >
// viewer. The precedence order, not role merging, breaks ties: a user who is
// both creator and team member is a project_manager.
func DeriveProjectRole(userID string, project *Project) ProjectRole {
	for _, a := range project.RoleAssignments {
		if a.UserID == userID {
			return a.Role
		}
	}
	if project.CreatedBy == userID {
		return ProjectRoleManager
	}
	if project.ClientID == userID {
		return ProjectRoleClient
	}
	for _, m := range project.TeamMembers {
		if m == userID {
			return ProjectRoleMember
		}
	}
	// Defensive default: callers only derive for related users.
	return ProjectRoleViewer
}

// unionPermissions returns base ∪ extra, preserving base order and appending
// unseen extras in order.
func unionPermissions(base, extra []Permission) []Permission {
	seen := make(map[Permission]bool, len(base))
	for _, p := range base {
		seen[p] = true
	}
	out := base
	for _, p := range extra {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
