package permissions

import (
	"context"
	"fmt"
)

// Service is the authorization service route handlers consume. Boolean
// checks answer "is this allowed?" and never error for plain denial; the
// Require* family enforces and returns a PermissionDeniedError instead.
// Every call re-resolves from current relationship data, so concurrent
// requests never see stale cross-request state.
type Service struct {
	resolver *Resolver
	projects ProjectStore
}

// NewService creates the authorization service.
func NewService(resolver *Resolver, projects ProjectStore) *Service {
	return &Service{resolver: resolver, projects: projects}
}

// HasPermission reports whether the user holds the permission, dispatching
// on its scope:
//
//   - own: always true. The engine grants the capability; filtering to the
//     caller's own records is the call site's responsibility.
//   - global: true iff the permission is in the resolved global set.
//   - project: requires projectID (false without one). Granted either via
//     the per-project role, or via a global grant when the project belongs
//     to the user's own organization — admin-tier bypass never crosses the
//     org boundary.
//
// A missing user is a structural failure and propagates ErrNotFound; "no
// permission" is a false result, not an error.
func (s *Service) HasPermission(ctx context.Context, userID string, perm Permission, projectID string) (bool, error) {
	if ScopeOf(perm) == ScopeOwn {
		return true, nil
	}

	up, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}

	switch ScopeOf(perm) {
	case ScopeGlobal:
		return up.HasGlobal(perm), nil
	default: // ScopeProject
		if projectID == "" {
			return false, nil
		}
		if up.HasOnProject(perm, projectID) {
			return true, nil
		}
		if !up.HasGlobal(perm) {
			return false, nil
		}
		return s.sameOrg(ctx, up, projectID)
	}
}

// HasAnyPermission reports whether the user holds at least one of the
// permissions. Short-circuits on the first grant.
func (s *Service) HasAnyPermission(ctx context.Context, userID string, perms []Permission, projectID string) (bool, error) {
	for _, p := range perms {
		ok, err := s.HasPermission(ctx, userID, p, projectID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether the user holds every permission.
// Short-circuits on the first denial.
func (s *Service) HasAllPermissions(ctx context.Context, userID string, perms []Permission, projectID string) (bool, error) {
	for _, p := range perms {
		ok, err := s.HasPermission(ctx, userID, p, projectID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CanAccessProject reports whether the user can see the project at all:
// admin-tier roles reach every project in their own organization, everyone
// else needs a relationship (a key in the resolved project map).
func (s *Service) CanAccessProject(ctx context.Context, userID, projectID string) (bool, error) {
	up, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	if _, ok := up.ProjectPermissions[projectID]; ok {
		return true, nil
	}
	if !IsAdminTier(up.UserRole) {
		return false, nil
	}
	return s.sameOrg(ctx, up, projectID)
}

// CanManageProject is sugar for HasPermission(userID, ProjectUpdate, projectID).
func (s *Service) CanManageProject(ctx context.Context, userID, projectID string) (bool, error) {
	return s.HasPermission(ctx, userID, ProjectUpdate, projectID)
}

// AccessibleProjects returns the project ids the user can see: all projects
// in the user's organization for admin-tier roles, otherwise the projects
// they have a relationship to.
func (s *Service) AccessibleProjects(ctx context.Context, userID string) ([]string, error) {
	up, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if IsAdminTier(up.UserRole) {
		return s.projects.ProjectsInOrg(ctx, up.OrganizationID)
	}
	ids := make([]string, 0, len(up.ProjectPermissions))
	for id := range up.ProjectPermissions {
		ids = append(ids, id)
	}
	return ids, nil
}

// Resolve exposes the raw snapshot, used by the snapshot endpoint the client
// cache consumes.
func (s *Service) Resolve(ctx context.Context, userID string) (*UserPermissions, error) {
	return s.resolver.Resolve(ctx, userID)
}

// RequirePermission enforces a single permission. Returns nil when granted,
// *PermissionDeniedError when denied, ErrNotFound when the user is missing.
func (s *Service) RequirePermission(ctx context.Context, userID string, perm Permission, projectID string) error {
	ok, err := s.HasPermission(ctx, userID, perm, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return &PermissionDeniedError{UserID: userID, ProjectID: projectID, Permissions: []Permission{perm}}
	}
	return nil
}

// RequireAnyPermission enforces that at least one permission is held.
func (s *Service) RequireAnyPermission(ctx context.Context, userID string, perms []Permission, projectID string) error {
	ok, err := s.HasAnyPermission(ctx, userID, perms, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return &PermissionDeniedError{UserID: userID, ProjectID: projectID, Permissions: perms}
	}
	return nil
}

// RequireAllPermissions enforces that every permission is held.
func (s *Service) RequireAllPermissions(ctx context.Context, userID string, perms []Permission, projectID string) error {
	ok, err := s.HasAllPermissions(ctx, userID, perms, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return &PermissionDeniedError{UserID: userID, ProjectID: projectID, Permissions: perms}
	}
	return nil
}

// RequireProjectAccess enforces CanAccessProject.
func (s *Service) RequireProjectAccess(ctx context.Context, userID, projectID string) error {
	ok, err := s.CanAccessProject(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return &PermissionDeniedError{UserID: userID, ProjectID: projectID, Permissions: []Permission{ProjectRead}}
	}
	return nil
}

// RequireProjectManagement enforces CanManageProject.
func (s *Service) RequireProjectManagement(ctx context.Context, userID, projectID string) error {
	ok, err := s.CanManageProject(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return &PermissionDeniedError{UserID: userID, ProjectID: projectID, Permissions: []Permission{ProjectUpdate}}
	}
	return nil
}

// sameOrg reports whether the project belongs to the user's organization.
// A project that doesn't exist grants nothing rather than erroring: the
// check is about the caller's capability, not the project's existence.
func (s *Service) sameOrg(ctx context.Context, up *UserPermissions, projectID string) (bool, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to load project: %w", err)
	}
	return project.OrganizationID == up.OrganizationID, nil
}
