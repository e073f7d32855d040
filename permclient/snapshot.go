// Package permclient is the client-side mirror of the permission engine: it
// fetches the resolved snapshot once per session, caches it with a short TTL,
// and answers synchronous checks so UI gating never blocks on the network.
//
// This cache is a UX optimization, not a security boundary. The server-side
// authorization service gates every real mutation; the worst a stale or
// optimistic client answer can do is briefly render a control the server
// will reject.
package permclient

import (
	"time"

	"github.com/taskhive/taskhive/permissions"
)

// Snapshot is the serialized permission decision set served by
// GET /api/v1/me/permissions.
type Snapshot struct {
	UserRole           permissions.Role                    `json:"userRole"`
	GlobalPermissions  []permissions.Permission            `json:"globalPermissions"`
	ProjectPermissions map[string][]permissions.Permission `json:"projectPermissions"`
	ProjectRoles       map[string]permissions.ProjectRole  `json:"projectRoles"`
	AccessibleProjects []string                            `json:"accessibleProjects"`
}

// Empty reports whether the snapshot grants literally nothing. A loaded
// empty snapshot fails closed.
func (s *Snapshot) Empty() bool {
	return len(s.GlobalPermissions) == 0 && len(s.ProjectPermissions) == 0
}

// Has evaluates one permission against the snapshot, mirroring the server's
// scope dispatch. Own-scoped permissions are always granted. For project
// scope, a grant in the global set counts on any project: the server only
// ever serves grants for the caller's own organization, and where the server
// would still check the org boundary the cache stays optimistic, since it is
// a render hint and the server re-checks every real operation.
func (s *Snapshot) Has(perm permissions.Permission, projectID string) bool {
	switch permissions.ScopeOf(perm) {
	case permissions.ScopeOwn:
		return true
	case permissions.ScopeGlobal:
		return containsPermission(s.GlobalPermissions, perm)
	default: // project
		if containsPermission(s.GlobalPermissions, perm) {
			return true
		}
		if projectID == "" {
			return false
		}
		return containsPermission(s.ProjectPermissions[projectID], perm)
	}
}

// canReach reports whether the snapshot shows any relationship to the project.
func (s *Snapshot) canReach(projectID string) bool {
	if _, ok := s.ProjectPermissions[projectID]; ok {
		return true
	}
	for _, id := range s.AccessibleProjects {
		if id == projectID {
			return true
		}
	}
	return false
}

// DefaultSnapshot is the hardcoded read-only viewer fallback installed when
// the fetch fails (including 401). It keeps baseline navigation rendering
// and is cached with the normal TTL so failed fetches are not retried in a
// tight loop.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		UserRole:           permissions.RoleViewer,
		GlobalPermissions:  permissions.DefaultViewerPermissions(),
		ProjectPermissions: map[string][]permissions.Permission{},
		ProjectRoles:       map[string]permissions.ProjectRole{},
		AccessibleProjects: []string{},
	}
}

// Entry is a snapshot plus its fetch time, as persisted in session storage.
type Entry struct {
	Snapshot  *Snapshot `json:"snapshot"`
	FetchedAt time.Time `json:"fetched_at"`
}

func containsPermission(perms []permissions.Permission, p permissions.Permission) bool {
	for _, g := range perms {
		if g == p {
			return true
		}
	}
	return false
}
