package permclient

import "github.com/taskhive/taskhive/permissions"

// Gate is a conditional-render guard over the store: visible while the
// snapshot is loading (optimistic), hidden once loaded without the required
// permissions (pessimistic once settled). Set RequireAll to demand every
// permission instead of any.
type Gate struct {
	Store       *Store
	Permissions []permissions.Permission
	ProjectID   string
	RequireAll  bool
}

// Visible reports whether the gated content should render.
func (g *Gate) Visible() bool {
	if len(g.Permissions) == 0 {
		return true
	}
	if g.RequireAll {
		return g.Store.HasAllPermissions(g.Permissions, g.ProjectID)
	}
	return g.Store.HasAnyPermission(g.Permissions, g.ProjectID)
}

// ProjectGate guards project-level content: access by default, management
// when Manage is set.
type ProjectGate struct {
	Store     *Store
	ProjectID string
	Manage    bool
}

// Visible reports whether the project content should render.
func (g *ProjectGate) Visible() bool {
	if g.Manage {
		return g.Store.CanManageProject(g.ProjectID)
	}
	return g.Store.CanAccessProject(g.ProjectID)
}

// Feature bundles: convenience booleans per feature area. These are pure
// combinators over the cached snapshot, never separate fetches.

// CanManageSprints reports whether any sprint-management control should show.
func (s *Store) CanManageSprints(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.SprintCreate,
		permissions.SprintUpdate,
		permissions.SprintDelete,
		permissions.SprintManage,
	}, projectID)
}

// CanManageBacklog reports whether backlog editing controls should show.
func (s *Store) CanManageBacklog(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.BacklogManage,
		permissions.BacklogPrioritize,
	}, projectID)
}

// CanManageTasks reports whether task mutation controls should show.
func (s *Store) CanManageTasks(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.TaskCreate,
		permissions.TaskUpdateAll,
		permissions.TaskDelete,
		permissions.TaskDeleteAll,
		permissions.TaskAssign,
	}, projectID)
}

// CanManageBudgets reports whether budget/expense management should show.
func (s *Store) CanManageBudgets(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.BudgetCreate,
		permissions.BudgetUpdate,
		permissions.BudgetDelete,
		permissions.ExpenseApprove,
	}, projectID)
}

// CanTrackTime reports whether the timer UI should show. Time entry
// creation is own-scoped, so this is true for any authenticated session.
func (s *Store) CanTrackTime() bool {
	return s.HasPermission(permissions.TimeTrackingCreate, "")
}

// CanApproveTimesheets reports whether timesheet approval controls should show.
func (s *Store) CanApproveTimesheets(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.TimeTrackingApprove,
		permissions.TimeTrackingManage,
	}, projectID)
}

// CanManageTests reports whether test-management controls should show.
func (s *Store) CanManageTests(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.TestCaseCreate,
		permissions.TestCaseUpdate,
		permissions.TestCaseDelete,
		permissions.TestPlanManage,
	}, projectID)
}

// CanViewReports reports whether the reporting area should show.
func (s *Store) CanViewReports(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.ReportRead,
		permissions.ReportCreate,
		permissions.ReportExport,
	}, projectID)
}

// CanManageTeam reports whether team-management controls should show.
func (s *Store) CanManageTeam(projectID string) bool {
	return s.HasAnyPermission([]permissions.Permission{
		permissions.TeamManage,
		permissions.TeamManageAll,
		permissions.ProjectManageMembers,
	}, projectID)
}
