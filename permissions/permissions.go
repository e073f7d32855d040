// Package permissions implements the RBAC engine: a closed catalog of
// fine-grained permissions, static role tables, a resolver that computes a
// user's effective permission snapshot, and an authorization service used by
// route handlers to gate reads and mutations.
//
// Design principle: the tables in this file are the single source of truth.
// Nothing outside this package hard-codes a role→permission relationship.
package permissions

// Permission identifies a single capability in "category:action" form.
// The catalog is closed: a permission not listed here grants nothing.
type Permission string

// Organization & user administration
const (
	OrgUpdate        Permission = "org:update"
	OrgManageMembers Permission = "org:manage_members"
	OrgManageRoles   Permission = "org:manage_roles"
	OrgViewAudit     Permission = "org:view_audit"

	UserCreate    Permission = "user:create"
	UserReadAll   Permission = "user:read_all"
	UserUpdateAll Permission = "user:update_all"
	UserDelete    Permission = "user:delete"
)

// Projects
const (
	ProjectCreate        Permission = "project:create"
	ProjectRead          Permission = "project:read"
	ProjectReadAll       Permission = "project:read_all"
	ProjectUpdate        Permission = "project:update"
	ProjectDelete        Permission = "project:delete"
	ProjectDeleteAll     Permission = "project:delete_all"
	ProjectManageMembers Permission = "project:manage_members"
	ProjectViewSettings  Permission = "project:view_settings"
	ProjectEditSettings  Permission = "project:update_settings"
)

// Tasks & backlog
const (
	TaskCreate    Permission = "task:create"
	TaskRead      Permission = "task:read"
	TaskUpdateAll Permission = "task:update_all"
	TaskUpdateOwn Permission = "task:update_own"
	TaskDelete    Permission = "task:delete"
	TaskDeleteAll Permission = "task:delete_all"
	TaskAssign    Permission = "task:assign"
	TaskComment   Permission = "task:comment"

	BacklogRead       Permission = "backlog:read"
	BacklogManage     Permission = "backlog:manage"
	BacklogPrioritize Permission = "backlog:prioritize"
)

// Sprints
const (
	SprintCreate Permission = "sprint:create"
	SprintRead   Permission = "sprint:read"
	SprintUpdate Permission = "sprint:update"
	SprintDelete Permission = "sprint:delete"
	SprintManage Permission = "sprint:manage"
)

// Time tracking
const (
	TimeTrackingCreate    Permission = "time_tracking:create"
	TimeTrackingReadOwn   Permission = "time_tracking:read_own"
	TimeTrackingUpdateOwn Permission = "time_tracking:update_own"
	TimeTrackingDeleteOwn Permission = "time_tracking:delete_own"
	TimeTrackingReadAll   Permission = "time_tracking:read_all"
	TimeTrackingApprove   Permission = "time_tracking:approve"
	TimeTrackingManage    Permission = "time_tracking:manage"
)

// Budgets & expenses
const (
	BudgetCreate     Permission = "budget:create"
	BudgetRead       Permission = "budget:read"
	BudgetUpdate     Permission = "budget:update"
	BudgetDelete     Permission = "budget:delete"
	ExpenseSubmit    Permission = "expense:submit"
	ExpenseRead      Permission = "expense:read"
	ExpenseApprove   Permission = "expense:approve"
	ExpenseDelete    Permission = "expense:delete"
	FinancialReadAll Permission = "financial:read_all"
)

// Test management
const (
	TestCaseCreate  Permission = "test_case:create"
	TestCaseRead    Permission = "test_case:read"
	TestCaseUpdate  Permission = "test_case:update"
	TestCaseDelete  Permission = "test_case:delete"
	TestCaseExecute Permission = "test_case:execute"
	TestPlanManage  Permission = "test_plan:manage"
)

// Team & reporting
const (
	TeamRead      Permission = "team:read"
	TeamManage    Permission = "team:manage"
	TeamManageAll Permission = "team:manage_all"

	ReportRead   Permission = "report:read"
	ReportCreate Permission = "report:create"
	ReportExport Permission = "report:export"
)

// Scope describes where a permission is meaningful.
type Scope string

const (
	// ScopeGlobal permissions are organization-wide; only org roles grant them.
	ScopeGlobal Scope = "global"
	// ScopeProject permissions are held per project.
	ScopeProject Scope = "project"
	// ScopeOwn permissions always apply to the caller's own records; every
	// authenticated user holds them. Instance-level filtering ("is it really
	// yours?") is the caller's job, not this engine's.
	ScopeOwn Scope = "own"
)

// globalScoped lists the permissions that are only meaningful org-wide.
var globalScoped = map[Permission]bool{
	OrgUpdate:        true,
	OrgManageMembers: true,
	OrgManageRoles:   true,
	OrgViewAudit:     true,
	UserCreate:       true,
	UserReadAll:      true,
	UserUpdateAll:    true,
	UserDelete:       true,
	ProjectCreate:    true,
	ProjectReadAll:   true,
	ProjectDeleteAll: true,
	FinancialReadAll: true,
	TeamManageAll:    true,
}

// ownScoped lists the permissions every user holds for their own records.
var ownScoped = map[Permission]bool{
	TimeTrackingCreate:    true,
	TimeTrackingReadOwn:   true,
	TimeTrackingUpdateOwn: true,
	TimeTrackingDeleteOwn: true,
	TaskUpdateOwn:         true,
	TaskComment:           true,
	ExpenseSubmit:         true,
}

// ScopeOf returns the scope of a permission. The mapping is a pure function
// of the permission value: explicit global set, explicit own set, everything
// else is project-scoped. Unknown permissions report ScopeProject and grant
// nothing anywhere.
func ScopeOf(p Permission) Scope {
	if globalScoped[p] {
		return ScopeGlobal
	}
	if ownScoped[p] {
		return ScopeOwn
	}
	return ScopeProject
}

// AllPermissions returns the full catalog. super_admin is granted exactly
// this set.
func AllPermissions() []Permission {
	return []Permission{
		OrgUpdate, OrgManageMembers, OrgManageRoles, OrgViewAudit,
		UserCreate, UserReadAll, UserUpdateAll, UserDelete,
		ProjectCreate, ProjectRead, ProjectReadAll, ProjectUpdate,
		ProjectDelete, ProjectDeleteAll, ProjectManageMembers,
		ProjectViewSettings, ProjectEditSettings,
		TaskCreate, TaskRead, TaskUpdateAll, TaskUpdateOwn, TaskDelete,
		TaskDeleteAll, TaskAssign, TaskComment,
		BacklogRead, BacklogManage, BacklogPrioritize,
		SprintCreate, SprintRead, SprintUpdate, SprintDelete, SprintManage,
		TimeTrackingCreate, TimeTrackingReadOwn, TimeTrackingUpdateOwn,
		TimeTrackingDeleteOwn, TimeTrackingReadAll, TimeTrackingApprove,
		TimeTrackingManage,
		BudgetCreate, BudgetRead, BudgetUpdate, BudgetDelete,
		ExpenseSubmit, ExpenseRead, ExpenseApprove, ExpenseDelete,
		FinancialReadAll,
		TestCaseCreate, TestCaseRead, TestCaseUpdate, TestCaseDelete,
		TestCaseExecute, TestPlanManage,
		TeamRead, TeamManage, TeamManageAll,
		ReportRead, ReportCreate, ReportExport,
	}
}

// Role is a user's organization-wide role. Every user has exactly one.
type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleAdmin          Role = "admin"
	RoleHumanResource  Role = "human_resource"
	RoleProjectManager Role = "project_manager"
	RoleTeamMember     Role = "team_member"
	RoleClient         Role = "client"
	RoleViewer         Role = "viewer"
	RoleQAEngineer     Role = "qa_engineer"
	RoleTester         Role = "tester"
)

// ProjectRole is a user's effective role within one project. It is derived
// per (user, project) pair unless the project carries an explicit assignment.
type ProjectRole string

const (
	ProjectRoleManager ProjectRole = "project_manager"
	ProjectRoleMember  ProjectRole = "project_member"
	ProjectRoleViewer  ProjectRole = "project_viewer"
	ProjectRoleClient  ProjectRole = "project_client"
	ProjectRoleQALead  ProjectRole = "project_qa_lead"
	ProjectRoleTester  ProjectRole = "project_tester"
)

// RolePermissions maps each organization role to its base grant set.
// super_admin gets the entire catalog; every other role is a strict subset.
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: AllPermissions(),
	RoleAdmin: {
		OrgManageMembers, OrgManageRoles, OrgViewAudit,
		UserCreate, UserReadAll, UserUpdateAll,
		ProjectCreate, ProjectRead, ProjectReadAll, ProjectUpdate,
		ProjectDelete, ProjectManageMembers, ProjectViewSettings,
		ProjectEditSettings,
		TaskCreate, TaskRead, TaskUpdateAll, TaskDelete, TaskDeleteAll,
		TaskAssign,
		BacklogRead, BacklogManage, BacklogPrioritize,
		SprintCreate, SprintRead, SprintUpdate, SprintDelete, SprintManage,
		TimeTrackingReadAll, TimeTrackingApprove, TimeTrackingManage,
		BudgetCreate, BudgetRead, BudgetUpdate, BudgetDelete,
		ExpenseRead, ExpenseApprove, ExpenseDelete, FinancialReadAll,
		TestCaseCreate, TestCaseRead, TestCaseUpdate, TestCaseDelete,
		TestCaseExecute, TestPlanManage,
		TeamRead, TeamManage, TeamManageAll,
		ReportRead, ReportCreate, ReportExport,
	},
	RoleHumanResource: {
		UserCreate, UserReadAll, UserUpdateAll,
		ProjectRead,
		TimeTrackingReadAll, TimeTrackingApprove,
		TeamRead, TeamManageAll,
		ReportRead, ReportCreate, ReportExport,
	},
	RoleProjectManager: {
		ProjectCreate, ProjectRead, ProjectUpdate, ProjectManageMembers,
		ProjectViewSettings, ProjectEditSettings,
		TaskCreate, TaskRead, TaskUpdateAll, TaskDelete, TaskDeleteAll,
		TaskAssign,
		BacklogRead, BacklogManage, BacklogPrioritize,
		SprintCreate, SprintRead, SprintUpdate, SprintDelete, SprintManage,
		TimeTrackingReadAll, TimeTrackingApprove, TimeTrackingManage,
		BudgetCreate, BudgetRead, BudgetUpdate, BudgetDelete,
		ExpenseRead, ExpenseApprove,
		TestCaseRead, TestCaseExecute,
		TeamRead, TeamManage,
		ReportRead, ReportCreate, ReportExport,
	},
	RoleTeamMember: {
		ProjectRead,
		TaskCreate, TaskRead,
		BacklogRead,
		SprintRead,
		ExpenseRead,
		TestCaseRead,
		TeamRead,
		ReportRead,
	},
	RoleClient: {
		ProjectRead,
		TaskRead,
		BacklogRead,
		SprintRead,
		BudgetRead, ExpenseRead,
		TeamRead,
		ReportRead, ReportExport,
	},
	RoleViewer: {
		ProjectRead,
		TaskRead,
		BacklogRead,
		SprintRead,
		TestCaseRead,
		TeamRead,
		ReportRead,
	},
	RoleQAEngineer: {
		ProjectRead,
		TaskCreate, TaskRead,
		BacklogRead,
		SprintRead,
		TestCaseCreate, TestCaseRead, TestCaseUpdate, TestCaseDelete,
		TestCaseExecute, TestPlanManage,
		TeamRead,
		ReportRead,
	},
	RoleTester: {
		ProjectRead,
		TaskRead,
		SprintRead,
		TestCaseRead, TestCaseExecute,
		TeamRead,
	},
}

// ProjectRolePermissions maps each project role to the project-scoped
// permissions it grants within that project.
var ProjectRolePermissions = map[ProjectRole][]Permission{
	ProjectRoleManager: {
		ProjectRead, ProjectUpdate, ProjectDelete, ProjectManageMembers,
		ProjectViewSettings, ProjectEditSettings,
		TaskCreate, TaskRead, TaskUpdateAll, TaskDelete, TaskDeleteAll,
		TaskAssign,
		BacklogRead, BacklogManage, BacklogPrioritize,
		SprintCreate, SprintRead, SprintUpdate, SprintDelete, SprintManage,
		TimeTrackingReadAll, TimeTrackingApprove, TimeTrackingManage,
		BudgetCreate, BudgetRead, BudgetUpdate, BudgetDelete,
		ExpenseRead, ExpenseApprove, ExpenseDelete,
		TestCaseCreate, TestCaseRead, TestCaseUpdate, TestCaseDelete,
		TestCaseExecute, TestPlanManage,
		TeamRead, TeamManage,
		ReportRead, ReportCreate, ReportExport,
	},
	ProjectRoleMember: {
		ProjectRead, ProjectViewSettings,
		TaskCreate, TaskRead, TaskAssign,
		BacklogRead,
		SprintRead,
		ExpenseRead,
		TestCaseRead,
		TeamRead,
		ReportRead,
	},
	ProjectRoleViewer: {
		ProjectRead,
		TaskRead,
		BacklogRead,
		SprintRead,
		TestCaseRead,
		TeamRead,
		ReportRead,
	},
	ProjectRoleClient: {
		ProjectRead,
		TaskRead,
		SprintRead,
		BudgetRead, ExpenseRead,
		TeamRead,
		ReportRead, ReportExport,
	},
	ProjectRoleQALead: {
		ProjectRead, ProjectViewSettings,
		TaskCreate, TaskRead, TaskAssign,
		BacklogRead,
		SprintRead,
		TestCaseCreate, TestCaseRead, TestCaseUpdate, TestCaseDelete,
		TestCaseExecute, TestPlanManage,
		TeamRead,
		ReportRead,
	},
	ProjectRoleTester: {
		ProjectRead,
		TaskRead,
		SprintRead,
		TestCaseRead, TestCaseExecute,
		TeamRead,
	},
}

// GrantsOf returns the base permission set for an organization role. Unknown
// roles yield an empty grant, never an error.
func GrantsOf(role Role) []Permission {
	return RolePermissions[role]
}

// ProjectGrantsOf returns the permission set for a project role. Unknown
// roles yield an empty grant, never an error.
func ProjectGrantsOf(role ProjectRole) []Permission {
	return ProjectRolePermissions[role]
}

// IsAdminTier reports whether an org role bypasses per-project membership.
// Admin-tier users still only see projects inside their own organization.
func IsAdminTier(role Role) bool {
	return role == RoleSuperAdmin || role == RoleAdmin
}

// DefaultViewerPermissions is the hardcoded read-only fallback the client
// cache uses when the snapshot fetch fails. It keeps baseline navigation
// rendering; the server never consults it.
func DefaultViewerPermissions() []Permission {
	return []Permission{
		ProjectRead, ProjectViewSettings,
		TaskRead,
		BacklogRead,
		SprintRead,
		TimeTrackingReadOwn,
		BudgetRead, ExpenseRead,
		TestCaseRead,
		TeamRead,
		ReportRead,
	}
}
