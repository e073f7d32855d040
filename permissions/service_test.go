package permissions

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func newTestService(stores *fakeStores) *Service {
	return NewService(newTestResolver(stores), stores)
}

func TestHasPermission_OwnScopeAlwaysTrue(t *testing.T) {
	// Own-scoped checks never touch the stores, so even an unknown user
	// passes; record-level ownership is the call site's job.
	svc := newTestService(newFakeStores())

	ok, err := svc.HasPermission(context.Background(), "anyone", TimeTrackingCreate, "")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if !ok {
		t.Error("own-scoped permission denied, want granted")
	}
}

func TestHasPermission_GlobalScope(t *testing.T) {
	stores := newFakeStores()
	stores.users["pm"] = &User{ID: "pm", OrganizationID: "org-1", Role: RoleProjectManager}
	stores.users["member"] = &User{ID: "member", OrganizationID: "org-1", Role: RoleTeamMember}
	svc := newTestService(stores)
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, "pm", ProjectCreate, "")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if !ok {
		t.Error("project_manager denied project:create, want granted")
	}

	ok, err = svc.HasPermission(ctx, "member", ProjectCreate, "")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if ok {
		t.Error("team_member granted project:create, want denied")
	}
}

func TestHasPermission_ProjectScopeNeedsProjectID(t *testing.T) {
	stores := newFakeStores()
	stores.users["admin"] = &User{ID: "admin", OrganizationID: "org-1", Role: RoleAdmin}
	svc := newTestService(stores)

	ok, err := svc.HasPermission(context.Background(), "admin", SprintManage, "")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if ok {
		t.Error("project-scoped permission granted without a project id")
	}
}

func TestHasPermission_ProjectScopeViaProjectRole(t *testing.T) {
	stores := newFakeStores()
	stores.users["u1"] = &User{ID: "u1", OrganizationID: "org-1", Role: RoleTeamMember}
	stores.projects["p1"] = &Project{ID: "p1", OrganizationID: "org-1", CreatedBy: "u1"}
	svc := newTestService(stores)
	ctx := context.Background()

	// Creator derives project_manager on p1: sprint:manage granted there.
	ok, err := svc.HasPermission(ctx, "u1", SprintManage, "p1")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if !ok {
		t.Error("project creator denied sprint:manage on own project")
	}

	// No relationship to p2 and no global grant: denied.
	stores.projects["p2"] = &Project{ID: "p2", OrganizationID: "org-1", CreatedBy: "boss"}
	ok, err = svc.HasPermission(ctx, "u1", SprintManage, "p2")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if ok {
		t.Error("team_member granted sprint:manage on unrelated project")
	}
}

func TestHasPermission_GlobalGrantStopsAtOrgBoundary(t *testing.T) {
	stores := newFakeStores()
	stores.users["admin"] = &User{ID: "admin", OrganizationID: "org-1", Role: RoleAdmin}
	stores.projects["home"] = &Project{ID: "home", OrganizationID: "org-1", CreatedBy: "boss"}
	stores.projects["away"] = &Project{ID: "away", OrganizationID: "org-2", CreatedBy: "boss"}
	svc := newTestService(stores)
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, "admin", SprintManage, "home")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if !ok {
		t.Error("admin denied sprint:manage on same-org project")
	}

	ok, err = svc.HasPermission(ctx, "admin", SprintManage, "away")
	if err != nil {
		t.Fatalf("HasPermission() error = %v", err)
	}
	if ok {
		t.Error("admin granted sprint:manage across the org boundary")
	}
}

func TestHasPermission_MissingProjectDeniesWithoutError(t *testing.T) {
	stores := newFakeStores()
	stores.users["admin"] = &User{ID: "admin", OrganizationID: "org-1", Role: RoleAdmin}
	svc := newTestService(stores)

	ok, err := svc.HasPermission(context.Background(), "admin", SprintManage, "nope")
	if err != nil {
		t.Fatalf("HasPermission() error = %v, want nil for a missing project", err)
	}
	if ok {
		t.Error("permission granted on a project that does not exist")
	}
}

func TestHasPermission_MissingUserPropagatesNotFound(t *testing.T) {
	svc := newTestService(newFakeStores())

	_, err := svc.HasPermission(context.Background(), "ghost", ProjectCreate, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("HasPermission() error = %v, want ErrNotFound", err)
	}
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	stores := newFakeStores()
	stores.users["member"] = &User{ID: "member", OrganizationID: "org-1", Role: RoleTeamMember}
	svc := newTestService(stores)
	ctx := context.Background()

	ok, err := svc.HasAnyPermission(ctx, "member", []Permission{ProjectCreate, UserDelete}, "")
	if err != nil {
		t.Fatalf("HasAnyPermission() error = %v", err)
	}
	if ok {
		t.Error("HasAnyPermission granted with no matching grant")
	}

	// TimeTrackingCreate is own-scoped, so any-of passes.
	ok, err = svc.HasAnyPermission(ctx, "member", []Permission{ProjectCreate, TimeTrackingCreate}, "")
	if err != nil {
		t.Fatalf("HasAnyPermission() error = %v", err)
	}
	if !ok {
		t.Error("HasAnyPermission denied despite an own-scoped member")
	}

	ok, err = svc.HasAllPermissions(ctx, "member", []Permission{TimeTrackingCreate, ProjectCreate}, "")
	if err != nil {
		t.Fatalf("HasAllPermissions() error = %v", err)
	}
	if ok {
		t.Error("HasAllPermissions granted despite a missing grant")
	}

	ok, err = svc.HasAllPermissions(ctx, "member", []Permission{TimeTrackingCreate, TaskUpdateOwn}, "")
	if err != nil {
		t.Fatalf("HasAllPermissions() error = %v", err)
	}
	if !ok {
		t.Error("HasAllPermissions denied with every grant held")
	}
}

func TestCanAccessProject(t *testing.T) {
	stores := newFakeStores()
	stores.users["admin"] = &User{ID: "admin", OrganizationID: "org-1", Role: RoleAdmin}
	stores.users["member"] = &User{ID: "member", OrganizationID: "org-1", Role: RoleTeamMember}
	stores.projects["p1"] = &Project{ID: "p1", OrganizationID: "org-1", CreatedBy: "boss", TeamMembers: []string{"member"}}
	stores.projects["p2"] = &Project{ID: "p2", OrganizationID: "org-1", CreatedBy: "boss"}
	stores.projects["foreign"] = &Project{ID: "foreign", OrganizationID: "org-2", CreatedBy: "boss"}
	svc := newTestService(stores)
	ctx := context.Background()

	tests := []struct {
		name      string
		userID    string
		projectID string
		want      bool
	}{
		{"member reaches own project", "member", "p1", true},
		{"member blocked from unrelated project", "member", "p2", false},
		{"admin reaches any project in org", "admin", "p2", true},
		{"admin blocked cross-org", "admin", "foreign", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanAccessProject(ctx, tt.userID, tt.projectID)
			if err != nil {
				t.Fatalf("CanAccessProject() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanAccessProject(%s, %s) = %v, want %v", tt.userID, tt.projectID, got, tt.want)
			}
		})
	}
}

func TestAccessibleProjects(t *testing.T) {
	stores := newFakeStores()
	stores.users["admin"] = &User{ID: "admin", OrganizationID: "org-1", Role: RoleAdmin}
	stores.users["member"] = &User{ID: "member", OrganizationID: "org-1", Role: RoleTeamMember}
	stores.projects["p1"] = &Project{ID: "p1", OrganizationID: "org-1", CreatedBy: "boss", TeamMembers: []string{"member"}}
	stores.projects["p2"] = &Project{ID: "p2", OrganizationID: "org-1", CreatedBy: "boss"}
	stores.projects["foreign"] = &Project{ID: "foreign", OrganizationID: "org-2", CreatedBy: "boss"}
	svc := newTestService(stores)
	ctx := context.Background()

	got, err := svc.AccessibleProjects(ctx, "member")
	if err != nil {
		t.Fatalf("AccessibleProjects() error = %v", err)
	}
	if len(got) != 1 || got[0] != "p1" {
		t.Errorf("member accessible projects = %v, want [p1]", got)
	}

	got, err = svc.AccessibleProjects(ctx, "admin")
	if err != nil {
		t.Fatalf("AccessibleProjects() error = %v", err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
		t.Errorf("admin accessible projects = %v, want [p1 p2]", got)
	}
}

func TestRequirePermission_DeniedCarriesContext(t *testing.T) {
	stores := newFakeStores()
	stores.users["member"] = &User{ID: "member", OrganizationID: "org-1", Role: RoleTeamMember}
	svc := newTestService(stores)

	err := svc.RequirePermission(context.Background(), "member", ProjectCreate, "")
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("RequirePermission() error = %v, want *PermissionDeniedError", err)
	}
	if denied.UserID != "member" {
		t.Errorf("denied.UserID = %s, want member", denied.UserID)
	}
	if len(denied.Permissions) != 1 || denied.Permissions[0] != ProjectCreate {
		t.Errorf("denied.Permissions = %v, want [project:create]", denied.Permissions)
	}
	if !IsDenied(err) {
		t.Error("IsDenied() = false for a denial")
	}
}

func TestRequirePermission_GrantedReturnsNil(t *testing.T) {
	stores := newFakeStores()
	stores.users["pm"] = &User{ID: "pm", OrganizationID: "org-1", Role: RoleProjectManager}
	svc := newTestService(stores)

	if err := svc.RequirePermission(context.Background(), "pm", ProjectCreate, ""); err != nil {
		t.Fatalf("RequirePermission() error = %v, want nil", err)
	}
}

func TestRequirePermission_MissingUserIsNotADenial(t *testing.T) {
	svc := newTestService(newFakeStores())

	err := svc.RequirePermission(context.Background(), "ghost", ProjectCreate, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("RequirePermission() error = %v, want ErrNotFound", err)
	}
	if IsDenied(err) {
		t.Error("ErrNotFound classified as a denial")
	}
}

func TestRequireAnyPermission_DeniedListsAllCandidates(t *testing.T) {
	stores := newFakeStores()
	stores.users["viewer"] = &User{ID: "viewer", OrganizationID: "org-1", Role: RoleViewer}
	svc := newTestService(stores)

	perms := []Permission{ProjectCreate, UserDelete}
	err := svc.RequireAnyPermission(context.Background(), "viewer", perms, "")
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("RequireAnyPermission() error = %v, want *PermissionDeniedError", err)
	}
	if len(denied.Permissions) != len(perms) {
		t.Errorf("denied.Permissions = %v, want all candidates %v", denied.Permissions, perms)
	}
}

func TestRequireProjectManagement(t *testing.T) {
	stores := newFakeStores()
	stores.users["creator"] = &User{ID: "creator", OrganizationID: "org-1", Role: RoleTeamMember}
	stores.users["member"] = &User{ID: "member", OrganizationID: "org-1", Role: RoleTeamMember}
	stores.projects["p1"] = &Project{ID: "p1", OrganizationID: "org-1", CreatedBy: "creator", TeamMembers: []string{"member"}}
	svc := newTestService(stores)
	ctx := context.Background()

	if err := svc.RequireProjectManagement(ctx, "creator", "p1"); err != nil {
		t.Fatalf("RequireProjectManagement() error = %v for the creator, want nil", err)
	}

	err := svc.RequireProjectManagement(ctx, "member", "p1")
	if !IsDenied(err) {
		t.Fatalf("RequireProjectManagement() error = %v for a member, want a denial", err)
	}
}
