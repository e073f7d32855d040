package permclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskhive/taskhive/permissions"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/me/permissions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want Bearer tok-123", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"userRole": "team_member",
			"globalPermissions": ["task:read"],
			"projectPermissions": {"proj-1": ["sprint:manage"]},
			"projectRoles": {"proj-1": "project_manager"},
			"accessibleProjects": ["proj-1"]
		}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, func() string { return "tok-123" })

	snapshot, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if snapshot.UserRole != permissions.RoleTeamMember {
		t.Errorf("userRole = %v, want team_member", snapshot.UserRole)
	}
	if len(snapshot.GlobalPermissions) != 1 || snapshot.GlobalPermissions[0] != permissions.TaskRead {
		t.Errorf("globalPermissions = %v", snapshot.GlobalPermissions)
	}
	if snapshot.ProjectRoles["proj-1"] != permissions.ProjectRoleManager {
		t.Errorf("projectRoles = %v", snapshot.ProjectRoles)
	}
}

func TestHTTPFetcher_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, nil)

	_, err := fetcher.Fetch(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Fetch() error = %v, want ErrUnauthorized", err)
	}
}

func TestHTTPFetcher_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, nil)

	_, err := fetcher.Fetch(context.Background())
	if err == nil || errors.Is(err, ErrUnauthorized) {
		t.Errorf("Fetch() error = %v, want a non-unauthorized failure", err)
	}
}
