package permissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/lib/pq"
)

// PGStore implements the UserStore, ProjectStore and CustomRoleStore read
// contracts against Postgres. It is purely a data access layer: no
// authorization logic lives here.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a PGStore over the given database connection.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

var (
	_ UserStore       = (*PGStore)(nil)
	_ ProjectStore    = (*PGStore)(nil)
	_ CustomRoleStore = (*PGStore)(nil)
)

// GetUser retrieves a user by ID
func (s *PGStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	var customRoleID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, role, custom_role_id
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.OrganizationID, &user.Role, &customRoleID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CustomRoleID = customRoleID.String
	return &user, nil
}

// GetCustomRole retrieves a custom role and its permission bundle
func (s *PGStore) GetCustomRole(ctx context.Context, id string) (*CustomRole, error) {
	var role CustomRole
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM custom_roles WHERE id = $1
	`, id).Scan(&role.ID, &role.Name)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get custom role: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT permission FROM custom_role_permissions
		WHERE custom_role_id = $1
		ORDER BY permission
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get custom role permissions: %w", err)
	}
	defer rows.Close()

	role.Permissions = make([]Permission, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		role.Permissions = append(role.Permissions, Permission(p))
	}
	return &role, rows.Err()
}

// GetProject retrieves a project by ID
func (s *PGStore) GetProject(ctx context.Context, projectID string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, created_by, COALESCE(client_id, ''), role_assignments
		FROM projects
		WHERE id = $1
	`, projectID)

	project, err := scanProject(row)
	if err != nil {
		return nil, err
	}

	members, err := s.membersByProject(ctx, []string{project.ID})
	if err != nil {
		return nil, err
	}
	project.TeamMembers = members[project.ID]
	return project, nil
}

// ProjectsForUser returns every project the user is a team member, creator,
// or client of.
func (s *PGStore) ProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.id, p.organization_id, p.created_by, COALESCE(p.client_id, ''), p.role_assignments
		FROM projects p
		WHERE p.is_active = true AND (
			p.created_by = $1
			OR p.client_id = $1
			OR EXISTS (
				SELECT 1 FROM project_members m
				WHERE m.project_id = p.id AND m.user_id = $1
			)
		)
		ORDER BY p.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	ids := make([]string, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
		ids = append(ids, project.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return projects, nil
	}

	members, err := s.membersByProject(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].TeamMembers = members[projects[i].ID]
	}
	return projects, nil
}

// ProjectsInOrg returns all active project ids in an organization
func (s *PGStore) ProjectsInOrg(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM projects
		WHERE organization_id = $1 AND is_active = true
		ORDER BY id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org projects: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// membersByProject loads team membership for a set of projects in one query
func (s *PGStore) membersByProject(ctx context.Context, projectIDs []string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, user_id FROM project_members
		WHERE project_id = ANY($1)
		ORDER BY project_id, user_id
	`, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string, len(projectIDs))
	for rows.Next() {
		var projectID, userID string
		if err := rows.Scan(&projectID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[projectID] = append(members[projectID], userID)
	}
	return members, rows.Err()
}

// scanner matches both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanProject scans one project row including its role_assignments JSON
func scanProject(row scanner) (*Project, error) {
	var project Project
	var rawAssignments []byte
	err := row.Scan(&project.ID, &project.OrganizationID, &project.CreatedBy, &project.ClientID, &rawAssignments)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	project.RoleAssignments = parseRoleAssignments(project.ID, rawAssignments)
	return &project, nil
}

// parseRoleAssignments decodes the role_assignments JSON column. Entries
// arrive in several historic shapes: the user may be a bare id string or a
// populated object. NormalizeRef collapses them to one id; entries it cannot
// normalize are skipped and logged rather than failing the resolution.
func parseRoleAssignments(projectID string, raw []byte) []RoleAssignment {
	if len(raw) == 0 {
		return nil
	}
	var entries []struct {
		User interface{} `json:"user"`
		Role string      `json:"role"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("Invalid role_assignments on project %s: %v", projectID, err)
		return nil
	}

	assignments := make([]RoleAssignment, 0, len(entries))
	for _, e := range entries {
		userID := NormalizeRef(e.User)
		if userID == "" || e.Role == "" {
			log.Printf("Skipping malformed role assignment on project %s", projectID)
			continue
		}
		assignments = append(assignments, RoleAssignment{
			UserID: userID,
			Role:   ProjectRole(e.Role),
		})
	}
	return assignments
}
