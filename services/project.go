package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/taskhive/taskhive/db"
)

// ErrProjectNotFound means the referenced project does not exist
var ErrProjectNotFound = errors.New("project not found")

// ProjectService handles project reads and the mutations the permission
// routes gate. Authorization is enforced at the route boundary, not here.
type ProjectService struct {
	PG *sql.DB
}

// NewProjectService creates a new ProjectService
func NewProjectService(pg *sql.DB) *ProjectService {
	return &ProjectService{PG: pg}
}

// Get retrieves a project by ID
func (s *ProjectService) Get(ctx context.Context, id string) (*db.Project, error) {
	var project db.Project
	var description, clientID sql.NullString
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, organization_id, name, description, created_by, client_id, is_active, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id).Scan(&project.ID, &project.OrganizationID, &project.Name, &description,
		&project.CreatedBy, &clientID, &project.IsActive, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	project.Description = description.String
	project.ClientID = clientID.String
	return &project, nil
}

// ListByIDs retrieves the given projects, preserving only existing ones
func (s *ProjectService) ListByIDs(ctx context.Context, ids []string) ([]db.Project, error) {
	projects := make([]db.Project, 0, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}

	rows, err := s.PG.QueryContext(ctx, `
		SELECT id, organization_id, name, description, created_by, client_id, is_active, created_at, updated_at
		FROM projects
		WHERE id = ANY($1) AND is_active = true
		ORDER BY name
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var project db.Project
		var description, clientID sql.NullString
		if err := rows.Scan(&project.ID, &project.OrganizationID, &project.Name, &description,
			&project.CreatedBy, &clientID, &project.IsActive, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		project.Description = description.String
		project.ClientID = clientID.String
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Update applies a partial update to a project
func (s *ProjectService) Update(ctx context.Context, id string, input UpdateProjectInput) (*db.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	project.UpdatedAt = time.Now()

	result, err := s.PG.ExecContext(ctx, `
		UPDATE projects
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`, project.ID, project.Name, project.Description, project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// roleAssignment is the stored shape of one explicit project role entry
type roleAssignment struct {
	User string `json:"user"`
	Role string `json:"role"`
}

// AssignRole sets an explicit project role for a user, overriding the
// derived role (e.g. designating a project_qa_lead). Clients should refresh
// their permission cache after this call.
func (s *ProjectService) AssignRole(ctx context.Context, projectID, userID, role string) error {
	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx, `
		SELECT role_assignments FROM projects WHERE id = $1 FOR UPDATE
	`, projectID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to load role assignments: %w", err)
	}

	var assignments []roleAssignment
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &assignments); err != nil {
			// Drop a corrupt list rather than blocking role management.
			assignments = nil
		}
	}

	replaced := false
	for i := range assignments {
		if assignments[i].User == userID {
			assignments[i].Role = role
			replaced = true
			break
		}
	}
	if !replaced {
		assignments = append(assignments, roleAssignment{User: userID, Role: role})
	}

	data, err := json.Marshal(assignments)
	if err != nil {
		return fmt.Errorf("failed to marshal role assignments: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE projects SET role_assignments = $2, updated_at = $3 WHERE id = $1
	`, projectID, data, time.Now()); err != nil {
		return fmt.Errorf("failed to update role assignments: %w", err)
	}

	return tx.Commit()
}

// RemoveRole removes a user's explicit project role, falling back to the
// derived role.
func (s *ProjectService) RemoveRole(ctx context.Context, projectID, userID string) error {
	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx, `
		SELECT role_assignments FROM projects WHERE id = $1 FOR UPDATE
	`, projectID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to load role assignments: %w", err)
	}

	var assignments []roleAssignment
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &assignments); err != nil {
			assignments = nil
		}
	}

	kept := assignments[:0]
	for _, a := range assignments {
		if a.User != userID {
			kept = append(kept, a)
		}
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("failed to marshal role assignments: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE projects SET role_assignments = $2, updated_at = $3 WHERE id = $1
	`, projectID, data, time.Now()); err != nil {
		return fmt.Errorf("failed to update role assignments: %w", err)
	}

	return tx.Commit()
}
