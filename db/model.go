package db

import "time"

// User is the account record as stored in the users table. The permission
// engine only reads the role/organization/custom-role fields; everything
// else belongs to the user-management surface.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	PasswordHash   string `json:"-"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	CustomRoleID   string `json:"custom_role_id,omitempty"`
	IsActive       bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is the project record as stored in the projects table.
// Team membership lives in project_members; explicit per-user project roles
// live in the role_assignments JSON column.
type Project struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	CreatedBy      string `json:"created_by"`
	ClientID       string `json:"client_id,omitempty"`
	IsActive       bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomRole is an organization-defined named permission bundle. Its
// permission list lives in custom_role_permissions.
type CustomRole struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
