package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive/db"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response doesn't reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService handles login and password verification
type AuthService struct {
	PG         *sql.DB
	JWTService *JWTService
}

// NewAuthService creates a new AuthService
func NewAuthService(pg *sql.DB, jwtService *JWTService) *AuthService {
	return &AuthService{PG: pg, JWTService: jwtService}
}

// Login verifies credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	var user db.User
	var customRoleID sql.NullString
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role, organization_id, custom_role_id, is_active
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.Role, &user.OrganizationID, &customRoleID, &user.IsActive)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	user.CustomRoleID = customRoleID.String

	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.JWTService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
