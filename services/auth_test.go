package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "name", "password_hash", "role", "organization_id", "custom_role_id", "is_active",
	})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	svc := NewAuthService(db, NewJWTService("test-secret"))
	ctx := context.Background()
	hash := mustHash(t, "hunter2")

	tests := []struct {
		name     string
		email    string
		password string
		mockFunc func()
		wantErr  error
	}{
		{
			name:     "valid credentials",
			email:    "ada@example.com",
			password: "hunter2",
			mockFunc: func() {
				mock.ExpectQuery("SELECT id, email, name, password_hash").
					WithArgs("ada@example.com").
					WillReturnRows(userRows().
						AddRow("user-1", "ada@example.com", "Ada", hash, "team_member", "org-1", nil, true))
			},
		},
		{
			name:     "wrong password",
			email:    "ada@example.com",
			password: "wrong",
			mockFunc: func() {
				mock.ExpectQuery("SELECT id, email, name, password_hash").
					WithArgs("ada@example.com").
					WillReturnRows(userRows().
						AddRow("user-1", "ada@example.com", "Ada", hash, "team_member", "org-1", nil, true))
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "hunter2",
			mockFunc: func() {
				mock.ExpectQuery("SELECT id, email, name, password_hash").
					WithArgs("nobody@example.com").
					WillReturnRows(userRows())
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "deactivated user",
			email:    "gone@example.com",
			password: "hunter2",
			mockFunc: func() {
				mock.ExpectQuery("SELECT id, email, name, password_hash").
					WithArgs("gone@example.com").
					WillReturnRows(userRows().
						AddRow("user-2", "gone@example.com", "Gone", hash, "team_member", "org-1", nil, false))
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFunc()
			user, token, err := svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if user.ID != "user-1" {
				t.Errorf("user.ID = %s, want user-1", user.ID)
			}
			if token == "" {
				t.Error("Login() returned an empty token")
			}
			claims, err := svc.JWTService.ValidateToken(token)
			if err != nil {
				t.Fatalf("issued token does not validate: %v", err)
			}
			if claims.UserID != "user-1" || claims.Role != "team_member" {
				t.Errorf("token claims = %+v", claims)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}
