package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound means the referenced user (or project) does not exist.
// It is propagated, never swallowed: the route handler decides the status.
var ErrNotFound = errors.New("resource not found")

// PermissionDeniedError is returned by the Require* family when a check
// fails. It carries the failed permissions for server-side logging; handlers
// must translate it into a generic 403 without echoing the permission names.
type PermissionDeniedError struct {
	UserID      string
	ProjectID   string
	Permissions []Permission
}

func (e *PermissionDeniedError) Error() string {
	names := make([]string, len(e.Permissions))
	for i, p := range e.Permissions {
		names[i] = string(p)
	}
	if e.ProjectID != "" {
		return fmt.Sprintf("permission denied: user %s lacks [%s] on project %s",
			e.UserID, strings.Join(names, ", "), e.ProjectID)
	}
	return fmt.Sprintf("permission denied: user %s lacks [%s]",
		e.UserID, strings.Join(names, ", "))
}

// IsDenied reports whether err is a PermissionDeniedError.
func IsDenied(err error) bool {
	var denied *PermissionDeniedError
	return errors.As(err, &denied)
}
