package rbac

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the referenced role, permission, user or
	// dashboard type does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrRoleNotManageable rejects mutations against roles without a
	// dashboard type.
	ErrRoleNotManageable = errors.New("rbac: role is not manageable")
	// ErrProtectedRole rejects deletion of the base admin role.
	ErrProtectedRole = errors.New("rbac: cannot delete the base admin role")
	// ErrRoleHasUsers rejects deletion of a role with assigned users.
	ErrRoleHasUsers = errors.New("rbac: cannot delete role that has users assigned to it")
	// ErrRoleConflict rejects assigning a manageable role to a user who
	// already holds a role outside the manageable set.
	ErrRoleConflict = errors.New("rbac: user cannot be assigned this role")
)

// ValidationError collects field level messages for a rejected create/update.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for use.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for the given field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Error renders all messages in stable field order.
func (e *ValidationError) Error() string {
	if e.Empty() {
		return "rbac: validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	var b strings.Builder
	b.WriteString("rbac: validation failed:")
	for _, field := range fields {
		fmt.Fprintf(&b, " %s: %s;", field, strings.Join(e.Fields[field], ", "))
	}
	return strings.TrimSuffix(b.String(), ";")
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
