package models

import (
	"fmt"
	"strings"
)

// Role is the authorization role held by a user.
type Role string

// Role constants
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Roles returns every valid role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleUser}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// RoleNames returns the valid roles joined with commas, e.g. "admin,manager,user".
func RoleNames() string {
	names := make([]string, 0, 3)
	for _, r := range Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ",")
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}
