package auth

import (
	"errors"
	"net/http"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

const (
	// RoleViewer reads plans and summaries.
	RoleViewer = "viewer"
	// RoleClerk creates and edits plans and records gate outcomes.
	RoleClerk = "clerk"
	// RoleSupervisor additionally deletes plans.
	RoleSupervisor = "supervisor"
)

var roleLevels = map[string]int{
	RoleViewer:     1,
	RoleClerk:      2,
	RoleSupervisor: 3,
}

func HasAtLeast(roles []string, required string) bool {
	requiredLevel := roleLevels[strings.ToLower(required)]
	if requiredLevel == 0 {
		return false
	}
	maxLevel := 0
	for _, role := range roles {
		level := roleLevels[strings.ToLower(strings.TrimSpace(role))]
		if level > maxLevel {
			maxLevel = level
		}
	}
	return maxLevel >= requiredLevel
}

func RequiredRoleForRequest(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RoleViewer
	case http.MethodDelete:
		return RoleSupervisor
	default:
		return RoleClerk
	}
}

func MethodRoleAuthorizer() AuthorizeFunc {
	return func(r *http.Request, identity Identity) error {
		required := RequiredRoleForRequest(r)
		if HasAtLeast(identity.Roles, required) {
			return nil
		}
		return ErrForbidden
	}
}
