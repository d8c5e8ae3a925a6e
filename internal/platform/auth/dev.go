package auth

import (
	"context"
	"net/http"
)

// StaticAuthenticator returns a fixed identity. Used for AUTH_MODE=dev
// and, with the anonymous supervisor identity, AUTH_MODE=disabled.
type StaticAuthenticator struct {
	Identity Identity
}

func NewDevAuthenticator(cfg Config) *StaticAuthenticator {
	return &StaticAuthenticator{
		Identity: Identity{
			Subject: cfg.DevSubject,
			Email:   cfg.DevEmail,
			Roles:   cfg.DevRoles,
		},
	}
}

func NewDisabledAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{
		Identity: Identity{
			Subject: "anonymous",
			Roles:   []string{RoleSupervisor},
		},
	}
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return a.Identity, nil
}
