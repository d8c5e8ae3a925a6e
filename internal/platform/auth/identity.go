package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated caller as seen by the receiving
// service: a terminal clerk, a yard supervisor, or a read-only viewer.
type Identity struct {
	Subject string
	Email   string
	Roles   []string
}

// Actor is the value recorded in the audit trail for this identity.
func (i Identity) Actor() string {
	if s := strings.TrimSpace(i.Subject); s != "" {
		return s
	}
	if e := strings.TrimSpace(i.Email); e != "" {
		return e
	}
	return "anonymous"
}

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

type ctxKeyIdentity struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return v, ok
}
