package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// GatewayHeadersAuthenticator trusts identity headers stamped by the
// terminal's edge proxy, bound to the request by an HMAC signature.
type GatewayHeadersAuthenticator struct {
	Secret  string
	MaxSkew time.Duration
}

func NewGatewayHeadersAuthenticator(cfg Config) (*GatewayHeadersAuthenticator, error) {
	if strings.TrimSpace(cfg.GatewaySecret) == "" {
		return nil, errors.New("HARBOR_INTERNAL_AUTH_SECRET is required")
	}
	maxSkew := cfg.GatewayMaxSkew
	if maxSkew <= 0 {
		maxSkew = 5 * time.Minute
	}
	return &GatewayHeadersAuthenticator{
		Secret:  cfg.GatewaySecret,
		MaxSkew: maxSkew,
	}, nil
}

func (a *GatewayHeadersAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	subject := strings.TrimSpace(r.Header.Get(HeaderSubject))
	if subject == "" {
		return Identity{}, ErrUnauthenticated
	}

	email := strings.TrimSpace(r.Header.Get(HeaderEmail))
	rolesRaw := strings.TrimSpace(r.Header.Get(HeaderRoles))

	ts := strings.TrimSpace(r.Header.Get(HeaderInternalAuthTimestamp))
	sig := strings.TrimSpace(r.Header.Get(HeaderInternalAuthSignature))
	if ts == "" || sig == "" {
		return Identity{}, ErrUnauthenticated
	}

	if err := VerifyInternalAuthTimestamp(ts, time.Now().UTC(), a.MaxSkew); err != nil {
		return Identity{}, err
	}
	if err := VerifyInternalAuthSignature(
		a.Secret,
		ts,
		r.Method,
		r.URL.Path,
		r.Header.Get("X-Request-Id"),
		subject,
		email,
		rolesRaw,
		sig,
	); err != nil {
		return Identity{}, err
	}

	return Identity{
		Subject: subject,
		Email:   email,
		Roles:   parseCSV(rolesRaw),
	}, nil
}
