package auth

import (
	"testing"
	"time"
)

func baseConfig(mode Mode) Config {
	return Config{
		Mode:                  mode,
		RolesClaim:            "roles",
		EmailClaim:            "email",
		SessionCookieName:     "harbor_session",
		SessionCookieMaxAge:   time.Hour,
		SessionCookieSameSite: "Lax",
	}
}

func TestConfigValidate_OIDCRequiresIssuer(t *testing.T) {
	cfg := baseConfig(ModeOIDC)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() expected error without issuer")
	}
	cfg.OIDCIssuerURL = "https://issuer.example.test"
	cfg.OIDCClientID = "receiving"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestConfigValidate_GatewayRequiresSecret(t *testing.T) {
	cfg := baseConfig(ModeGateway)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() expected error without gateway secret")
	}
	cfg.GatewaySecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestConfigValidate_DevRequiresRoles(t *testing.T) {
	cfg := baseConfig(ModeDev)
	cfg.DevSubject = "dev-clerk"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() expected error without dev roles")
	}
	cfg.DevRoles = []string{RoleSupervisor}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestConfigValidate_Disabled(t *testing.T) {
	cfg := baseConfig(ModeDisabled)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}
