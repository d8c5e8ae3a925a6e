package auth

import (
	"testing"
)

func TestSafeReturnTo(t *testing.T) {
	if got := safeReturnTo(""); got != "/" {
		t.Fatalf("safeReturnTo()=%q, want /", got)
	}
	if got := safeReturnTo("/plans"); got != "/plans" {
		t.Fatalf("safeReturnTo()=%q, want /plans", got)
	}
	if got := safeReturnTo("https://evil.test/phish"); got != "/" {
		t.Fatalf("safeReturnTo()=%q, want /", got)
	}
	if got := safeReturnTo("//evil"); got != "/" {
		t.Fatalf("safeReturnTo()=%q, want /", got)
	}
	if got := safeReturnTo("plans/123"); got != "/" {
		t.Fatalf("safeReturnTo()=%q, want / for relative path", got)
	}
}
