package auth

import (
	"strings"
	"testing"

	"github.com/kbukum/draftkit/auth/jwt"
)

func TestConfig(t *testing.T) {
	if err := (&Config{}).Validate(); err != nil {
		t.Errorf("disabled config should be valid, got %v", err)
	}
	if err := (&Config{Enabled: true}).Validate(); err == nil {
		t.Error("expected error for enabled auth without jwt")
	}

	cfg := Config{Enabled: true, JWT: &jwt.Config{Secret: "x"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := cfg.Describe(); !strings.HasPrefix(d, "JWT(HS256)") {
		t.Errorf("unexpected description %q", d)
	}
	if d := (&Config{}).Describe(); d != "disabled" {
		t.Errorf("unexpected description %q", d)
	}
}

func TestTokenValidatorFunc(t *testing.T) {
	var v TokenValidator = TokenValidatorFunc(func(token string) (any, error) { return token + "!", nil })
	got, err := v.ValidateToken("abc")
	if err != nil || got != "abc!" {
		t.Errorf("ValidateToken = %v, %v", got, err)
	}
}
