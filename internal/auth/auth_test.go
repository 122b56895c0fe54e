package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

func TestMethodAnonymous(t *testing.T) {
	for _, cfg := range []*config.AuthConfig{
		nil,
		{},
		{Type: config.AuthTypeNone},
	} {
		method, err := Method(cfg)
		if err != nil {
			t.Fatalf("Method(%+v): %v", cfg, err)
		}
		if method != nil {
			t.Errorf("Method(%+v) = %v, want nil for anonymous access", cfg, method)
		}
	}
}

func TestMethodUnsupportedType(t *testing.T) {
	_, err := Method(&config.AuthConfig{Type: "oauth"})
	if err == nil || !strings.Contains(err.Error(), "unsupported auth type") {
		t.Errorf("expected unsupported-type error, got %v", err)
	}
}

func TestMethodToken(t *testing.T) {
	method, err := Method(&config.AuthConfig{Type: config.AuthTypeToken, Token: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	basic, ok := method.(*http.BasicAuth)
	if !ok {
		t.Fatalf("method = %T, want *http.BasicAuth", method)
	}
	if basic.Username != "token" || basic.Password != "secret" {
		t.Errorf("unexpected credentials %q/%q", basic.Username, basic.Password)
	}
}

func TestMethodTokenMissing(t *testing.T) {
	_, err := Method(&config.AuthConfig{Type: config.AuthTypeToken})
	if err == nil || !strings.Contains(err.Error(), "token auth") {
		t.Errorf("expected token validation error, got %v", err)
	}
}

func TestMethodBasic(t *testing.T) {
	method, err := Method(&config.AuthConfig{
		Type:     config.AuthTypeBasic,
		Username: "alice",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatal(err)
	}
	basic, ok := method.(*http.BasicAuth)
	if !ok {
		t.Fatalf("method = %T, want *http.BasicAuth", method)
	}
	if basic.Username != "alice" || basic.Password != "hunter2" {
		t.Errorf("unexpected credentials %q/%q", basic.Username, basic.Password)
	}
}

func TestMethodBasicMissingFields(t *testing.T) {
	cases := []*config.AuthConfig{
		{Type: config.AuthTypeBasic, Password: "hunter2"},
		{Type: config.AuthTypeBasic, Username: "alice"},
	}
	for _, cfg := range cases {
		if _, err := Method(cfg); err == nil {
			t.Errorf("Method(%+v) should fail validation", cfg)
		}
	}
}

func TestMethodSSHMissingKey(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-key")
	_, err := Method(&config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: missing})
	if err == nil || !strings.Contains(err.Error(), "ssh key") {
		t.Errorf("expected missing-key error, got %v", err)
	}
}

func TestMethodSSHUnparseableKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_rsa")
	if err := os.WriteFile(keyPath, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Method(&config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: keyPath}); err == nil {
		t.Error("expected key parse error")
	}
}

func TestRegisterOverridesProvider(t *testing.T) {
	r := NewRegistry()
	r.Register(tokenProvider{})
	method, err := r.Method(&config.AuthConfig{Type: config.AuthTypeToken, Token: "t"})
	if err != nil || method == nil {
		t.Fatalf("re-registered provider should still resolve: %v", err)
	}
}
