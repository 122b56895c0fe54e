// Package auth translates repository auth configuration into go-git
// transport credentials.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// Provider turns one kind of AuthConfig into go-git credentials.
type Provider interface {
	Type() config.AuthType

	// Validate checks the config before any credential material is
	// loaded, so misconfiguration surfaces as a config error instead
	// of a transport failure mid-sync.
	Validate(cfg *config.AuthConfig) error

	// Method builds the transport credentials.
	Method(cfg *config.AuthConfig) (transport.AuthMethod, error)
}

// Registry maps auth types to their providers.
type Registry struct {
	providers map[config.AuthType]Provider
}

// NewRegistry returns a registry with the built-in ssh, token, and
// basic providers registered.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[config.AuthType]Provider)}
	r.Register(sshProvider{})
	r.Register(tokenProvider{})
	r.Register(basicProvider{})
	return r
}

// Register adds or replaces the provider for its auth type.
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// Method resolves credentials for the given config. A nil or "none"
// config yields a nil method, which go-git treats as anonymous access.
func (r *Registry) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}

	p, ok := r.providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Type)
	}
	if err := p.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s auth: %w", cfg.Type, err)
	}

	method, err := p.Method(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s auth: %w", cfg.Type, err)
	}
	return method, nil
}

var defaultRegistry = NewRegistry()

// Method resolves credentials using the default registry.
func Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return defaultRegistry.Method(cfg)
}
