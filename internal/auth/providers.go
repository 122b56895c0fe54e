package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// sshProvider loads a private key from disk. With no key_path it falls
// back to ~/.ssh/id_rsa.
type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) keyPath(cfg *config.AuthConfig) string {
	if cfg.KeyPath != "" {
		return cfg.KeyPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}

func (p sshProvider) Validate(cfg *config.AuthConfig) error {
	keyPath := p.keyPath(cfg)
	if keyPath == "" {
		return errors.New("no key_path configured and no home directory to fall back to")
	}
	if _, err := os.Stat(keyPath); err != nil {
		return fmt.Errorf("ssh key %s: %w", keyPath, err)
	}
	return nil
}

func (p sshProvider) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	keys, err := ssh.NewPublicKeysFromFile("git", p.keyPath(cfg), "")
	if err != nil {
		return nil, fmt.Errorf("load ssh key: %w", err)
	}
	return keys, nil
}

// tokenProvider sends the token over HTTP basic auth. Forges accept
// any non-empty username alongside a personal access token; "token"
// is the conventional one.
type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (tokenProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Token == "" {
		return errors.New("token is required")
	}
	return nil
}

func (tokenProvider) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: "token", Password: cfg.Token}, nil
}

// basicProvider is plain username/password over HTTP.
type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (basicProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Username == "" {
		return errors.New("username is required")
	}
	if cfg.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

func (basicProvider) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
}
