package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/coursebuilder/internal/auth"
	appcfg "git.home.luguber.info/inful/coursebuilder/internal/config"
)

// getAuthentication resolves go-git credentials for a repository's
// auth config. Anonymous access yields a nil method.
func (c *Client) getAuthentication(authCfg *appcfg.AuthConfig) (transport.AuthMethod, error) {
	return auth.Method(authCfg)
}
