package build

import (
	"crypto/sha256"
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// ConfigHash computes a deterministic hash of the effective configuration.
// It feeds manifest input hashing so a config change invalidates the
// no-change skip even when content is identical.
func ConfigHash(cfg *config.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		// Marshal of a plain config struct cannot realistically fail;
		// an empty hash just disables skip matching.
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
