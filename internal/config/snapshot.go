package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of validation-affecting configuration fields.
// It is intentionally narrower than full serialization so that unrelated config
// edits (ports, logging) do not force a revalidation run. Slice and map fields
// are order-insensitive. Callers should run Load (defaults applied) before
// computing a snapshot so canonical values are hashed.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) {
		h.Write([]byte(strings.Join(parts, "=")))
		h.Write([]byte{0})
	}

	w("course.name", c.Course.Name)
	w("course.slug", c.Course.Slug)
	w("course.content_dir", c.Course.ContentDir)

	for _, repo := range sortedRepositories(c.Repositories) {
		paths := append([]string{}, repo.Paths...)
		sort.Strings(paths)
		w("repository", repo.Name, repo.URL, repo.Branch, strings.Join(paths, ","))
	}

	w("lint.default_points", strconv.FormatFloat(c.Lint.EffectiveDefaultPoints(), 'f', -1, 64))
	if len(c.Lint.ExtraLanguages) > 0 {
		langs := append([]string{}, c.Lint.ExtraLanguages...)
		sort.Strings(langs)
		w("lint.extra_languages", strings.Join(langs, ","))
	}
	if len(c.Lint.Severity) > 0 {
		overrides := make([]string, 0, len(c.Lint.Severity))
		for rule, level := range c.Lint.Severity {
			overrides = append(overrides, rule+":"+level)
		}
		sort.Strings(overrides)
		w("lint.severity", strings.Join(overrides, ","))
	}

	w("output.directory", c.Output.Directory)
	w("output.clean", strconv.FormatBool(c.Output.CleanEnabled()))

	return hex.EncodeToString(h.Sum(nil))
}

func sortedRepositories(repos []Repository) []Repository {
	out := append([]Repository{}, repos...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
