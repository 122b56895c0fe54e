package frontmatterops

import (
	"errors"
	"strings"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"github.com/inful/mdfp"
)

// ComputeFingerprint hashes the canonical form of a lesson: frontmatter
// minus the fingerprint itself and the fixer-maintained uid and lastmod
// fields, serialized with LF newlines and a single trailing newline
// trimmed, followed by the body.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}

	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case mdfp.FingerprintField, lastmodField, uidField:
			continue
		}
		hashed[k] = v
	}

	var canonical string
	if len(hashed) > 0 {
		serialized, err := frontmatter.SerializeYAML(hashed, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		canonical = trimOneNewline(string(serialized))
	}
	return mdfp.CalculateFingerprintFromParts(canonical, string(body)), nil
}

// UpsertFingerprintAndMaybeLastmod recomputes the fingerprint and
// stores it when stale. A real fingerprint change also bumps lastmod to
// the UTC date of now, so unchanged lessons keep their dates.
func UpsertFingerprintAndMaybeLastmod(fields map[string]any, body []byte, now time.Time) (string, bool, error) {
	if fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	previous, _ := fields[mdfp.FingerprintField].(string)
	fingerprint, err := ComputeFingerprint(fields, body)
	if err != nil {
		return "", false, err
	}

	changed := false
	if stored, ok := fields[mdfp.FingerprintField].(string); !ok || stored != fingerprint {
		fields[mdfp.FingerprintField] = fingerprint
		changed = true
	}
	if fingerprint != "" && strings.TrimSpace(fingerprint) != strings.TrimSpace(previous) {
		fields[lastmodField] = now.UTC().Format("2006-01-02")
		changed = true
	}
	return fingerprint, changed, nil
}

func trimOneNewline(s string) string {
	if trimmed, ok := strings.CutSuffix(s, "\r\n"); ok {
		return trimmed
	}
	if trimmed, ok := strings.CutSuffix(s, "\n"); ok {
		return trimmed
	}
	return s
}
