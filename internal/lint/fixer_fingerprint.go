package lint

import (
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
)

// applyFingerprintFixes recomputes and writes the content fingerprint (and
// lastmod) for every file whose fingerprint the linter flagged plus every
// file an earlier fix step rewrote. Always the final step of the pipeline.
func (f *Fixer) applyFingerprintFixes(tally tallyMap, fixResult *FixResult) {
	now := time.Now()

	for _, p := range sortedTallyKeys(tally) {
		if !IsLessonFile(p) {
			continue
		}

		changed, err := f.refreshFingerprint(p, now)
		if err != nil {
			fixResult.Errors = append(fixResult.Errors, err)
			continue
		}
		if changed {
			fixResult.FingerprintsFixed = append(fixResult.FingerprintsFixed, p)
			fixResult.credit(tally[p])
		}
	}
}

func (f *Fixer) refreshFingerprint(filePath string, now time.Time) (bool, error) {
	// #nosec G304 -- filePath is derived from the current lint/fix target set.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("read file for fingerprint update: %w", err)
	}

	updated, changed := upsertFingerprint(data, now)
	if !changed {
		return false, nil
	}
	if f.dryRun {
		return true, nil
	}

	if err := writeFixedFile(filePath, updated); err != nil {
		return false, fmt.Errorf("fingerprint update for %s: %w", filePath, err)
	}
	return true, nil
}

func upsertFingerprint(content []byte, now time.Time) ([]byte, bool) {
	fields, body, had, style, err := frontmatterops.Read(content)
	if err != nil {
		// Malformed frontmatter; don't try to guess.
		return content, false
	}
	if style.Newline == "" {
		style.Newline = "\n"
	}
	if fields == nil {
		fields = map[string]any{}
	}

	_, changed, err := frontmatterops.UpsertFingerprintAndMaybeLastmod(fields, body, now)
	if err != nil || !changed {
		return content, false
	}

	body, had = separateNewFrontmatter(body, had, style.Newline)

	out, err := frontmatterops.Write(fields, body, had, style)
	if err != nil {
		return content, false
	}
	return out, true
}
