package lint

import (
	"bytes"
	"fmt"
	"os"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
)

// applyTitleFixes derives a title from the filename for lessons whose
// frontmatter is missing one (creating the frontmatter block when absent).
func (f *Fixer) applyTitleFixes(tally tallyMap, fixResult *FixResult, fingerprintTargets map[string]struct{}) {
	for _, p := range sortedTallyKeys(tally) {
		if !IsLessonFile(p) {
			continue
		}

		changed, err := f.ensureFrontmatterTitle(p)
		if err != nil {
			fixResult.Errors = append(fixResult.Errors, err)
			continue
		}
		if changed {
			fixResult.TitlesAdded = append(fixResult.TitlesAdded, p)
			fixResult.credit(tally[p])
			// Title insertion changes content, so fingerprints must be refreshed.
			fingerprintTargets[p] = struct{}{}
		}
	}
}

// applyUIDFixes generates a uid for lessons whose frontmatter is missing one.
func (f *Fixer) applyUIDFixes(tally tallyMap, fixResult *FixResult, fingerprintTargets map[string]struct{}) {
	for _, p := range sortedTallyKeys(tally) {
		if !IsLessonFile(p) {
			continue
		}

		changed, err := f.ensureFrontmatterUID(p)
		if err != nil {
			fixResult.Errors = append(fixResult.Errors, err)
			continue
		}
		if changed {
			fixResult.UIDsAdded = append(fixResult.UIDsAdded, p)
			fixResult.credit(tally[p])
			// UID insertion changes content, so fingerprints must be refreshed.
			fingerprintTargets[p] = struct{}{}
		}
	}
}

func (f *Fixer) ensureFrontmatterTitle(filePath string) (bool, error) {
	// #nosec G304 -- filePath is derived from the current lint/fix target set.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("read file for title update: %w", err)
	}

	updated, changed := addTitleIfMissing(data, filePath)
	if !changed {
		return false, nil
	}
	if f.dryRun {
		return true, nil
	}

	if err := writeFixedFile(filePath, updated); err != nil {
		return false, fmt.Errorf("title update for %s: %w", filePath, err)
	}
	return true, nil
}

func (f *Fixer) ensureFrontmatterUID(filePath string) (bool, error) {
	// #nosec G304 -- filePath is derived from the current lint/fix target set.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("read file for uid update: %w", err)
	}

	updated, changed := addUIDIfMissing(data)
	if !changed {
		return false, nil
	}
	if f.dryRun {
		return true, nil
	}

	if err := writeFixedFile(filePath, updated); err != nil {
		return false, fmt.Errorf("uid update for %s: %w", filePath, err)
	}
	return true, nil
}

func addTitleIfMissing(content []byte, filePath string) ([]byte, bool) {
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

	if !frontmatterops.EnsureTitle(fields, frontmatterops.TitleFromFilename(filePath)) {
		return content, false
	}

	body, had = separateNewFrontmatter(body, had, style.Newline)

	out, err := frontmatterops.Write(fields, body, had, style)
	if err != nil {
		return content, false
	}
	return out, true
}

func addUIDIfMissing(content []byte) ([]byte, bool) {
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

	_, uidChanged, err := frontmatterops.EnsureUID(fields)
	if err != nil || !uidChanged {
		return content, false
	}

	body, had = separateNewFrontmatter(body, had, style.Newline)

	out, err := frontmatterops.Write(fields, body, had, style)
	if err != nil {
		return content, false
	}
	return out, true
}

// separateNewFrontmatter pads the body when a frontmatter block is being
// introduced, so the closing delimiter does not run into the first body line.
func separateNewFrontmatter(body []byte, had bool, newline string) ([]byte, bool) {
	if had {
		return body, true
	}
	if len(body) == 0 || !bytes.HasPrefix(body, []byte(newline)) {
		body = append([]byte(newline), body...)
	}
	return body, true
}
