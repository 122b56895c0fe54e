package course

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// ContentHash returns the hex sha256 of a lesson file's content, or "" when
// content has not been loaded.
func (lf *LessonFile) ContentHash() string {
	if len(lf.Content) == 0 {
		return ""
	}
	h := sha256.Sum256(lf.Content)
	return hex.EncodeToString(h[:])
}

// ComputeContentHash computes a deterministic hash for a set of lesson files.
// The hash is based on:
// - File paths (relative and absolute)
// - Content hashes
// - Repository and section information
// - Metadata
//
// This enables detection of changes in the lesson set between runs.
func ComputeContentHash(files []LessonFile) (string, error) {
	if len(files) == 0 {
		// Empty set has a known hash
		h := sha256.Sum256([]byte("empty-lesson-set"))
		return hex.EncodeToString(h[:]), nil
	}

	sorted := make([]LessonFile, len(files))
	copy(sorted, files)

	// Sort for deterministic ordering
	sort.Slice(sorted, func(i, j int) bool {
		// Primary sort: repository
		if sorted[i].Repository != sorted[j].Repository {
			return sorted[i].Repository < sorted[j].Repository
		}
		// Secondary sort: path
		return sorted[i].Path < sorted[j].Path
	})

	h := sha256.New()
	for i := range sorted {
		lf := &sorted[i]
		data := fmt.Sprintf("%s|%s|%s|%s|%s",
			lf.Path,
			lf.RelativePath,
			lf.Repository,
			lf.Section,
			lf.ContentHash(),
		)
		h.Write([]byte(data))
		h.Write([]byte("\n"))

		// Include metadata
		if len(lf.Metadata) > 0 {
			// Sort metadata keys for determinism
			var keys []string
			for k := range lf.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				h.Write([]byte(fmt.Sprintf("%s=%s\n", k, lf.Metadata[k])))
			}
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
