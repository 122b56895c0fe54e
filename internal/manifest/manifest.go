// Package manifest defines the course manifest written at the root of every
// bundle: a complete record of a validation run's inputs, the lessons it
// covered, and the quiz totals the learning platform imports.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Run status values recorded in a manifest.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// CourseManifest represents a complete record of a bundle build's inputs,
// lessons, and totals.
type CourseManifest struct {
	ID        string        `json:"id"`
	Course    string        `json:"course"`
	Timestamp time.Time     `json:"timestamp"`
	Inputs    Inputs        `json:"inputs"`
	Lessons   []LessonEntry `json:"lessons"`
	Totals    Totals        `json:"totals"`
	Status    string        `json:"status"`
	Duration  int64         `json:"duration_ms"`
}

// Inputs captures all inputs to the run.
type Inputs struct {
	Repos       []RepoInput `json:"repos,omitempty"`
	ConfigHash  string      `json:"config_hash"`
	ContentHash string      `json:"content_hash"`
}

// RepoInput represents a content repository input.
type RepoInput struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
	Commit string `json:"commit,omitempty"`
}

// LessonEntry records one lesson in course order.
type LessonEntry struct {
	Slug        string        `json:"slug"`
	Path        string        `json:"path"`
	Repository  string        `json:"repository,omitempty"`
	Title       string        `json:"title"`
	UID         string        `json:"uid,omitempty"`
	Position    *float64      `json:"position,omitempty"`
	ContentHash string        `json:"content_hash"`
	Quizzes     []QuizSummary `json:"quizzes,omitempty"`
}

// QuizSummary is the per-quiz slice of a lesson entry. Full quiz records
// live in the per-lesson extraction files; the manifest keeps only what
// change detection and totals need.
type QuizSummary struct {
	ID     string  `json:"id"`
	Class  string  `json:"class"`
	Points float64 `json:"points"`
}

// Totals aggregates the course for quick platform-side sanity checks.
type Totals struct {
	Lessons int     `json:"lessons"`
	Quizzes int     `json:"quizzes"`
	Points  float64 `json:"points"`
}

// ComputeTotals recalculates the totals from the lesson entries.
func (m *CourseManifest) ComputeTotals() {
	t := Totals{Lessons: len(m.Lessons)}
	for i := range m.Lessons {
		for _, q := range m.Lessons[i].Quizzes {
			t.Quizzes++
			t.Points += q.Points
		}
	}
	m.Totals = t
}

// DuplicateQuizIDs returns quiz ids used by more than one lesson, mapped to
// the slugs of the lessons using them. Quiz ids only need to be unique per
// document, but cross-lesson collisions break analytics joins downstream,
// so builds report them at warning level.
func (m *CourseManifest) DuplicateQuizIDs() map[string][]string {
	seen := make(map[string][]string)
	for i := range m.Lessons {
		entry := &m.Lessons[i]
		for _, q := range entry.Quizzes {
			if q.ID == "" {
				continue
			}
			seen[q.ID] = append(seen[q.ID], entry.Slug)
		}
	}

	dups := make(map[string][]string)
	for id, slugs := range seen {
		if len(slugs) > 1 {
			sort.Strings(slugs)
			dups[id] = slugs
		}
	}
	return dups
}

// ToJSON serializes the manifest to JSON.
func (m *CourseManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*CourseManifest, error) {
	var m CourseManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs and lessons.
// Two runs over identical content with identical configuration produce the
// same hash, which is how the daemon detects no-op rebuilds. Run identity
// fields (id, timestamp, duration, status) are excluded.
func (m *CourseManifest) Hash() (string, error) {
	hashInput := struct {
		Course  string        `json:"course"`
		Inputs  Inputs        `json:"inputs"`
		Lessons []LessonEntry `json:"lessons"`
	}{
		Course:  m.Course,
		Inputs:  m.Inputs,
		Lessons: m.Lessons,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
