package linkcheck

import "time"

// BrokenLinkEvent is published to NATS when verification finds a dead link.
// Downstream consumers (issue bots, dashboards) act on it asynchronously.
type BrokenLinkEvent struct {
	// Link information
	URL    string `json:"url"`
	Status int    `json:"status"` // HTTP status code (0 for non-HTTP errors)
	Error  string `json:"error"`

	// Source lesson metadata
	Course     string `json:"course"`
	LessonSlug string `json:"lesson_slug"`
	LessonPath string `json:"lesson_path"` // path relative to the repository
	Repository string `json:"repository,omitempty"`
	Section    string `json:"section,omitempty"`
	Title      string `json:"title,omitempty"`
	UID        string `json:"uid,omitempty"`

	// Failure tracking from the cache
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
	LastChecked   time.Time `json:"last_checked"`

	// Run context
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
