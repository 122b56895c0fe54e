package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/course"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// cacheClient is the surface of NATSClient the checker needs; tests swap in a fake.
type cacheClient interface {
	GetCachedResult(ctx context.Context, url string) (*CacheEntry, error)
	SetCachedResult(ctx context.Context, entry *CacheEntry) error
	IsCacheValid(entry *CacheEntry) bool
	GetLessonHash(ctx context.Context, slug string) (string, error)
	SetLessonHash(ctx context.Context, slug, hash string) error
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// Checker verifies external links found in lessons.
type Checker struct {
	cfg        *config.LinkcheckConfig
	cache      cacheClient
	httpClient *http.Client
	mu         sync.Mutex
	running    bool
	linkSem    chan struct{} // bound concurrent HTTP checks
	lessonSem  chan struct{} // bound concurrent lesson processing
}

// Summary aggregates one checking pass.
type Summary struct {
	LessonsChecked int
	LessonsSkipped int // unchanged content hash
	LinksChecked   int
	Broken         int
}

// NewChecker builds a Checker backed by a fresh NATS client.
func NewChecker(cfg *config.LinkcheckConfig) (*Checker, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("link checking is disabled")
	}
	cache, err := NewNATSClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}
	return newChecker(cfg, cache), nil
}

func newChecker(cfg *config.LinkcheckConfig, cache cacheClient) *Checker {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Respects HTTP_PROXY / HTTPS_PROXY / NO_PROXY.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.ShouldFollowRedirects() {
				return http.ErrUseLastResponse
			}
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Checker{
		cfg:        cfg,
		cache:      cache,
		httpClient: httpClient,
		linkSem:    make(chan struct{}, maxConcurrent),
		lessonSem:  make(chan struct{}, min(maxConcurrent, 4)),
	}
}

// CheckLessons verifies the external links of every lesson. Lessons whose
// content hash matches the cached hash from a previous fully-verified pass
// are skipped. Only one pass can run at a time.
func (c *Checker) CheckLessons(ctx context.Context, courseName, runID string, lessons []course.Lesson) (*Summary, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, errors.New("link checking already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	slog.Info("Starting link check", logfields.Course(courseName), slog.Int("lesson_count", len(lessons)))

	delay, err := time.ParseDuration(c.cfg.RateLimitDelay)
	if err != nil {
		delay = 100 * time.Millisecond
	}

	summary := &Summary{}
	var sumMu sync.Mutex

	var wg sync.WaitGroup
	for i := range lessons {
		lesson := &lessons[i]

		select {
		case <-ctx.Done():
			wg.Wait()
			return summary, ctx.Err()
		default:
		}

		time.Sleep(delay)

		select {
		case <-ctx.Done():
			wg.Wait()
			return summary, ctx.Err()
		case c.lessonSem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-c.lessonSem }()
			checked, broken, skipped := c.checkLesson(ctx, courseName, runID, lesson)
			sumMu.Lock()
			if skipped {
				summary.LessonsSkipped++
			} else {
				summary.LessonsChecked++
			}
			summary.LinksChecked += checked
			summary.Broken += broken
			sumMu.Unlock()
		}()
	}

	wg.Wait()
	slog.Info("Link check completed",
		logfields.Course(courseName),
		slog.Int("lessons", summary.LessonsChecked),
		slog.Int("skipped", summary.LessonsSkipped),
		slog.Int("links", summary.LinksChecked),
		slog.Int("broken", summary.Broken))
	return summary, nil
}

// checkLesson verifies the links of one lesson. Returns the number of links
// checked, how many were broken, and whether the lesson was skipped entirely.
func (c *Checker) checkLesson(ctx context.Context, courseName, runID string, lesson *course.Lesson) (checked, broken int, skipped bool) {
	slug := lesson.File.Slug()
	contentHash := lesson.File.ContentHash()

	if contentHash != "" {
		if cachedHash, err := c.cache.GetLessonHash(ctx, slug); err == nil && cachedHash == contentHash {
			slog.Debug("Skipping link check for unchanged lesson", logfields.Lesson(slug))
			return 0, 0, true
		}
	}

	links, err := ExtractLessonLinks(lesson)
	if err != nil {
		slog.Warn("Failed to extract links from lesson", logfields.Lesson(slug), logfields.Error(err))
		return 0, 0, false
	}

	var wg sync.WaitGroup
	var cntMu sync.Mutex
	for _, link := range links {
		if !ShouldVerify(link) {
			continue
		}
		if c.cfg.ExternalOnly && !link.IsExternal {
			continue
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return checked, broken, false
		case c.linkSem <- struct{}{}:
		}
		wg.Add(1)
		go func(link Link) {
			defer wg.Done()
			defer func() { <-c.linkSem }()
			isBroken := c.verifyLink(ctx, link, courseName, runID, lesson)
			cntMu.Lock()
			checked++
			if isBroken {
				broken++
			}
			cntMu.Unlock()
		}(link)
	}
	wg.Wait()

	// All links verified; remember the content hash so an unchanged lesson
	// is not re-checked next pass.
	if contentHash != "" && broken == 0 {
		if err := c.cache.SetLessonHash(ctx, slug, contentHash); err != nil {
			slog.Debug("Failed to cache lesson hash", logfields.Lesson(slug), logfields.Error(err))
		}
	}
	return checked, broken, false
}

// verifyLink checks a single URL, consulting and updating the cache.
func (c *Checker) verifyLink(ctx context.Context, link Link, courseName, runID string, lesson *course.Lesson) bool {
	cached, err := c.cache.GetCachedResult(ctx, link.URL)
	if err != nil {
		slog.Debug("Cache lookup error", logfields.URL(link.URL), logfields.Error(err))
	} else if cached != nil && c.cache.IsCacheValid(cached) {
		if !cached.IsValid {
			c.handleBrokenLink(ctx, link, courseName, runID, lesson, cached.Status, cached.Error, cached)
			return true
		}
		return false
	}

	status, verifyErr := c.checkURL(ctx, link.URL)

	entry := &CacheEntry{
		URL:         link.URL,
		Status:      status,
		IsValid:     verifyErr == nil,
		LastChecked: time.Now(),
	}

	isBroken := verifyErr != nil
	if isBroken {
		entry.Error = verifyErr.Error()
		updateFailureTracking(entry, cached)
		c.handleBrokenLink(ctx, link, courseName, runID, lesson, status, verifyErr.Error(), entry)
	}

	if err := c.cache.SetCachedResult(ctx, entry); err != nil {
		slog.Warn("Failed to update link cache", logfields.URL(link.URL), logfields.Error(err))
	}
	return isBroken
}

// updateFailureTracking carries the failure streak forward from the previous entry.
func updateFailureTracking(entry *CacheEntry, cached *CacheEntry) {
	if cached != nil {
		entry.FailureCount = cached.FailureCount + 1
		entry.FirstFailedAt = cached.FirstFailedAt
		if entry.FirstFailedAt.IsZero() {
			entry.FirstFailedAt = time.Now()
		}
	} else {
		entry.FailureCount = 1
		entry.FirstFailedAt = time.Now()
	}
	entry.ConsecutiveFail = true
}

// checkURL performs the HTTP request for one URL.
func (c *Checker) checkURL(ctx context.Context, linkURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, linkURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "CourseBuilder-LinkCheck/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Auth-walled URLs exist; they are not broken links.
	if isAuthStatus(resp.StatusCode) {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

// isAuthStatus returns true for status codes that indicate the URL exists
// but requires credentials.
func isAuthStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}

// handleBrokenLink builds and publishes a broken link event.
func (c *Checker) handleBrokenLink(ctx context.Context, link Link, courseName, runID string, lesson *course.Lesson, status int, errorMsg string, cache *CacheEntry) {
	event := &BrokenLinkEvent{
		URL:    link.URL,
		Status: status,
		Error:  errorMsg,

		Course:     courseName,
		LessonSlug: lesson.File.Slug(),
		LessonPath: lesson.File.RelativePath,
		Repository: lesson.File.Repository,
		Section:    lesson.File.Section,
		Title:      lesson.EffectiveTitle(),
		UID:        lesson.UID,

		RunID: runID,
	}
	if cache != nil {
		event.FailureCount = cache.FailureCount
		event.FirstFailedAt = cache.FirstFailedAt
		event.LastChecked = cache.LastChecked
	}

	if err := c.cache.PublishBrokenLink(ctx, event); err != nil {
		slog.Error("Failed to publish broken link event",
			logfields.URL(link.URL),
			logfields.Lesson(event.LessonSlug),
			logfields.Error(err))
	} else {
		slog.Warn("Broken link detected",
			logfields.URL(link.URL),
			logfields.Lesson(event.LessonSlug),
			logfields.Repository(event.Repository),
			slog.Int("status", status),
			slog.String("detail", errorMsg))
	}
}

// Close releases the cache client.
func (c *Checker) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}
