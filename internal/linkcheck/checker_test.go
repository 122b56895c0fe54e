package linkcheck

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/course"
)

type inMemoryCache struct {
	mu         sync.Mutex
	links      map[string]*CacheEntry
	lessonHash map[string]string
	published  []*BrokenLinkEvent
	validCache bool
}

func newInMemoryCache() *inMemoryCache {
	return &inMemoryCache{
		links:      make(map[string]*CacheEntry),
		lessonHash: make(map[string]string),
	}
}

func (c *inMemoryCache) GetCachedResult(_ context.Context, url string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.links[url]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (c *inMemoryCache) SetCachedResult(_ context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry == nil {
		return nil
	}
	cp := *entry
	c.links[entry.URL] = &cp
	return nil
}

func (c *inMemoryCache) IsCacheValid(entry *CacheEntry) bool { return c.validCache && entry != nil }

func (c *inMemoryCache) GetLessonHash(_ context.Context, slug string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lessonHash[slug], nil
}

func (c *inMemoryCache) SetLessonHash(_ context.Context, slug, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lessonHash[slug] = hash
	return nil
}

func (c *inMemoryCache) PublishBrokenLink(_ context.Context, ev *BrokenLinkEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, ev)
	return nil
}

func (c *inMemoryCache) Close() error { return nil }

func (c *inMemoryCache) events() []*BrokenLinkEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*BrokenLinkEvent, len(c.published))
	copy(out, c.published)
	return out
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func testChecker(cache *inMemoryCache, rt roundTripperFunc) *Checker {
	cfg := &config.LinkcheckConfig{
		MaxConcurrent:  5,
		RequestTimeout: "2s",
		RateLimitDelay: "0s",
		MaxRedirects:   3,
		CacheTTL:       "24h",
	}
	c := newChecker(cfg, cache)
	c.httpClient = &http.Client{Transport: rt}
	return c
}

func TestCheckLessonsAllValid(t *testing.T) {
	cache := newInMemoryCache()
	checker := testChecker(cache, func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})

	lessons := []course.Lesson{
		*makeLesson(t, "[a](https://example.com/a)\n[b](https://example.com/b)\n"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	summary, err := checker.CheckLessons(ctx, "go-basics", "run-1", lessons)
	if err != nil {
		t.Fatalf("CheckLessons: %v", err)
	}
	if summary.LessonsChecked != 1 || summary.LinksChecked != 2 || summary.Broken != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(cache.events()) != 0 {
		t.Fatalf("expected no broken link events")
	}
	// Lesson hash recorded after a clean pass.
	slug := lessons[0].File.Slug()
	if cache.lessonHash[slug] == "" {
		t.Fatalf("expected lesson hash cached after clean pass")
	}
}

func TestCheckLessonsBrokenLinkPublishes(t *testing.T) {
	cache := newInMemoryCache()
	checker := testChecker(cache, func(r *http.Request) (*http.Response, error) {
		if strings.Contains(r.URL.Path, "dead") {
			return &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found", Body: http.NoBody}, nil
		}
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})

	lessons := []course.Lesson{
		*makeLesson(t, "---\ntitle: Broken\nuid: abc-123\n---\n[dead](https://example.com/dead)\n[ok](https://example.com/ok)\n"),
	}

	ctx := context.Background()
	summary, err := checker.CheckLessons(ctx, "go-basics", "run-2", lessons)
	if err != nil {
		t.Fatalf("CheckLessons: %v", err)
	}
	if summary.Broken != 1 {
		t.Fatalf("expected 1 broken link, got %d", summary.Broken)
	}
	events := cache.events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.URL != "https://example.com/dead" || ev.Status != 404 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Course != "go-basics" || ev.RunID != "run-2" || ev.Title != "Broken" || ev.UID != "abc-123" {
		t.Fatalf("expected lesson metadata on event, got %+v", ev)
	}
	if ev.FailureCount != 1 {
		t.Fatalf("expected failure count 1, got %d", ev.FailureCount)
	}
	// Failed pass must not record the lesson hash.
	if cache.lessonHash[lessons[0].File.Slug()] != "" {
		t.Fatalf("lesson hash must not be cached when links are broken")
	}
}

func TestCheckLessonsSkipsUnchanged(t *testing.T) {
	cache := newInMemoryCache()
	requests := 0
	var reqMu sync.Mutex
	checker := testChecker(cache, func(r *http.Request) (*http.Response, error) {
		reqMu.Lock()
		requests++
		reqMu.Unlock()
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})

	lesson := makeLesson(t, "[a](https://example.com/a)\n")
	cache.lessonHash[lesson.File.Slug()] = lesson.File.ContentHash()

	summary, err := checker.CheckLessons(context.Background(), "go-basics", "run-3", []course.Lesson{*lesson})
	if err != nil {
		t.Fatalf("CheckLessons: %v", err)
	}
	if summary.LessonsSkipped != 1 || summary.LinksChecked != 0 {
		t.Fatalf("expected skip, got %+v", summary)
	}
	if requests != 0 {
		t.Fatalf("expected no HTTP requests for unchanged lesson, got %d", requests)
	}
}

func TestCheckLessonsUsesCachedFailure(t *testing.T) {
	cache := newInMemoryCache()
	cache.validCache = true
	cache.links["https://example.com/dead"] = &CacheEntry{
		URL:          "https://example.com/dead",
		Status:       404,
		IsValid:      false,
		Error:        "HTTP 404",
		FailureCount: 3,
		LastChecked:  time.Now(),
	}
	requests := 0
	checker := testChecker(cache, func(r *http.Request) (*http.Response, error) {
		requests++
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})

	lessons := []course.Lesson{*makeLesson(t, "[dead](https://example.com/dead)\n")}
	summary, err := checker.CheckLessons(context.Background(), "go-basics", "run-4", lessons)
	if err != nil {
		t.Fatalf("CheckLessons: %v", err)
	}
	if summary.Broken != 1 {
		t.Fatalf("expected cached failure to count as broken, got %+v", summary)
	}
	if requests != 0 {
		t.Fatalf("expected no HTTP request for cached result, got %d", requests)
	}
	events := cache.events()
	if len(events) != 1 || events[0].FailureCount != 3 {
		t.Fatalf("expected event carrying cached failure count, got %+v", events)
	}
}

func TestCheckLessonsRejectsConcurrentRuns(t *testing.T) {
	cache := newInMemoryCache()
	checker := testChecker(cache, func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})
	checker.running = true
	if _, err := checker.CheckLessons(context.Background(), "c", "r", nil); err == nil {
		t.Fatalf("expected error while another pass is running")
	}
}

func TestAuthStatusNotBroken(t *testing.T) {
	cache := newInMemoryCache()
	checker := testChecker(cache, func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden", Body: http.NoBody}, nil
	})
	lessons := []course.Lesson{*makeLesson(t, "[walled](https://example.com/private)\n")}
	summary, err := checker.CheckLessons(context.Background(), "c", "r", lessons)
	if err != nil {
		t.Fatalf("CheckLessons: %v", err)
	}
	if summary.Broken != 0 {
		t.Fatalf("auth-walled link must not count as broken, got %+v", summary)
	}
}
