package linkcheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// NATSClient backs the link cache with a JetStream KV bucket and publishes
// broken-link events on the configured subject.
type NATSClient struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	cfg      *config.LinkcheckConfig
	subject  string
	kvBucket string
}

// NewNATSClient connects to NATS and ensures the KV bucket exists.
func NewNATSClient(cfg *config.LinkcheckConfig) (*NATSClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("linkcheck config is required")
	}
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("link checking is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &NATSClient{
		conn:     conn,
		js:       js,
		cfg:      cfg,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
	}

	if err := client.initKVBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("NATS client initialized for link checking",
		"url", cfg.NATSURL,
		"subject", cfg.Subject,
		"kv_bucket", cfg.KVBucket)

	return client, nil
}

// initKVBucket creates or gets the KV bucket for the link cache.
func (c *NATSClient) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, c.kvBucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      c.kvBucket,
		Description: "Link verification cache for coursebuilder",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}

	c.kv = kv
	slog.Info("Created KV bucket for link cache", "bucket", c.kvBucket)
	return nil
}

// PublishBrokenLink publishes a broken link event to NATS.
func (c *NATSClient) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published broken link event",
		"url", event.URL,
		"lesson", event.LessonSlug,
		"repository", event.Repository)

	return nil
}

// CacheEntry is a cached verification result for one URL.
type CacheEntry struct {
	URL             string    `json:"url"`
	Status          int       `json:"status"`
	IsValid         bool      `json:"is_valid"`
	Error           string    `json:"error,omitempty"`
	LastChecked     time.Time `json:"last_checked"`
	FailureCount    int       `json:"failure_count"`
	FirstFailedAt   time.Time `json:"first_failed_at,omitzero"`
	ConsecutiveFail bool      `json:"consecutive_fail"`
}

// GetCachedResult retrieves a cached verification result; nil when not cached.
func (c *NATSClient) GetCachedResult(ctx context.Context, url string) (*CacheEntry, error) {
	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &cached, nil
}

// SetCachedResult stores a verification result in the cache.
func (c *NATSClient) SetCachedResult(ctx context.Context, entry *CacheEntry) error {
	entry.LastChecked = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// JetStream KV has no per-key TTL; staleness is decided on read via IsCacheValid.
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// IsCacheValid checks whether an entry is fresh enough to reuse. Failures
// get a shorter TTL so broken links are rechecked sooner.
func (c *NATSClient) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	var ttl time.Duration
	if entry.IsValid {
		ttl, _ = time.ParseDuration(c.cfg.CacheTTL)
	} else {
		ttl, _ = time.ParseDuration(c.cfg.CacheTTLFailures)
	}
	return time.Since(entry.LastChecked) < ttl
}

// GetLessonHash returns the content hash stored for a lesson slug, empty when unknown.
func (c *NATSClient) GetLessonHash(ctx context.Context, slug string) (string, error) {
	entry, err := c.kv.Get(ctx, "lesson."+slug)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get lesson hash: %w", err)
	}
	return string(entry.Value()), nil
}

// SetLessonHash records the content hash of a fully verified lesson.
func (c *NATSClient) SetLessonHash(ctx context.Context, slug, hash string) error {
	if _, err := c.kv.Put(ctx, "lesson."+slug, []byte(hash)); err != nil {
		return fmt.Errorf("failed to put lesson hash: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// cacheKey maps a URL onto the KV keyspace. KV keys cannot contain most URL
// punctuation, so the URL is keyed by its sha256 digest.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "url." + hex.EncodeToString(sum[:])
}
