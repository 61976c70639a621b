// Package repocache persists fetched repository summaries under a key derived
// from the requested identifier list and expires them by age on read.
package repocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/naka-gawa/repo-cards/internal/domain"
	"github.com/naka-gawa/repo-cards/internal/store"
)

const (
	// KeyPrefix namespaces cache keys in shared stores.
	KeyPrefix = "gh:repos:"
	// DefaultTTL is how long an entry stays authoritative.
	DefaultTTL = 10 * time.Minute
)

// Entry is the serialized form: {"at": epoch-ms, "data": [...]}.
type Entry struct {
	At   int64                 `json:"at"`
	Data []*domain.RepoSummary `json:"data"`
}

// Time returns At as a time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.At)
}

// Key returns the order-sensitive cache key for ids.
func Key(ids []domain.RepoIdentifier) string {
	return KeyPrefix + domain.JoinIdentifiers(ids)
}

// Cache reads and writes entries in a store.KV.
type Cache struct {
	kv     store.KV
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over kv.
func New(kv store.KV, logger *log.Logger, opts ...Option) *Cache {
	c := &Cache{
		kv:     kv,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Load returns the fresh entry for ids. Missing, unreadable, corrupt and
// stale entries all report ok == false; storage errors are logged, not returned.
func (c *Cache) Load(ctx context.Context, ids []domain.RepoIdentifier) (entry Entry, ok bool) {
	key := Key(ids)
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Printf("Cache: failed to read %s: %v", key, err)
		}
		return Entry{}, false
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Printf("Cache: ignoring corrupt entry %s: %v", key, err)
		return Entry{}, false
	}
	if entry.At <= 0 || entry.Data == nil {
		c.logger.Printf("Cache: ignoring malformed entry %s", key)
		return Entry{}, false
	}
	if err := checkData(ids, entry.Data); err != nil {
		c.logger.Printf("Cache: ignoring malformed entry %s: %v", key, err)
		return Entry{}, false
	}
	if age := c.now().Sub(entry.Time()); age > c.ttl {
		c.logger.Printf("Cache: entry %s is stale (age %s)", key, age.Round(time.Second))
		return Entry{}, false
	}
	return entry, true
}

// checkData requires one complete summary per identifier.
func checkData(ids []domain.RepoIdentifier, data []*domain.RepoSummary) error {
	if len(data) != len(ids) {
		return fmt.Errorf("%d summaries for %d repositories", len(data), len(ids))
	}
	for i, r := range data {
		if r == nil {
			return fmt.Errorf("summary %d is null", i)
		}
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Save stores repos for ids stamped with the current time.
func (c *Cache) Save(ctx context.Context, ids []domain.RepoIdentifier, repos []*domain.RepoSummary) error {
	data, err := json.Marshal(Entry{At: c.now().UnixMilli(), Data: repos})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	key := Key(ids)
	if err := c.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}
