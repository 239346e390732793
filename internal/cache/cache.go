// Package cache decorates the pipeline operations with a TTL memo, keyed by
// (operation, arguments). It sits strictly outside the pipeline: entries are
// whole successful results, errors are never cached, and stream results use
// a shorter TTL because upstream playlist URLs expire.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"anistream/internal/media"
	"anistream/internal/pipeline"
)

type entry struct {
	value   any
	expires time.Time
}

// Cache is a TTL-decorated pipeline.Service.
type Cache struct {
	next      pipeline.Service
	ttl       time.Duration
	streamTTL time.Duration

	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New wraps a service with TTL memoization. streamTTL bounds how long a
// resolved stream is reused; it should stay well under the upstream URL
// lifetime.
func New(next pipeline.Service, ttl, streamTTL time.Duration) *Cache {
	return &Cache{
		next:      next,
		ttl:       ttl,
		streamTTL: streamTTL,
		entries:   make(map[string]entry),
		now:       time.Now,
	}
}

func key(op string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, "\x1f")
}

// get returns a live cached value, expiring stale entries on access.
func (c *Cache) get(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, k)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) put(k string, v any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry{value: v, expires: c.now().Add(ttl)}
}

func (c *Cache) Search(ctx context.Context, query string, page int) (*media.SearchPage, error) {
	k := key("search", query, page)
	if v, ok := c.get(k); ok {
		return v.(*media.SearchPage), nil
	}
	out, err := c.next.Search(ctx, query, page)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.ttl)
	return out, nil
}

func (c *Cache) Popular(ctx context.Context, page int) (*media.SearchPage, error) {
	k := key("popular", page)
	if v, ok := c.get(k); ok {
		return v.(*media.SearchPage), nil
	}
	out, err := c.next.Popular(ctx, page)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.ttl)
	return out, nil
}

func (c *Cache) Latest(ctx context.Context, page int) (*media.SearchPage, error) {
	k := key("latest", page)
	if v, ok := c.get(k); ok {
		return v.(*media.SearchPage), nil
	}
	out, err := c.next.Latest(ctx, page)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.ttl)
	return out, nil
}

func (c *Cache) Detail(ctx context.Context, animeID string) (*media.Detail, error) {
	k := key("detail", animeID)
	if v, ok := c.get(k); ok {
		return v.(*media.Detail), nil
	}
	out, err := c.next.Detail(ctx, animeID)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.ttl)
	return out, nil
}

func (c *Cache) Episodes(ctx context.Context, animeID string) (*media.EpisodeList, error) {
	k := key("episodes", animeID)
	if v, ok := c.get(k); ok {
		return v.(*media.EpisodeList), nil
	}
	out, err := c.next.Episodes(ctx, animeID)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.ttl)
	return out, nil
}

func (c *Cache) Servers(ctx context.Context, episodeID string) (*media.ServerList, error) {
	k := key("servers", episodeID)
	if v, ok := c.get(k); ok {
		return v.(*media.ServerList), nil
	}
	out, err := c.next.Servers(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.ttl)
	return out, nil
}

func (c *Cache) Stream(ctx context.Context, episodeID, serverName, trackType string) (*media.Stream, error) {
	k := key("stream", episodeID, serverName, trackType)
	if v, ok := c.get(k); ok {
		return v.(*media.Stream), nil
	}
	out, err := c.next.Stream(ctx, episodeID, serverName, trackType)
	if err != nil {
		return nil, err
	}
	c.put(k, out, c.streamTTL)
	return out, nil
}

var _ pipeline.Service = (*Cache)(nil)
