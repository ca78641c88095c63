package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const robotsTTL = 1 * time.Hour

// robotsCache caches one robots.txt verdict source per origin. Entries are
// overwritten after the TTL; there is no eviction beyond that. An unreachable
// or unparseable robots.txt yields a permissive entry, matching the cautious
// default of only fetching public product pages.
type robotsCache struct {
	log       *zap.Logger
	transport http.RoundTripper
	agent     string

	mu      sync.Mutex
	entries map[string]robotsEntry
}

type robotsEntry struct {
	data      *robotstxt.RobotsData // nil means "allow everything"
	fetchedAt time.Time
}

func newRobotsCache(log *zap.Logger, transport http.RoundTripper, agent string) *robotsCache {
	return &robotsCache{
		log:       log,
		transport: transport,
		agent:     agent,
		entries:   make(map[string]robotsEntry),
	}
}

// Allowed reports whether robots.txt permits fetching pageURL. ctx bounds the
// robots.txt lookup on a cache miss.
func (c *robotsCache) Allowed(ctx context.Context, pageURL *url.URL) bool {
	origin := pageURL.Scheme + "://" + pageURL.Host

	c.mu.Lock()
	entry, ok := c.entries[origin]
	c.mu.Unlock()

	if !ok || time.Since(entry.fetchedAt) >= robotsTTL {
		entry = robotsEntry{data: c.fetchRobots(ctx, origin), fetchedAt: time.Now()}
		c.mu.Lock()
		c.entries[origin] = entry
		c.mu.Unlock()
	}

	if entry.data == nil {
		return true
	}

	path := pageURL.Path
	if path == "" {
		path = "/"
	}
	return entry.data.TestAgent(path, c.agent)
}

func (c *robotsCache) fetchRobots(ctx context.Context, origin string) *robotstxt.RobotsData {
	var body string
	var status int
	err := requests.
		URL(origin + "/robots.txt").
		Transport(c.transport).
		UserAgent(c.agent).
		AddValidator(func(resp *http.Response) error {
			status = resp.StatusCode
			return nil
		}).
		ToString(&body).
		Fetch(ctx)
	if err != nil || status >= 400 {
		c.log.Sugar().Debugw("robots.txt not reachable, defaulting to allow", "origin", origin, "status", status, "err", err)
		return nil
	}

	data, err := robotstxt.FromString(body)
	if err != nil {
		c.log.Sugar().Debugw("robots.txt unparseable, defaulting to allow", "origin", origin, "err", err)
		return nil
	}
	return data
}
