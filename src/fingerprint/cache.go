package fingerprint

import (
	"strconv"
	"time"

	"github.com/coocood/freecache"
)

// PathCache memoizes the resolved fd path for a (tid, fd) pair across the
// reset window, the way the teacher's fixed_cache_impl.go shields Redis
// round trips with a bounded local freecache.Cache. Resolving a relative
// openat name against cwd/dirfd and normalizing "." / ".." segments is the
// one allocation-heavy thing the fallback path does; memoizing it keeps
// repeated extract calls for the same descriptor cheap.
type PathCache struct {
	cache   *freecache.Cache
	ttlSecs int
}

// NewPathCache builds a PathCache with the given byte budget and entry TTL.
// The TTL is truncated to whole seconds; a positive TTL under one second
// becomes one second, and a non-positive TTL becomes ten seconds.
// A nil *PathCache is valid and simply disables caching (Get always misses,
// Put is a no-op), so callers can wire it optionally.
func NewPathCache(sizeBytes int, ttl time.Duration) *PathCache {
	if sizeBytes <= 0 {
		return nil
	}
	secs := int(ttl.Seconds())
	if secs <= 0 {
		secs = 10
		if ttl > 0 {
			secs = 1
		}
	}
	return &PathCache{
		cache:   freecache.NewCache(sizeBytes),
		ttlSecs: secs,
	}
}

func pathCacheKey(tid, fd int64) []byte {
	return []byte(strconv.FormatInt(tid, 10) + ":" + strconv.FormatInt(fd, 10))
}

// Get returns the cached resolved path for (tid, fd), if present.
func (c *PathCache) Get(tid, fd int64) (string, bool) {
	if c == nil {
		return "", false
	}
	v, err := c.cache.Get(pathCacheKey(tid, fd))
	if err != nil {
		return "", false
	}
	return string(v), true
}

// Put caches the resolved path for (tid, fd) until the configured TTL.
func (c *PathCache) Put(tid, fd int64, path string) {
	if c == nil || path == "" {
		return
	}
	_ = c.cache.Set(pathCacheKey(tid, fd), []byte(path), c.ttlSecs)
}
