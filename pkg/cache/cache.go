// Package cache stores rendered PNG bytes keyed by the content hash of the
// SVG they were rendered from.
//
// Rendering is a pure function of the SVG bytes and the backend settings, so
// a cached PNG can be reused for any record key carrying the same document.
// Three backends are provided:
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry under an XDG cache directory (CLI)
//   - [RedisCache]: shared cache for several workers or server instances
//
// Keys are produced by a [Keyer] so that deployments can namespace them with
// [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// TTLPNG is the default lifetime of a rendered PNG entry.
const TTLPNG = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
// Get reports a miss with hit=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
