// Package convert turns one base64 SVG payload into one base64 PNG payload.
//
// A [Converter] runs the per-record steps of a batch:
//
//  1. Decode the payload from standard base64
//  2. Require the decoded bytes to be UTF-8 text
//  3. Check the minimal SVG shape with [svg.Validate]
//  4. Write the decoded document as a side file
//  5. Render to PNG, reusing a cached PNG for identical documents
//  6. Write the PNG as a side file
//  7. Encode the PNG to standard base64
//
// Every failure is an [*errors.Error] whose code names the step that failed,
// so batch callers can report or encode failures per record.
//
// A Converter holds no per-record state and is safe for concurrent use as
// long as its Renderer, Cache and Store are.
package convert

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/svg2png/pkg/artifacts"
	"github.com/matzehuels/svg2png/pkg/cache"
	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/observability"
	"github.com/matzehuels/svg2png/pkg/render"
	"github.com/matzehuels/svg2png/pkg/svg"
)

// Converter converts single records.
type Converter struct {
	Renderer render.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Store    artifacts.Store
	Logger   *log.Logger

	// TTL is the lifetime of cached PNGs. Zero means cache.TTLPNG.
	TTL time.Duration
}

// New creates a converter. Nil arguments fall back to the oksvg renderer, a
// NullCache, the default keyer, a NopStore and a discard logger.
func New(r render.Renderer, c cache.Cache, keyer cache.Keyer, store artifacts.Store, logger *log.Logger) *Converter {
	if r == nil {
		r = render.NewOksvg()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if store == nil {
		store = artifacts.NopStore{}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Converter{
		Renderer: r,
		Cache:    c,
		Keyer:    keyer,
		Store:    store,
		Logger:   logger,
	}
}

// Convert converts the base64 SVG payload stored under key and returns the
// base64 PNG.
func (c *Converter) Convert(ctx context.Context, key, payload string) (string, error) {
	out, _, err := c.ConvertWithCacheInfo(ctx, key, payload)
	return out, err
}

// ConvertWithCacheInfo is Convert that also reports whether the PNG came
// from the cache.
func (c *Converter) ConvertWithCacheInfo(ctx context.Context, key, payload string) (string, bool, error) {
	doc, err := Decode(payload)
	if err != nil {
		return "", false, err
	}
	if err := svg.Validate(string(doc)); err != nil {
		return "", false, err
	}

	if err := c.Store.WriteSVG(key, doc); err != nil {
		return "", false, err
	}

	png, hit, err := c.renderWithCache(ctx, doc)
	if err != nil {
		return "", false, err
	}

	if err := c.Store.WritePNG(key, png); err != nil {
		return "", hit, err
	}

	c.Logger.Debug("converted record", "key", key, "svg_bytes", len(doc), "png_bytes", len(png), "cached", hit)
	return base64.StdEncoding.EncodeToString(png), hit, nil
}

// Decode decodes a base64 payload and checks that it is UTF-8 text.
// Whitespace inside the payload is ignored, so line-wrapped base64 decodes.
func Decode(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(stripSpace(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBase64, err, "decode base64 payload")
	}
	if !utf8.Valid(raw) {
		return nil, errors.New(errors.ErrCodeInvalidEncoding, "decoded payload is not valid UTF-8")
	}
	return raw, nil
}

// Check runs the decode and validation steps without rendering.
func Check(payload string) error {
	doc, err := Decode(payload)
	if err != nil {
		return err
	}
	return svg.Validate(string(doc))
}

func (c *Converter) renderWithCache(ctx context.Context, doc []byte) ([]byte, bool, error) {
	s := c.Renderer.Settings()
	cacheKey := c.Keyer.PNGKey(cache.Hash(doc), cache.PNGKeyOpts{
		Backend:       s.Backend,
		Scale:         s.Scale,
		DefaultWidth:  s.DefaultWidth,
		DefaultHeight: s.DefaultHeight,
		Strict:        s.Strict,
	})
	backend := cacheBackend(c.Cache)

	data, hit, err := c.Cache.Get(ctx, cacheKey)
	switch {
	case err != nil:
		c.Logger.Warn("cache lookup failed", "backend", backend, "error", err)
	case hit:
		observability.Cache().OnCacheHit(ctx, backend)
		return data, true, nil
	default:
		observability.Cache().OnCacheMiss(ctx, backend)
	}

	png, err := c.Renderer.Render(ctx, doc)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeRenderFailed, err, "render with %s", c.Renderer.Name())
		}
		return nil, false, err
	}

	ttl := c.TTL
	if ttl == 0 {
		ttl = cache.TTLPNG
	}
	if err := c.Cache.Set(ctx, cacheKey, png, ttl); err != nil {
		c.Logger.Warn("cache write failed", "backend", backend, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, backend, len(png))
	}
	return png, false, nil
}

// Close releases the cache.
func (c *Converter) Close() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}

func cacheBackend(c cache.Cache) string {
	switch c.(type) {
	case *cache.FileCache:
		return "file"
	case *cache.RedisCache:
		return "redis"
	default:
		return "none"
	}
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
