package render

import (
	"context"
	"math"

	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/svg"
)

// Backend names accepted by New.
const (
	BackendOksvg = "oksvg"
	BackendRsvg  = "rsvg"
)

// Default surface size for documents that declare no usable dimensions.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

// MaxDimension caps either side of the output surface.
const MaxDimension = 16384

// MaxPixels caps the area of the output surface (64 MP, 256 MiB of RGBA).
const MaxPixels = 64 << 20

// Renderer converts SVG bytes to PNG bytes.
// Implementations must be safe for concurrent use.
type Renderer interface {
	Name() string
	Settings() Settings
	Render(ctx context.Context, svg []byte) ([]byte, error)
}

// Settings are the knobs that change the PNG produced for a given SVG.
type Settings struct {
	Backend       string
	Scale         float64
	DefaultWidth  int
	DefaultHeight int
	Strict        bool
}

// Option configures a renderer.
type Option func(*Settings)

// WithScale multiplies the output size (default 1.0).
func WithScale(s float64) Option {
	return func(o *Settings) { o.Scale = s }
}

// WithDefaultSize sets the fallback surface size.
func WithDefaultSize(w, h int) Option {
	return func(o *Settings) {
		o.DefaultWidth = w
		o.DefaultHeight = h
	}
}

// WithStrict makes the oksvg backend fail on unsupported elements instead of
// skipping them. rsvg ignores it.
func WithStrict(strict bool) Option {
	return func(o *Settings) { o.Strict = strict }
}

// ValidBackends lists the backend names New accepts.
var ValidBackends = map[string]bool{
	BackendOksvg: true,
	BackendRsvg:  true,
}

// New returns the renderer for backend.
func New(backend string, opts ...Option) (Renderer, error) {
	switch backend {
	case BackendOksvg, "":
		return NewOksvg(opts...), nil
	case BackendRsvg:
		return NewRsvg(opts...), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown render backend %q (must be one of: oksvg, rsvg)", backend)
	}
}

func newSettings(backend string, opts []Option) Settings {
	s := Settings{
		Backend:       backend,
		Scale:         1.0,
		DefaultWidth:  DefaultWidth,
		DefaultHeight: DefaultHeight,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.Scale <= 0 {
		s.Scale = 1.0
	}
	if s.DefaultWidth <= 0 {
		s.DefaultWidth = DefaultWidth
	}
	if s.DefaultHeight <= 0 {
		s.DefaultHeight = DefaultHeight
	}
	return s
}

// surfaceSize returns the pixel size to render data at, and whether the
// document declared it.
func (s Settings) surfaceSize(data []byte) (w, h int, declared bool, err error) {
	size, ok := svg.Dimensions(data)
	if !ok {
		size = svg.Size{Width: float64(s.DefaultWidth), Height: float64(s.DefaultHeight)}
	}
	w = int(math.Ceil(size.Width * s.Scale))
	h = int(math.Ceil(size.Height * s.Scale))
	if w < 1 || h < 1 {
		return 0, 0, ok, errors.New(errors.ErrCodeRenderFailed, "surface size %dx%d is empty", w, h)
	}
	if w > MaxDimension || h > MaxDimension {
		return 0, 0, ok, errors.New(errors.ErrCodeRenderFailed, "surface size %dx%d exceeds %d pixels per side", w, h, MaxDimension)
	}
	if int64(w)*int64(h) > MaxPixels {
		return 0, 0, ok, errors.New(errors.ErrCodeRenderFailed, "surface size %dx%d exceeds %d pixels", w, h, MaxPixels)
	}
	return w, h, ok, nil
}

// contextError maps a finished context to a TIMEOUT error.
func contextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "render interrupted")
	}
	return nil
}
