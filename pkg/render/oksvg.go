package render

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/matzehuels/svg2png/pkg/errors"
)

// OksvgRenderer rasterizes with oksvg and rasterx.
type OksvgRenderer struct {
	settings Settings
}

// NewOksvg returns a pure-Go renderer.
func NewOksvg(opts ...Option) *OksvgRenderer {
	return &OksvgRenderer{settings: newSettings(BackendOksvg, opts)}
}

// Name returns "oksvg".
func (r *OksvgRenderer) Name() string { return BackendOksvg }

// Settings returns the renderer settings.
func (r *OksvgRenderer) Settings() Settings { return r.settings }

// Render parses data, draws it onto a transparent RGBA surface sized to the
// document and encodes the surface as PNG.
func (r *OksvgRenderer) Render(ctx context.Context, data []byte) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, errors.New(errors.ErrCodeRenderFailed, "oksvg panic: %v", p)
		}
	}()
	if err := contextError(ctx); err != nil {
		return nil, err
	}

	mode := oksvg.IgnoreErrorMode
	if r.settings.Strict {
		mode = oksvg.StrictErrorMode
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), mode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse svg")
	}

	w, h, _, err := r.settings.surfaceSize(data)
	if err != nil {
		return nil, err
	}
	// Documents without a viewBox or size draw in user units on the default
	// surface.
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W = float64(w) / r.settings.Scale
		icon.ViewBox.H = float64(h) / r.settings.Scale
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	if err := contextError(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode png")
	}
	return buf.Bytes(), nil
}

var _ Renderer = (*OksvgRenderer)(nil)
