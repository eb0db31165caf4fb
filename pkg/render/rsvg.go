package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/matzehuels/svg2png/pkg/errors"
)

// rsvgBinary is the librsvg command-line converter.
var rsvgBinary = "rsvg-convert"

// RsvgRenderer converts SVG to PNG using rsvg-convert.
type RsvgRenderer struct {
	settings Settings
}

// NewRsvg returns a renderer backed by rsvg-convert.
func NewRsvg(opts ...Option) *RsvgRenderer {
	return &RsvgRenderer{settings: newSettings(BackendRsvg, opts)}
}

// Name returns "rsvg".
func (r *RsvgRenderer) Name() string { return BackendRsvg }

// Settings returns the renderer settings.
func (r *RsvgRenderer) Settings() Settings { return r.settings }

// Available reports whether rsvg-convert is on PATH.
func (r *RsvgRenderer) Available() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

// Render pipes data through rsvg-convert. The process is killed when ctx is
// done.
func (r *RsvgRenderer) Render(ctx context.Context, data []byte) ([]byte, error) {
	if !r.Available() {
		return nil, errors.New(errors.ErrCodeUnsupported, "png export with the rsvg backend requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	w, h, declared, err := r.settings.surfaceSize(data)
	if err != nil {
		return nil, err
	}
	args := []string{"-f", "png", "-z", strconv.FormatFloat(r.settings.Scale, 'f', 2, 64)}
	if !declared {
		args = append(args, "-w", strconv.Itoa(w), "-h", strconv.Itoa(h))
	}
	return rsvgConvert(ctx, data, args...)
}

// rsvgConvert shells out to rsvg-convert.
func rsvgConvert(ctx context.Context, svg []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, rsvgBinary, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, fmt.Errorf("%v: %s", err, bytes.TrimSpace(errBuf.Bytes())), "rsvg-convert")
	}
	if out.Len() == 0 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "rsvg-convert produced no output")
	}
	return out.Bytes(), nil
}

var _ Renderer = (*RsvgRenderer)(nil)
