package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/svg2png/pkg/errors"
)

const redSquare = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` +
	`<rect x="0" y="0" width="10" height="10" fill="#ff0000"/></svg>`

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func decodePNG(t fataler, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}
	return img
}

func TestOksvgRedSquare(t *testing.T) {
	out, err := NewOksvg().Render(context.Background(), []byte(redSquare))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	img := decodePNG(t, out)
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Fatalf("size = %dx%d, want 10x10", b.Dx(), b.Dy())
	}

	r, g, b, a := img.At(5, 5).RGBA()
	if r>>8 != 0xff || g>>8 != 0 || b>>8 != 0 || a>>8 != 0xff {
		t.Errorf("center pixel = (%d,%d,%d,%d), want opaque red", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestOksvgDeclaredSize(t *testing.T) {
	tests := []struct {
		name  string
		svg   string
		wantW int
		wantH int
	}{
		{"wide", `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20"/>`, 40, 20},
		{"viewBox only", `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 8"/>`, 16, 8},
		{"no size", `<svg xmlns="http://www.w3.org/2000/svg"><rect width="5" height="5"/></svg>`, DefaultWidth, DefaultHeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewOksvg().Render(context.Background(), []byte(tt.svg))
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			b := decodePNG(t, out).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestOksvgScaleAndDefaultSize(t *testing.T) {
	r := NewOksvg(WithScale(2), WithDefaultSize(30, 20))

	out, err := r.Render(context.Background(), []byte(redSquare))
	if err != nil {
		t.Fatal(err)
	}
	if b := decodePNG(t, out).Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("scaled size = %dx%d, want 20x20", b.Dx(), b.Dy())
	}

	out, err = r.Render(context.Background(), []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	if err != nil {
		t.Fatal(err)
	}
	if b := decodePNG(t, out).Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Errorf("default size = %dx%d, want 60x40", b.Dx(), b.Dy())
	}
}

func TestOksvgErrors(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		code errors.Code
	}{
		{"not xml", "definitely not svg <<<", errors.ErrCodeRenderFailed},
		{"too large", `<svg xmlns="http://www.w3.org/2000/svg" width="100000" height="10"/>`, errors.ErrCodeRenderFailed},
		{"too many pixels", `<svg xmlns="http://www.w3.org/2000/svg" width="10000" height="10000"/>`, errors.ErrCodeRenderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOksvg(WithStrict(true)).Render(context.Background(), []byte(tt.svg))
			if err == nil {
				t.Fatal("Render() should fail")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestOksvgCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOksvg().Render(ctx, []byte(redSquare))
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeTimeout)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", BackendOksvg, BackendRsvg} {
		r, err := New(name)
		if err != nil {
			t.Errorf("New(%q) error: %v", name, err)
			continue
		}
		if name != "" && r.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, r.Name())
		}
	}

	_, err := New("cairo")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("New(cairo) code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnsupported)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := NewOksvg(WithScale(-1), WithDefaultSize(0, 0)).Settings()
	if s.Scale != 1 || s.DefaultWidth != DefaultWidth || s.DefaultHeight != DefaultHeight {
		t.Errorf("invalid options should fall back to defaults: %+v", s)
	}
	if s.Backend != BackendOksvg {
		t.Errorf("Backend = %q", s.Backend)
	}
}

func TestRsvgMissingBinary(t *testing.T) {
	old := rsvgBinary
	rsvgBinary = "rsvg-convert-does-not-exist"
	defer func() { rsvgBinary = old }()

	r := NewRsvg()
	if r.Available() {
		t.Fatal("Available() should be false")
	}
	_, err := r.Render(context.Background(), []byte(redSquare))
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnsupported)
	}
}

func TestRsvgRedSquare(t *testing.T) {
	r := NewRsvg()
	if !r.Available() {
		t.Skip("rsvg-convert not installed")
	}

	out, err := r.Render(context.Background(), []byte(redSquare))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if b := decodePNG(t, out).Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("size = %dx%d, want 10x10", b.Dx(), b.Dy())
	}
}

// TestOksvgDeterministic_Property proves output depends only on the input
// document.
func TestOksvgDeterministic_Property(t *testing.T) {
	r := NewOksvg()
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 64).Draw(rt, "w")
		h := rapid.IntRange(1, 64).Draw(rt, "h")
		fill := rapid.SampledFrom([]string{"red", "#00ff00", "blue", "black"}).Draw(rt, "fill")
		doc := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(w) + `" height="` + strconv.Itoa(h) + `">` +
			`<circle cx="` + strconv.Itoa(w/2) + `" cy="` + strconv.Itoa(h/2) + `" r="` + strconv.Itoa(min(w, h)/2) + `" fill="` + fill + `"/></svg>`)

		a, err := r.Render(context.Background(), doc)
		if err != nil {
			rt.Fatalf("Render() error: %v", err)
		}
		b, err := r.Render(context.Background(), bytes.Clone(doc))
		if err != nil {
			rt.Fatalf("Render() error: %v", err)
		}
		if !bytes.Equal(a, b) {
			rt.Fatal("same document rendered to different bytes")
		}
		if bounds := decodePNG(rt, a).Bounds(); bounds.Dx() != w || bounds.Dy() != h {
			rt.Fatalf("size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), w, h)
		}
	})
}
