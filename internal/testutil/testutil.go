// Package testutil provides shared test helpers and synthetic frame fixtures.
//
// The frame builders are deterministic so that preprocessing tests can
// compare outputs bit for bit.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// Gradient returns a w×h image whose grey level rises left to right from lo
// to hi. Alpha is opaque.
func Gradient(w, h int, lo, hi uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lo
			if w > 1 {
				v = uint8(int(lo) + (int(hi)-int(lo))*x/(w-1))
			}
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// Noise returns a w×h image of pseudo-random grey levels. The same seed
// always yields the same pixels.
func Noise(w, h int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	s := seed | 1
	for i := 0; i < len(img.Pix); i += 4 {
		// xorshift32
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		v := uint8(s >> 24)
		img.Pix[i+0] = v
		img.Pix[i+1] = v
		img.Pix[i+2] = v
		img.Pix[i+3] = 255
	}
	return img
}

// WithRect returns a copy of img with r filled with c.
func WithRect(img *image.RGBA, r image.Rectangle, c color.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	r = r.Intersect(out.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

// WritePNG encodes img into dir/name and returns the path.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}
