package preprocess

import (
	"errors"
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ErrEmptyFrame is returned for a nil or zero-area input.
var ErrEmptyFrame = errors.New("empty frame")

// Resize scales img to w x h with bilinear filtering. A same-size input is
// copied.
func Resize(img *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		xdraw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, xdraw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Normalize stretches the colour channels linearly so the darkest sample in
// the frame maps to 0 and the brightest to 255. The extrema are taken across
// all three channels. A frame with no contrast maps to 0.
func Normalize(img *image.RGBA) *image.RGBA {
	out := cloneRGBA(img)
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := out.Pix[i+c]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	scale := 0.0
	if hi > lo {
		scale = 255.0 / float64(hi-lo)
	}
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = saturate(float64(out.Pix[i+c]-lo) * scale)
		}
	}
	return out
}

// gaussianSigma is the sigma OpenCV derives for a 5-tap kernel when sigma is
// left at zero: 0.3*((ksize-1)*0.5 - 1) + 0.8.
const gaussianSigma = 1.1

var gaussian5 = gaussianKernel(5, gaussianSigma)

func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	half := size / 2
	sum := 0.0
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Denoise applies a separable 5x5 Gaussian blur.
func Denoise(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	src := cloneRGBA(img)
	tmp := make([]float64, w*h*3)
	half := len(gaussian5) / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k, wt := range gaussian5 {
				sx := reflect101(x+k-half, w)
				o := y*src.Stride + sx*4
				for c := 0; c < 3; c++ {
					acc[c] += wt * float64(src.Pix[o+c])
				}
			}
			copy(tmp[(y*w+x)*3:], acc[:])
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k, wt := range gaussian5 {
				sy := reflect101(y+k-half, h)
				o := (sy*w + x) * 3
				for c := 0; c < 3; c++ {
					acc[c] += wt * tmp[o+c]
				}
			}
			o := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = saturate(acc[c])
			}
			out.Pix[o+3] = 0xff
		}
	}
	return out
}

var sharpen3 = [3][3]float64{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// Deblur sharpens with a 3x3 Laplacian-style kernel. Results saturate to
// [0, 255].
func Deblur(img *image.RGBA) *image.RGBA {
	src := cloneRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for ky := -1; ky <= 1; ky++ {
				sy := reflect101(y+ky, h)
				for kx := -1; kx <= 1; kx++ {
					wt := sharpen3[ky+1][kx+1]
					if wt == 0 {
						continue
					}
					o := sy*src.Stride + reflect101(x+kx, w)*4
					for c := 0; c < 3; c++ {
						acc[c] += wt * float64(src.Pix[o+c])
					}
				}
			}
			o := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = saturate(acc[c])
			}
			out.Pix[o+3] = 0xff
		}
	}
	return out
}

// Crop returns a copy of the part of img inside r, rebased to the origin.
func Crop(img *image.RGBA, r image.Rectangle) (*image.RGBA, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop %v outside frame %v", r, img.Bounds())
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(out, out.Bounds(), img, r.Min, xdraw.Src)
	return out, nil
}

// reflect101 mirrors i into [0, n) without repeating the edge sample
// (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// cloneRGBA returns an origin-based copy of img.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}
