package preprocess

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sprint.report/internal/testutil"
)

func TestReflect101(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{-3, 1, 0},
		{3, 2, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, reflect101(tc.i, tc.n), "reflect101(%d, %d)", tc.i, tc.n)
	}
}

func TestGaussianKernel(t *testing.T) {
	sum := 0.0
	for _, w := range gaussian5 {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, gaussian5[0], gaussian5[4], 1e-12)
	assert.InDelta(t, gaussian5[1], gaussian5[3], 1e-12)
	assert.Greater(t, gaussian5[2], gaussian5[1])
}

func TestNormalize(t *testing.T) {
	src := testutil.Gradient(4, 1, 50, 150)
	out := Normalize(src)

	assert.Equal(t, uint8(0), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[3*4])
	assert.Equal(t, uint8(255), out.Pix[3*4+3], "alpha kept")
	// Input untouched.
	assert.Equal(t, uint8(50), src.Pix[0])
}

func TestNormalize_NoContrast(t *testing.T) {
	out := Normalize(testutil.Solid(3, 3, color.RGBA{90, 90, 90, 255}))
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Equal(t, uint8(0), out.Pix[i])
		assert.Equal(t, uint8(255), out.Pix[i+3])
	}
}

func TestDenoise_PreservesFlatImage(t *testing.T) {
	src := testutil.Solid(7, 5, color.RGBA{100, 150, 200, 255})
	assert.Equal(t, src.Pix, Denoise(src).Pix)
}

func TestDenoise_SpreadsImpulse(t *testing.T) {
	src := testutil.WithRect(testutil.Solid(9, 9, color.RGBA{0, 0, 0, 255}), image.Rect(4, 4, 5, 5), color.RGBA{255, 255, 255, 255})
	out := Denoise(src)
	centre := out.RGBAAt(4, 4).R
	neighbour := out.RGBAAt(5, 4).R
	assert.Less(t, centre, uint8(255))
	assert.Greater(t, neighbour, uint8(0))
	assert.Greater(t, centre, neighbour)
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).R)
}

func TestDeblur(t *testing.T) {
	flat := testutil.Solid(5, 5, color.RGBA{60, 60, 60, 255})
	assert.Equal(t, flat.Pix, Deblur(flat).Pix)

	spot := testutil.WithRect(testutil.Solid(5, 5, color.RGBA{0, 0, 0, 255}), image.Rect(2, 2, 3, 3), color.RGBA{200, 200, 200, 255})
	out := Deblur(spot)
	assert.Equal(t, uint8(255), out.RGBAAt(2, 2).R, "saturates high")
	assert.Equal(t, uint8(0), out.RGBAAt(1, 2).R, "saturates low")
}

func TestResize(t *testing.T) {
	out := Resize(testutil.Noise(64, 48, 7), 32, 24)
	assert.Equal(t, image.Rect(0, 0, 32, 24), out.Bounds())

	src := testutil.Noise(8, 8, 3)
	same := Resize(src, 8, 8)
	assert.Equal(t, src.Pix, same.Pix)
	assert.NotSame(t, src, same)
}

func TestCrop(t *testing.T) {
	src := testutil.Gradient(10, 4, 0, 90)
	out, err := Crop(src, image.Rect(3, 0, 7, 4))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
	assert.Equal(t, src.RGBAAt(3, 1), out.RGBAAt(0, 1))

	_, err = Crop(src, image.Rect(20, 0, 30, 4))
	assert.Error(t, err)
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, uint8(0), saturate(-3))
	assert.Equal(t, uint8(255), saturate(300))
	assert.Equal(t, uint8(128), saturate(127.5))
	assert.Equal(t, uint8(0), saturate(math.Inf(-1)))
}
