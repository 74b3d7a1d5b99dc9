package preprocess

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/banshee-data/sprint.report/internal/config"
)

const (
	// DefaultInitialVariance seeds the variance of a newly observed pixel.
	DefaultInitialVariance = 15.0
	// DefaultMinVariance and DefaultMaxVariance bound the per-pixel variance.
	DefaultMinVariance = 4.0
	DefaultMaxVariance = 75.0
	// DefaultReacquisitionBoostMultiplier speeds re-convergence after a
	// pixel stops seeing foreground.
	DefaultReacquisitionBoostMultiplier = 5.0
)

// ErrModelSize is returned when a frame does not match the dimensions the
// model was seeded with.
var ErrModelSize = errors.New("frame size does not match background model")

// BackgroundParams tunes the per-pixel background model.
type BackgroundParams struct {
	// History sets the learning rate as 1/History.
	History int
	// VarThreshold is the squared colour distance, in units of the pixel
	// variance, below which an observation counts as background.
	VarThreshold float64
	// WarmupMinFrames suppresses foreground output for the first N frames
	// while the model still learns.
	WarmupMinFrames int

	InitialVariance              float64
	MinVariance                  float64
	MaxVariance                  float64
	ReacquisitionBoostMultiplier float64
}

// BackgroundParamsFromSprint maps SprintConfig onto model parameters.
func BackgroundParamsFromSprint(cfg *config.SprintConfig) BackgroundParams {
	return BackgroundParams{
		History:         cfg.GetBgHistory(),
		VarThreshold:    cfg.GetBgVarThreshold(),
		WarmupMinFrames: cfg.GetBgWarmupFrames(),
	}
}

// DefaultBackgroundParams matches the built-in config defaults.
func DefaultBackgroundParams() BackgroundParams {
	return BackgroundParams{History: 100, VarThreshold: 50}
}

func (p BackgroundParams) withDefaults() BackgroundParams {
	if p.History <= 0 {
		p.History = 100
	}
	if p.VarThreshold <= 0 {
		p.VarThreshold = 50
	}
	if p.InitialVariance <= 0 {
		p.InitialVariance = DefaultInitialVariance
	}
	if p.MinVariance <= 0 {
		p.MinVariance = DefaultMinVariance
	}
	if p.MaxVariance <= 0 {
		p.MaxVariance = DefaultMaxVariance
	}
	if p.MaxVariance < p.MinVariance {
		p.MaxVariance = p.MinVariance
	}
	if p.ReacquisitionBoostMultiplier <= 0 {
		p.ReacquisitionBoostMultiplier = DefaultReacquisitionBoostMultiplier
	}
	return p
}

// pixelCell is the running estimate for one pixel.
type pixelCell struct {
	Mean                  [3]float32
	Variance              float32
	TimesSeenCount        uint32
	RecentForegroundCount uint16
}

// BackgroundStats summarises the most recent frame.
type BackgroundStats struct {
	Frames           int
	ForegroundPixels int
	BackgroundPixels int
	WarmupActive     bool
}

// BackgroundModel classifies pixels as foreground or background against an
// exponentially weighted running mean and variance per pixel. A pixel seen
// for the first time seeds its cell and is reported as foreground.
type BackgroundModel struct {
	mu     sync.Mutex
	params BackgroundParams
	alpha  float64
	width  int
	height int
	cells  []pixelCell

	warmupFramesRemaining int
	settlingComplete      bool
	stats                 BackgroundStats
}

// NewBackgroundModel creates an empty model. Dimensions are fixed by the
// first frame.
func NewBackgroundModel(params BackgroundParams) *BackgroundModel {
	params = params.withDefaults()
	return &BackgroundModel{
		params:                params,
		alpha:                 1.0 / float64(params.History),
		warmupFramesRemaining: params.WarmupMinFrames,
		settlingComplete:      params.WarmupMinFrames <= 0,
	}
}

// Params returns the effective parameters after defaults.
func (bm *BackgroundModel) Params() BackgroundParams { return bm.params }

// Stats returns counters for the most recent frame.
func (bm *BackgroundModel) Stats() BackgroundStats {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.stats
}

// ProcessFrame updates the model with img and returns the foreground mask in
// row-major order. Frames must be presented in temporal order.
func (bm *BackgroundModel) ProcessFrame(img *image.RGBA) ([]bool, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.cells == nil {
		bm.width, bm.height = w, h
		bm.cells = make([]pixelCell, w*h)
	} else if w != bm.width || h != bm.height {
		return nil, fmt.Errorf("%w: got %dx%d, model %dx%d", ErrModelSize, w, h, bm.width, bm.height)
	}

	warmupActive := false
	if !bm.settlingComplete {
		if bm.warmupFramesRemaining > 0 {
			warmupActive = true
			bm.warmupFramesRemaining--
		}
		if bm.warmupFramesRemaining <= 0 {
			bm.settlingComplete = true
		}
	}

	threshold := bm.params.VarThreshold
	minVar := float32(bm.params.MinVariance)
	maxVar := float32(bm.params.MaxVariance)
	reacqAlpha := math.Min(bm.alpha*bm.params.ReacquisitionBoostMultiplier, 0.5)

	mask := make([]bool, w*h)
	fgCount := 0
	for y := 0; y < h; y++ {
		row := img.Pix[(b.Min.Y+y-img.Rect.Min.Y)*img.Stride+(b.Min.X-img.Rect.Min.X)*4:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+3]
			i := y*w + x
			cell := &bm.cells[i]

			if cell.TimesSeenCount == 0 {
				cell.Mean = [3]float32{float32(px[0]), float32(px[1]), float32(px[2])}
				cell.Variance = float32(bm.params.InitialVariance)
				cell.TimesSeenCount = 1
				mask[i] = true
				fgCount++
				continue
			}

			var dist2 float64
			var diff [3]float64
			for c := 0; c < 3; c++ {
				diff[c] = float64(px[c]) - float64(cell.Mean[c])
				dist2 += diff[c] * diff[c]
			}

			if dist2 <= threshold*float64(cell.Variance) {
				updateAlpha := bm.alpha
				if cell.RecentForegroundCount > 0 {
					updateAlpha = reacqAlpha
					cell.RecentForegroundCount--
				}
				for c := 0; c < 3; c++ {
					cell.Mean[c] += float32(updateAlpha * diff[c])
				}
				v := cell.Variance + float32(updateAlpha*(dist2-float64(cell.Variance)))
				cell.Variance = clampVariance(v, minVar, maxVar)
				if cell.TimesSeenCount < math.MaxUint32 {
					cell.TimesSeenCount++
				}
				continue
			}

			mask[i] = true
			fgCount++
			if cell.RecentForegroundCount < math.MaxUint16 {
				cell.RecentForegroundCount++
			}
			// A pixel that stays foreground for a full history window is a
			// scene change; absorb it.
			if int(cell.RecentForegroundCount) >= bm.params.History {
				cell.Mean = [3]float32{float32(px[0]), float32(px[1]), float32(px[2])}
				cell.Variance = float32(bm.params.InitialVariance)
				cell.RecentForegroundCount = 0
			}
		}
	}

	if warmupActive {
		for i := range mask {
			mask[i] = false
		}
		fgCount = 0
	}

	bm.stats = BackgroundStats{
		Frames:           bm.stats.Frames + 1,
		ForegroundPixels: fgCount,
		BackgroundPixels: w*h - fgCount,
		WarmupActive:     warmupActive,
	}
	return mask, nil
}

// Apply processes img and returns a copy with background pixels blacked out.
func (bm *BackgroundModel) Apply(img *image.RGBA) (*image.RGBA, error) {
	mask, err := bm.ProcessFrame(img)
	if err != nil {
		return nil, err
	}
	return MaskImage(img, mask), nil
}

// MaskImage zeroes the colour channels of every pixel whose mask entry is
// false. Alpha is kept opaque.
func MaskImage(img *image.RGBA, mask []bool) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := img.Pix[(b.Min.Y+y-img.Rect.Min.Y)*img.Stride+(b.Min.X-img.Rect.Min.X)*4:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			o := x * 4
			if mask[y*w+x] {
				copy(dst[o:o+4], src[o:o+4])
			}
			dst[o+3] = 0xff
		}
	}
	return out
}

func clampVariance(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
