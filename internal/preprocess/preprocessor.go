package preprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/banshee-data/sprint.report/internal/monitoring"
)

// ErrROIAlreadySet is returned when SetROI is called a second time.
var ErrROIAlreadySet = errors.New("roi already set")

var logf = monitoring.Tagged("preprocess")

// Preprocessor runs the configured stage chain over successive frames. It is
// not safe for concurrent use; frames must arrive in temporal order when
// background subtraction is enabled.
type Preprocessor struct {
	cfg    Config
	bg     *BackgroundModel
	roi    image.Rectangle
	roiSet bool
	frames int
}

// New validates cfg and returns a Preprocessor.
func New(cfg Config) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Preprocessor{cfg: cfg}
	if cfg.BackgroundSubtract {
		p.bg = NewBackgroundModel(cfg.Background)
	}
	logf("stages=%v target=%dx%d", cfg.Stages(), cfg.TargetWidth, cfg.TargetHeight)
	return p, nil
}

// Config returns the configuration the Preprocessor was built with.
func (p *Preprocessor) Config() Config { return p.cfg }

// Background returns the background model, or nil when the stage is off.
func (p *Preprocessor) Background() *BackgroundModel { return p.bg }

// SetROI fixes the crop rectangle in resized-frame coordinates. It may be
// called once; until then the crop stage passes frames through.
func (p *Preprocessor) SetROI(r image.Rectangle) error {
	if p.roiSet {
		return ErrROIAlreadySet
	}
	bounds := image.Rect(0, 0, p.cfg.TargetWidth, p.cfg.TargetHeight)
	clipped := r.Intersect(bounds)
	if clipped.Empty() {
		return fmt.Errorf("roi %v does not overlap frame %v", r, bounds)
	}
	p.roi = clipped
	p.roiSet = true
	logf("roi set to %v (crop enabled=%t)", clipped, p.cfg.ROICrop)
	return nil
}

// ROI reports the crop rectangle and whether it has been set.
func (p *Preprocessor) ROI() (image.Rectangle, bool) { return p.roi, p.roiSet }

// Cropping reports whether output frames are cropped to the ROI.
func (p *Preprocessor) Cropping() bool { return p.cfg.ROICrop && p.roiSet }

// Frames returns the number of frames processed.
func (p *Preprocessor) Frames() int { return p.frames }

// Process runs every enabled stage over img and returns a new image. The
// input is never modified.
func (p *Preprocessor) Process(img *image.RGBA) (*image.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}
	out := Resize(img, p.cfg.TargetWidth, p.cfg.TargetHeight)
	if p.cfg.Normalize {
		out = Normalize(out)
	}
	if p.cfg.Denoise {
		out = Denoise(out)
	}
	if p.cfg.Deblur {
		out = Deblur(out)
	}
	if p.bg != nil {
		masked, err := p.bg.Apply(out)
		if err != nil {
			return nil, err
		}
		out = masked
	}
	if p.Cropping() {
		cropped, err := Crop(out, p.roi)
		if err != nil {
			return nil, err
		}
		out = cropped
	}
	p.frames++
	return out, nil
}
