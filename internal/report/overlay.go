package report

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/banshee-data/sprint.report/internal/detect"
	"github.com/banshee-data/sprint.report/internal/monitoring"
	"github.com/banshee-data/sprint.report/internal/sprint"
)

var logf = monitoring.Tagged("report")

// Overlay styling.
var (
	BoxColor      = color.RGBA{G: 255, A: 255}
	KeypointColor = color.RGBA{R: 255, A: 255}
	SubjectColor  = color.RGBA{R: 255, G: 255, A: 255}
	LabelColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	boxThickness   = 2
	keypointRadius = 5
	circleSegments = 24
)

// Annotate returns a copy of rec.Image with the marker boxes outlined, the
// first pose's keypoints dotted, the subject position drawn as a vertical
// line and a time/state label in the corner. rec.Image is not modified.
func Annotate(rec sprint.FrameRecord) *image.RGBA {
	if rec.Image == nil {
		return nil
	}
	b := rec.Image.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), rec.Image, b.Min, xdraw.Src)

	for _, box := range rec.Boxes {
		drawBox(out, box.Rect(), BoxColor)
	}
	if len(rec.Poses) > 0 {
		drawKeypoints(out, rec.Poses[0].Keypoints, KeypointColor)
	}
	if rec.Position.OK {
		x := int(math.Round(rec.Position.X)) - rec.OffsetX
		fill(out, image.Rect(x, 0, x+1, out.Bounds().Dy()), SubjectColor)
	}

	label := fmt.Sprintf("frame %d t=%.2fs %s", rec.Index, rec.TimeS, rec.State)
	if rec.Emitted {
		label += fmt.Sprintf(" d=%.2fm", rec.Sample.DistanceM)
	}
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(LabelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 14),
	}
	d.DrawString(label)
	return out
}

// drawBox outlines r with a band of boxThickness pixels inside its edges.
func drawBox(dst *image.RGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	t := boxThickness
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	xdraw.Draw(dst, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

func drawKeypoints(dst *image.RGBA, kps []detect.Keypoint, c color.Color) {
	if len(kps) == 0 {
		return
	}
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, kp := range kps {
		cx, cy := float32(kp.X)+0.5, float32(kp.Y)+0.5
		z.MoveTo(cx+keypointRadius, cy)
		for i := 1; i < circleSegments; i++ {
			a := 2 * math.Pi * float64(i) / circleSegments
			z.LineTo(cx+keypointRadius*float32(math.Cos(a)), cy+keypointRadius*float32(math.Sin(a)))
		}
		z.ClosePath()
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// Overlay writes one annotated PNG per analysed frame into a directory. Its
// Observe method is a sprint.FrameObserver. The first write failure stops
// further output and is reported by Err.
type Overlay struct {
	dir string

	mu     sync.Mutex
	frames int
	err    error
}

// NewOverlay creates dir if needed.
func NewOverlay(dir string) (*Overlay, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create overlay dir: %w", err)
	}
	return &Overlay{dir: dir}, nil
}

// FramePath is where the annotated frame with the given index is written.
func (o *Overlay) FramePath(index int) string {
	return filepath.Join(o.dir, fmt.Sprintf("frame_%05d.png", index))
}

// Observe annotates and writes rec.
func (o *Overlay) Observe(rec sprint.FrameRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return
	}
	img := Annotate(rec)
	if img == nil {
		return
	}
	if err := o.writePNG(o.FramePath(rec.Index), img); err != nil {
		o.err = err
		logf("overlay stopped at frame %d: %v", rec.Index, err)
		return
	}
	o.frames++
}

func (o *Overlay) writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Frames returns the number of frames written.
func (o *Overlay) Frames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames
}

// Err returns the first write error, if any.
func (o *Overlay) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}
