package preprocess

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sprint.report/internal/config"
	"github.com/banshee-data/sprint.report/internal/testutil"
)

func fullConfig() Config {
	return Config{
		TargetWidth:  32,
		TargetHeight: 24,
		Normalize:    true,
		Denoise:      true,
		Deblur:       true,
		ROICrop:      true,
	}
}

func TestConfigFromSprint_Defaults(t *testing.T) {
	cfg := ConfigFromSprint(config.EmptySprintConfig())
	assert.Equal(t, 640, cfg.TargetWidth)
	assert.Equal(t, 480, cfg.TargetHeight)
	assert.True(t, cfg.Normalize)
	assert.True(t, cfg.Denoise)
	assert.False(t, cfg.Deblur)
	assert.False(t, cfg.BackgroundSubtract)
	assert.False(t, cfg.ROICrop)
	assert.Equal(t, 100, cfg.Background.History)
	assert.Equal(t, 50.0, cfg.Background.VarThreshold)
}

func TestConfig_Stages(t *testing.T) {
	all := Config{TargetWidth: 1, TargetHeight: 1, Normalize: true, Denoise: true, Deblur: true, BackgroundSubtract: true, ROICrop: true}
	want := []Stage{StageResize, StageNormalize, StageDenoise, StageDeblur, StageBackground, StageROICrop}
	if diff := cmp.Diff(want, all.Stages()); diff != "" {
		t.Errorf("Stages() mismatch (-want +got):\n%s", diff)
	}

	none := Config{TargetWidth: 1, TargetHeight: 1}
	assert.Equal(t, []Stage{StageResize}, none.Stages())
}

func TestNew_InvalidTarget(t *testing.T) {
	_, err := New(Config{TargetWidth: 0, TargetHeight: 10})
	assert.Error(t, err)
}

func TestProcess_OutputSize(t *testing.T) {
	p, err := New(fullConfig())
	require.NoError(t, err)

	out, err := p.Process(testutil.Noise(64, 40, 5))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), out.Bounds())
	assert.Equal(t, 1, p.Frames())
}

func TestProcess_IdempotentWithoutBackground(t *testing.T) {
	p, err := New(fullConfig())
	require.NoError(t, err)
	frame := testutil.Noise(48, 36, 9)

	first, err := p.Process(frame)
	require.NoError(t, err)
	second, err := p.Process(frame)
	require.NoError(t, err)
	assert.Equal(t, first.Pix, second.Pix)
}

func TestProcess_BackgroundIsStateful(t *testing.T) {
	cfg := fullConfig()
	cfg.BackgroundSubtract = true
	cfg.Background = DefaultBackgroundParams()
	p, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, p.Background())
	frame := testutil.Noise(48, 36, 9)

	first, err := p.Process(frame)
	require.NoError(t, err)
	second, err := p.Process(frame)
	require.NoError(t, err)
	assert.NotEqual(t, first.Pix, second.Pix)
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	p, err := New(fullConfig())
	require.NoError(t, err)
	frame := testutil.Noise(32, 24, 4)
	before := append([]byte(nil), frame.Pix...)

	_, err = p.Process(frame)
	require.NoError(t, err)
	assert.Equal(t, before, frame.Pix)
}

func TestProcess_CropAfterROI(t *testing.T) {
	p, err := New(fullConfig())
	require.NoError(t, err)
	frame := testutil.Noise(32, 24, 1)

	out, err := p.Process(frame)
	require.NoError(t, err)
	assert.Equal(t, 32, out.Bounds().Dx(), "no crop before ROI")

	require.NoError(t, p.SetROI(image.Rect(4, 0, 20, 24)))
	assert.True(t, p.Cropping())
	out, err = p.Process(frame)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 24), out.Bounds())

	assert.True(t, errors.Is(p.SetROI(image.Rect(0, 0, 8, 8)), ErrROIAlreadySet))
}

func TestProcess_ROIWithoutCropStage(t *testing.T) {
	cfg := fullConfig()
	cfg.ROICrop = false
	p, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, p.SetROI(image.Rect(4, 0, 20, 24)))
	assert.False(t, p.Cropping())

	out, err := p.Process(testutil.Noise(32, 24, 1))
	require.NoError(t, err)
	assert.Equal(t, 32, out.Bounds().Dx())
	roi, ok := p.ROI()
	assert.True(t, ok)
	assert.Equal(t, image.Rect(4, 0, 20, 24), roi)
}

func TestSetROI_OutsideFrame(t *testing.T) {
	p, err := New(fullConfig())
	require.NoError(t, err)
	assert.Error(t, p.SetROI(image.Rect(100, 0, 120, 24)))
	_, ok := p.ROI()
	assert.False(t, ok)
}

func TestProcess_EmptyFrame(t *testing.T) {
	p, err := New(fullConfig())
	require.NoError(t, err)

	_, err = p.Process(nil)
	assert.True(t, errors.Is(err, ErrEmptyFrame))
	_, err = p.Process(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.True(t, errors.Is(err, ErrEmptyFrame))
}
