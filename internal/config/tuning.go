package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/sprint.report/internal/units"
)

// DefaultConfigPath is the path to the canonical sprint defaults file.
const DefaultConfigPath = "config/sprint.defaults.json"

// SprintConfig is the root configuration for one analysis run. Every field
// is optional; the Get* accessors supply the default for anything the JSON
// leaves out, so partial configs are safe.
type SprintConfig struct {
	// Track geometry
	TrackLengthM *float64 `json:"track_length_m,omitempty"`
	// FrameRate overrides the source's frame rate when > 0. Image-directory
	// sources have no rate of their own and require it.
	FrameRate *float64 `json:"frame_rate,omitempty"`

	// Preprocessing chain
	TargetWidth        *int  `json:"target_width,omitempty"`
	TargetHeight       *int  `json:"target_height,omitempty"`
	Normalize          *bool `json:"normalize,omitempty"`
	Denoise            *bool `json:"denoise,omitempty"`
	Deblur             *bool `json:"deblur,omitempty"`
	BackgroundSubtract *bool `json:"background_subtract,omitempty"`
	ROICrop            *bool `json:"roi_crop,omitempty"`
	ROIMarginPx        *int  `json:"roi_margin_px,omitempty"`

	// Background model
	BgHistory      *int     `json:"bg_history,omitempty"`
	BgVarThreshold *float64 `json:"bg_var_threshold,omitempty"`
	BgWarmupFrames *int     `json:"bg_warmup_frames,omitempty"`

	// Subject locator
	LeftHipKeypoint       *int     `json:"left_hip_keypoint,omitempty"`
	RightHipKeypoint      *int     `json:"right_hip_keypoint,omitempty"`
	MinKeypointConfidence *float64 `json:"min_keypoint_confidence,omitempty"`

	// Reporting
	SpeedUnits *string `json:"speed_units,omitempty"`
}

// EmptySprintConfig returns a SprintConfig with all fields unset.
func EmptySprintConfig() *SprintConfig {
	return &SprintConfig{}
}

// LoadSprintConfig loads a SprintConfig from a JSON file. The path must have
// a .json extension and the file must be at most 1MB.
func LoadSprintConfig(path string) (*SprintConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySprintConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *SprintConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSprintConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *SprintConfig) Validate() error {
	if c.TrackLengthM != nil && *c.TrackLengthM <= 0 {
		return fmt.Errorf("track_length_m must be positive, got %f", *c.TrackLengthM)
	}
	if c.FrameRate != nil && *c.FrameRate < 0 {
		return fmt.Errorf("frame_rate must be non-negative, got %f", *c.FrameRate)
	}
	if c.TargetWidth != nil && *c.TargetWidth <= 0 {
		return fmt.Errorf("target_width must be positive, got %d", *c.TargetWidth)
	}
	if c.TargetHeight != nil && *c.TargetHeight <= 0 {
		return fmt.Errorf("target_height must be positive, got %d", *c.TargetHeight)
	}
	if c.ROIMarginPx != nil && *c.ROIMarginPx < 0 {
		return fmt.Errorf("roi_margin_px must be non-negative, got %d", *c.ROIMarginPx)
	}
	if c.BgHistory != nil && *c.BgHistory <= 0 {
		return fmt.Errorf("bg_history must be positive, got %d", *c.BgHistory)
	}
	if c.BgVarThreshold != nil && *c.BgVarThreshold <= 0 {
		return fmt.Errorf("bg_var_threshold must be positive, got %f", *c.BgVarThreshold)
	}
	if c.BgWarmupFrames != nil && *c.BgWarmupFrames < 0 {
		return fmt.Errorf("bg_warmup_frames must be non-negative, got %d", *c.BgWarmupFrames)
	}
	if c.LeftHipKeypoint != nil && *c.LeftHipKeypoint < 0 {
		return fmt.Errorf("left_hip_keypoint must be non-negative, got %d", *c.LeftHipKeypoint)
	}
	if c.RightHipKeypoint != nil && *c.RightHipKeypoint < 0 {
		return fmt.Errorf("right_hip_keypoint must be non-negative, got %d", *c.RightHipKeypoint)
	}
	if c.MinKeypointConfidence != nil {
		if *c.MinKeypointConfidence < 0 || *c.MinKeypointConfidence > 1 {
			return fmt.Errorf("min_keypoint_confidence must be between 0 and 1, got %f", *c.MinKeypointConfidence)
		}
	}
	if c.SpeedUnits != nil && !units.IsValid(*c.SpeedUnits) {
		return fmt.Errorf("speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.SpeedUnits)
	}
	return nil
}

// GetTrackLengthM returns the distance between the two markers in metres.
func (c *SprintConfig) GetTrackLengthM() float64 {
	if c.TrackLengthM == nil {
		return 10.0
	}
	return *c.TrackLengthM
}

// GetFrameRate returns the frame rate override, 0 meaning "use the source".
func (c *SprintConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 0
	}
	return *c.FrameRate
}

// GetTargetWidth returns the resize target width in pixels.
func (c *SprintConfig) GetTargetWidth() int {
	if c.TargetWidth == nil {
		return 640
	}
	return *c.TargetWidth
}

// GetTargetHeight returns the resize target height in pixels.
func (c *SprintConfig) GetTargetHeight() int {
	if c.TargetHeight == nil {
		return 480
	}
	return *c.TargetHeight
}

// GetNormalize returns the normalize value or the default.
func (c *SprintConfig) GetNormalize() bool {
	if c.Normalize == nil {
		return true
	}
	return *c.Normalize
}

// GetDenoise returns the denoise value or the default.
func (c *SprintConfig) GetDenoise() bool {
	if c.Denoise == nil {
		return true
	}
	return *c.Denoise
}

// GetDeblur returns the deblur value or the default.
func (c *SprintConfig) GetDeblur() bool {
	if c.Deblur == nil {
		return false
	}
	return *c.Deblur
}

// GetBackgroundSubtract returns the background_subtract value or the default.
func (c *SprintConfig) GetBackgroundSubtract() bool {
	if c.BackgroundSubtract == nil {
		return false
	}
	return *c.BackgroundSubtract
}

// GetROICrop returns the roi_crop value or the default.
func (c *SprintConfig) GetROICrop() bool {
	if c.ROICrop == nil {
		return false
	}
	return *c.ROICrop
}

// GetROIMarginPx returns the pixel margin added around the markers.
func (c *SprintConfig) GetROIMarginPx() int {
	if c.ROIMarginPx == nil {
		return 50
	}
	return *c.ROIMarginPx
}

// GetBgHistory returns the number of frames the background model remembers.
func (c *SprintConfig) GetBgHistory() int {
	if c.BgHistory == nil {
		return 100
	}
	return *c.BgHistory
}

// GetBgVarThreshold returns the squared-distance threshold (in intensity
// units squared) beyond which a pixel counts as foreground.
func (c *SprintConfig) GetBgVarThreshold() float64 {
	if c.BgVarThreshold == nil {
		return 50
	}
	return *c.BgVarThreshold
}

// GetBgWarmupFrames returns the number of frames during which the
// background model learns without emitting foreground.
func (c *SprintConfig) GetBgWarmupFrames() int {
	if c.BgWarmupFrames == nil {
		return 0
	}
	return *c.BgWarmupFrames
}

// GetLeftHipKeypoint returns the keypoint index of the left hip (COCO 11).
func (c *SprintConfig) GetLeftHipKeypoint() int {
	if c.LeftHipKeypoint == nil {
		return 11
	}
	return *c.LeftHipKeypoint
}

// GetRightHipKeypoint returns the keypoint index of the right hip (COCO 12).
func (c *SprintConfig) GetRightHipKeypoint() int {
	if c.RightHipKeypoint == nil {
		return 12
	}
	return *c.RightHipKeypoint
}

// GetMinKeypointConfidence returns the minimum keypoint confidence.
func (c *SprintConfig) GetMinKeypointConfidence() float64 {
	if c.MinKeypointConfidence == nil {
		return 0
	}
	return *c.MinKeypointConfidence
}

// GetSpeedUnits returns the display units for reported speeds.
func (c *SprintConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil || *c.SpeedUnits == "" {
		return units.MPS
	}
	return *c.SpeedUnits
}
