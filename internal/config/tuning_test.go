package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmptySprintConfig_Defaults(t *testing.T) {
	cfg := EmptySprintConfig()

	if got := cfg.GetTrackLengthM(); got != 10.0 {
		t.Errorf("GetTrackLengthM() = %f, want 10", got)
	}
	if got := cfg.GetFrameRate(); got != 0 {
		t.Errorf("GetFrameRate() = %f, want 0", got)
	}
	if cfg.GetTargetWidth() != 640 || cfg.GetTargetHeight() != 480 {
		t.Errorf("target = %dx%d, want 640x480", cfg.GetTargetWidth(), cfg.GetTargetHeight())
	}
	if !cfg.GetNormalize() || !cfg.GetDenoise() {
		t.Error("normalize and denoise should default to true")
	}
	if cfg.GetDeblur() || cfg.GetBackgroundSubtract() || cfg.GetROICrop() {
		t.Error("deblur, background_subtract and roi_crop should default to false")
	}
	if got := cfg.GetROIMarginPx(); got != 50 {
		t.Errorf("GetROIMarginPx() = %d, want 50", got)
	}
	if cfg.GetBgHistory() != 100 || cfg.GetBgVarThreshold() != 50 {
		t.Errorf("bg = (%d, %f), want (100, 50)", cfg.GetBgHistory(), cfg.GetBgVarThreshold())
	}
	if cfg.GetLeftHipKeypoint() != 11 || cfg.GetRightHipKeypoint() != 12 {
		t.Errorf("hips = (%d, %d), want (11, 12)", cfg.GetLeftHipKeypoint(), cfg.GetRightHipKeypoint())
	}
	if got := cfg.GetSpeedUnits(); got != "mps" {
		t.Errorf("GetSpeedUnits() = %q, want mps", got)
	}
}

func TestLoadSprintConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sprint.json")

	testJSON := `{
  "track_length_m": 20,
  "frame_rate": 120,
  "background_subtract": true,
  "roi_margin_px": 25,
  "speed_units": "kmph"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadSprintConfig(configPath)
	if err != nil {
		t.Fatalf("LoadSprintConfig: %v", err)
	}
	if cfg.GetTrackLengthM() != 20 {
		t.Errorf("GetTrackLengthM() = %f, want 20", cfg.GetTrackLengthM())
	}
	if cfg.GetFrameRate() != 120 {
		t.Errorf("GetFrameRate() = %f, want 120", cfg.GetFrameRate())
	}
	if !cfg.GetBackgroundSubtract() {
		t.Error("GetBackgroundSubtract() = false, want true")
	}
	if cfg.GetROIMarginPx() != 25 {
		t.Errorf("GetROIMarginPx() = %d, want 25", cfg.GetROIMarginPx())
	}
	// Omitted keys keep their defaults.
	if !cfg.GetDenoise() {
		t.Error("omitted denoise should keep default true")
	}
	if cfg.GetSpeedUnits() != "kmph" {
		t.Errorf("GetSpeedUnits() = %q, want kmph", cfg.GetSpeedUnits())
	}
}

func TestLoadSprintConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantSub string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "missing.json"), "failed to stat"},
		{"bad json", write("bad.json", "{not json"), "failed to parse"},
		{"negative track", write("track.json", `{"track_length_m": -1}`), "track_length_m"},
		{"zero width", write("width.json", `{"target_width": 0}`), "target_width"},
		{"bad units", write("units.json", `{"speed_units": "knots"}`), "speed_units"},
		{"confidence range", write("conf.json", `{"min_keypoint_confidence": 1.5}`), "min_keypoint_confidence"},
		{"zero history", write("hist.json", `{"bg_history": 0}`), "bg_history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSprintConfig(tt.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetTrackLengthM() != 10 {
		t.Errorf("defaults track length = %f, want 10", cfg.GetTrackLengthM())
	}
	if !cfg.GetROICrop() {
		t.Error("defaults file enables roi_crop")
	}
}
